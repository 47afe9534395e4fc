package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "empty header",
			raw:  "",
			want: []string{"Unknown Device"},
		},
		{
			name: "chrome on mac",
			raw:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: []string{"Chrome", "on"},
		},
		{
			name: "firefox on linux",
			raw:  "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			want: []string{"Firefox", "on"},
		},
		{
			name: "safari on iphone",
			raw:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			want: []string{"on"},
		},
		{
			name: "unrecognized client still formats",
			raw:  "Unknown/1.0",
			want: []string{"on"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUserAgent(tt.raw)
			for _, part := range tt.want {
				assert.Contains(t, got, part)
			}
			assert.Equal(t, got, strings.TrimSpace(got))
			assert.NotContains(t, got, "  ")
		})
	}
}
