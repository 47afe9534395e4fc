package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "landreg/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePropertyID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePropertyID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParsePropertyID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParsePropertyID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, PropertyID(validUUID), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	propertyID := PropertyID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ UserID = propertyID   // compile error
	// var _ PropertyID = userID   // compile error

	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(propertyID))
}

// TestParseID_SecurityInvariants validates trust boundary parsing rules:
// parsing must reject attack vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE properties;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400​-e29b-41d4-a716-446655440000", true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocumentID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestParseConsistency ensures all ID types validate identically. Divergent
// validation across ID types would create holes at the API boundary.
func TestParseConsistency(t *testing.T) {
	inputs := []string{"", "invalid", uuid.Nil.String(), uuid.NewString()}

	for _, input := range inputs {
		_, errUser := ParseUserID(input)
		_, errProperty := ParsePropertyID(input)
		_, errDocument := ParseDocumentID(input)
		_, errPayment := ParsePaymentID(input)
		_, errDispute := ParseDisputeID(input)
		_, errNotification := ParseNotificationID(input)

		assert.Equal(t, errUser == nil, errProperty == nil, "input %q", input)
		assert.Equal(t, errUser == nil, errDocument == nil, "input %q", input)
		assert.Equal(t, errUser == nil, errPayment == nil, "input %q", input)
		assert.Equal(t, errUser == nil, errDispute == nil, "input %q", input)
		assert.Equal(t, errUser == nil, errNotification == nil, "input %q", input)
	}
}
