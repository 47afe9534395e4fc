package handler

import (
	"strings"

	dErrors "landreg/pkg/domain-errors"
)

// ReviewRequest carries officer notes for verify/reject decisions. Notes are
// optional on verification; the service requires them on rejection.
type ReviewRequest struct {
	Notes string `json:"notes"`
}

func (r *ReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Notes = strings.TrimSpace(r.Notes)
	return nil
}
