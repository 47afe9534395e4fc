package models

import (
	"fmt"
	"strings"
	"time"

	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
)

// Type classifies a registration document. title_deed, id_copy,
// tax_clearance, and application_form are the required set; other covers
// supporting material.
type Type string

const (
	TypeTitleDeed       Type = "title_deed"
	TypeIDCopy          Type = "id_copy"
	TypeTaxClearance    Type = "tax_clearance"
	TypeApplicationForm Type = "application_form"
	TypeOther           Type = "other"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeTitleDeed, TypeIDCopy, TypeTaxClearance, TypeApplicationForm, TypeOther:
		return true
	}
	return false
}

// Required reports whether this type counts toward the mandatory set.
func (t Type) Required() bool {
	return t.IsValid() && t != TypeOther
}

// Status is the officer verification state of one document.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// MaxFileSize is the upload cap enforced before any storage I/O.
const MaxFileSize = 5 << 20

// allowedContentTypes is the closed MIME allowlist for uploads.
var allowedContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"image/jpeg":         {},
	"image/png":          {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// ValidateUpload rejects oversized or unsupported files. Runs before the
// blob store is touched so a bad upload never leaves residue on disk.
func ValidateUpload(fileName, contentType string, sizeBytes int64) error {
	if strings.TrimSpace(fileName) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "file name is required")
	}
	if sizeBytes <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "file is empty")
	}
	if sizeBytes > MaxFileSize {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"file exceeds the %dMB limit", MaxFileSize>>20)
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"unsupported file type %q: PDF, JPEG, PNG, and Word documents only", contentType)
	}
	return nil
}

// Document is one uploaded file attached to a registration application.
// Each application holds at most one document per type; a re-upload replaces
// the slot with a fresh document in pending state.
type Document struct {
	ID          id.DocumentID `json:"id"`
	PropertyID  id.PropertyID `json:"property_id"`
	OwnerID     id.UserID     `json:"owner_id"`
	Type        Type          `json:"doc_type"`
	FileName    string        `json:"file_name"`
	ContentType string        `json:"content_type"`
	SizeBytes   int64         `json:"size_bytes"`
	Status      Status        `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	StorageKey  string        `json:"-"`
	UploadedAt  time.Time     `json:"uploaded_at"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
}

// NewDocument validates metadata and constructs a pending document.
func NewDocument(documentID id.DocumentID, propertyID id.PropertyID, ownerID id.UserID,
	docType Type, fileName, contentType string, sizeBytes int64, now time.Time) (*Document, error) {

	if !docType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown document type %q", docType)
	}
	if err := ValidateUpload(fileName, contentType, sizeBytes); err != nil {
		return nil, err
	}
	return &Document{
		ID:          documentID,
		PropertyID:  propertyID,
		OwnerID:     ownerID,
		Type:        docType,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		Status:      StatusPending,
		StorageKey:  fmt.Sprintf("%s/%s/%s", propertyID, docType, documentID),
		UploadedAt:  now,
	}, nil
}

// Verify marks the document accepted by an officer.
func (d *Document) Verify(notes string, now time.Time) error {
	if d.Status == StatusVerified {
		return dErrors.New(dErrors.CodeInvariantViolation, "document is already verified")
	}
	d.Status = StatusVerified
	d.Notes = notes
	d.ReviewedAt = &now
	return nil
}

// Reject marks the document refused; the owner must re-upload the slot.
func (d *Document) Reject(notes string, now time.Time) error {
	if strings.TrimSpace(notes) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "rejection notes are required")
	}
	d.Status = StatusRejected
	d.Notes = notes
	d.ReviewedAt = &now
	return nil
}
