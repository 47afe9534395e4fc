package handler

import (
	"time"

	"landreg/internal/document/models"
)

// DocumentResponse is the wire form of one document's metadata.
type DocumentResponse struct {
	ID          string     `json:"id"`
	PropertyID  string     `json:"property_id"`
	OwnerID     string     `json:"owner_id"`
	DocType     string     `json:"doc_type"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	SizeBytes   int64      `json:"size_bytes"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

// FromDocument converts the model to its HTTP response.
func FromDocument(d *models.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:          d.ID.String(),
		PropertyID:  d.PropertyID.String(),
		OwnerID:     d.OwnerID.String(),
		DocType:     string(d.Type),
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		Status:      string(d.Status),
		Notes:       d.Notes,
		UploadedAt:  d.UploadedAt,
		ReviewedAt:  d.ReviewedAt,
	}
}

// ListResponse wraps a property's documents.
type ListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Total     int                 `json:"total"`
}

// FromDocuments converts a slice of models.
func FromDocuments(docs []*models.Document) *ListResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDocument(d))
	}
	return &ListResponse{Documents: out, Total: len(out)}
}
