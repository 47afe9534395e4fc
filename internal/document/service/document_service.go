package service

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"

	"landreg/internal/document/models"
	propertymodels "landreg/internal/property/models"
	"landreg/internal/property/workflow"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/requestcontext"
)

// UploadInput carries the multipart upload metadata; the handler fills it
// from the form before any file bytes are read.
type UploadInput struct {
	PropertyID  id.PropertyID
	Type        models.Type
	FileName    string
	ContentType string
	SizeBytes   int64
}

// uploadable reports whether owners may (re)upload in this property state.
func uploadable(status propertymodels.Status) bool {
	switch status {
	case propertymodels.StatusPending, propertymodels.StatusDocumentsPending,
		propertymodels.StatusRejected, propertymodels.StatusNeedsUpdate:
		return true
	}
	return false
}

// Upload validates the file metadata, stores the blob, and fills the
// (property, type) slot. Validation runs before any blob I/O so an oversized
// or mistyped file never reaches storage. A re-upload replaces the slot with
// a fresh pending document and releases the previous blob.
func (s *Service) Upload(ctx context.Context, ownerID id.UserID, input UploadInput, file io.Reader) (*models.Document, error) {
	property, err := s.properties.Get(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != ownerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not the property owner")
	}
	if !uploadable(property.Status) {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"documents cannot be uploaded while the application is %s", property.Status)
	}

	now := requestcontext.Now(ctx)
	doc, err := models.NewDocument(id.NewDocumentID(), input.PropertyID, ownerID,
		input.Type, input.FileName, input.ContentType, input.SizeBytes, now)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementUploadRejected()
		}
		return nil, err
	}

	if err := s.blobs.Put(ctx, doc.StorageKey, io.LimitReader(file, models.MaxFileSize)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "document storage failure")
	}

	replaced, err := s.store.Upsert(ctx, doc)
	if err != nil {
		if cleanup := s.blobs.Delete(ctx, doc.StorageKey); cleanup != nil {
			s.logger.WarnContext(ctx, "orphaned blob after failed upsert",
				"storage_key", doc.StorageKey, "error", cleanup)
		}
		return nil, wrapStoreErr(err)
	}
	if replaced != nil {
		if err := s.blobs.Delete(ctx, replaced.StorageKey); err != nil {
			s.logger.WarnContext(ctx, "stale blob cleanup failed",
				"storage_key", replaced.StorageKey, "error", err)
		}
	}

	s.emit(ctx, audit.EventDocumentUploaded, ownerID, doc.ID.String(), string(doc.Type))
	if s.metrics != nil {
		s.metrics.ObserveUpload(string(doc.Type), doc.SizeBytes)
	}

	// A complete required set moves a pending application into review.
	if property.Status == propertymodels.StatusPending {
		if err := s.maybeSubmit(ctx, input.PropertyID); err != nil {
			s.logger.WarnContext(ctx, "document submission transition failed",
				"property_id", input.PropertyID, "error", err)
		}
	}
	return doc, nil
}

func (s *Service) maybeSubmit(ctx context.Context, propertyID id.PropertyID) error {
	docs, err := s.store.ListByProperty(ctx, propertyID)
	if err != nil {
		return wrapStoreErr(err)
	}
	review := reviewState(docs)
	if !review.Complete() {
		return nil
	}
	_, err = s.properties.ApplyWorkflowEvent(ctx, propertyID,
		workflow.EventDocumentsSubmitted, review, "all required documents uploaded")
	return err
}

// Get returns one document's metadata. Visibility follows the owning
// property: owners and officers only.
func (s *Service) Get(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, documentID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if _, err := s.properties.Get(ctx, doc.PropertyID); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListByProperty returns all documents attached to a property.
func (s *Service) ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Document, error) {
	if _, err := s.properties.Get(ctx, propertyID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return docs, nil
}

// Download opens the document's blob for streaming. The caller closes the
// reader.
func (s *Service) Download(ctx context.Context, documentID id.DocumentID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "document storage failure")
	}
	return doc, rc, nil
}

// Verify records an officer's acceptance of one document and advances the
// property workflow; the fourth verification flips the application to
// documents_validated.
func (s *Service) Verify(ctx context.Context, documentID id.DocumentID, notes string) (*models.Document, error) {
	ctx, span := s.tracer.Start(ctx, "document.verify")
	defer span.End()

	if err := s.checkReviewable(ctx, documentID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	doc, err := s.store.Execute(ctx, documentID,
		func(d *models.Document) error {
			if d.Status == models.StatusVerified {
				return dErrors.New(dErrors.CodeInvariantViolation, "document is already verified")
			}
			return nil
		},
		func(d *models.Document) {
			_ = d.Verify(notes, now)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	span.SetAttributes(attribute.String("document.id", doc.ID.String()))

	if err := s.applyReviewEvent(ctx, doc, workflow.EventDocumentVerified,
		fmt.Sprintf("document %s verified", doc.Type)); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.EventDocumentVerified, doc.OwnerID, doc.ID.String(), notes)
	if s.metrics != nil {
		s.metrics.ObserveReview("verified")
	}
	return doc, nil
}

// Reject records an officer's refusal; the owner re-uploads the slot.
func (s *Service) Reject(ctx context.Context, documentID id.DocumentID, notes string) (*models.Document, error) {
	if err := s.checkReviewable(ctx, documentID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	doc, err := s.store.Execute(ctx, documentID,
		func(d *models.Document) error {
			if notes == "" {
				return dErrors.New(dErrors.CodeInvalidInput, "rejection notes are required")
			}
			return nil
		},
		func(d *models.Document) {
			_ = d.Reject(notes, now)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if err := s.applyReviewEvent(ctx, doc, workflow.EventDocumentRejected,
		fmt.Sprintf("document %s rejected", doc.Type)); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.EventDocumentRejected, doc.OwnerID, doc.ID.String(), notes)
	s.notify(ctx, doc.OwnerID, "document", "Document rejected",
		fmt.Sprintf("Your %s was rejected: %s. Please upload a corrected copy.", doc.Type, notes),
		"/properties/"+doc.PropertyID.String())
	if s.metrics != nil {
		s.metrics.ObserveReview("rejected")
	}
	return doc, nil
}

// checkReviewable rejects a review before the document mutates when the
// owning application has moved past document collection. Reviews while the
// required set is still incomplete are fine; the application stays pending
// until the last upload submits it.
func (s *Service) checkReviewable(ctx context.Context, documentID id.DocumentID) error {
	doc, err := s.store.FindByID(ctx, documentID)
	if err != nil {
		return wrapStoreErr(err)
	}
	property, err := s.properties.Find(ctx, doc.PropertyID)
	if err != nil {
		return err
	}
	switch property.Status {
	case propertymodels.StatusPending, propertymodels.StatusDocumentsPending:
		return nil
	default:
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"documents cannot be reviewed while the application is %s", property.Status)
	}
}

func (s *Service) applyReviewEvent(ctx context.Context, doc *models.Document,
	event workflow.Event, description string) error {

	docs, err := s.store.ListByProperty(ctx, doc.PropertyID)
	if err != nil {
		return wrapStoreErr(err)
	}
	_, err = s.properties.ApplyWorkflowEvent(ctx, doc.PropertyID, event, reviewState(docs), description)
	return err
}

// ReviewState reports the verification state of a property's required
// document slots. The property service consults it on resubmission.
func (s *Service) ReviewState(ctx context.Context, propertyID id.PropertyID) (workflow.DocumentReview, error) {
	docs, err := s.store.ListByProperty(ctx, propertyID)
	if err != nil {
		return workflow.DocumentReview{}, wrapStoreErr(err)
	}
	return reviewState(docs), nil
}

// PurgeProperty removes all documents and blobs of a deleted property.
func (s *Service) PurgeProperty(ctx context.Context, propertyID id.PropertyID) error {
	removed, err := s.store.DeleteByProperty(ctx, propertyID)
	if err != nil {
		return wrapStoreErr(err)
	}
	for _, doc := range removed {
		if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
			s.logger.WarnContext(ctx, "blob cleanup failed",
				"storage_key", doc.StorageKey, "error", err)
		}
	}
	return nil
}
