package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landreg/internal/property/models"
	dErrors "landreg/pkg/domain-errors"
)

func completeDocs() DocumentReview {
	return DocumentReview{Uploaded: 4, Verified: 0, Rejected: 0}
}

func allVerifiedDocs() DocumentReview {
	return DocumentReview{Uploaded: 4, Verified: 4, Rejected: 0}
}

func TestHappyPath(t *testing.T) {
	status := models.StatusPending

	status, err := Next(status, EventDocumentsSubmitted, completeDocs())
	require.NoError(t, err)
	assert.Equal(t, models.StatusDocumentsPending, status)

	status, err = Next(status, EventDocumentVerified, allVerifiedDocs())
	require.NoError(t, err)
	assert.Equal(t, models.StatusDocumentsValidated, status)

	status, err = Next(status, EventPaymentInitiated, DocumentReview{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentPending, status)

	status, err = Next(status, EventPaymentCompleted, DocumentReview{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentCompleted, status)

	status, err = Next(status, EventReviewStarted, DocumentReview{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, status)

	status, err = Next(status, EventOfficerApproved, DocumentReview{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, status)
}

func TestDocumentsSubmitted_RequiresCompleteSet(t *testing.T) {
	_, err := Next(models.StatusPending, EventDocumentsSubmitted, DocumentReview{Uploaded: 3})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestDocumentsValidated_RequiresAllFourVerified(t *testing.T) {
	tests := []struct {
		name string
		docs DocumentReview
		want models.Status
	}{
		{"all four verified", DocumentReview{Uploaded: 4, Verified: 4}, models.StatusDocumentsValidated},
		{"three verified", DocumentReview{Uploaded: 4, Verified: 3}, models.StatusDocumentsPending},
		{"four verified one rejected", DocumentReview{Uploaded: 4, Verified: 4, Rejected: 1}, models.StatusDocumentsPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(models.StatusDocumentsPending, EventDocumentVerified, tt.docs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReviewBeforeSubmission_IsNoOp(t *testing.T) {
	// Officers may review slots while the owner is still uploading; the
	// application stays pending until the last upload submits it.
	got, err := Next(models.StatusPending, EventDocumentVerified, DocumentReview{Uploaded: 2, Verified: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got)

	got, err = Next(models.StatusPending, EventDocumentRejected, DocumentReview{Uploaded: 2, Rejected: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got)
}

func TestDocumentsSubmitted_AllVerifiedSkipsReview(t *testing.T) {
	// A resubmitted set whose slots are all verified has nothing left for
	// an officer.
	got, err := Next(models.StatusPending, EventDocumentsSubmitted, allVerifiedDocs())
	require.NoError(t, err)
	assert.Equal(t, models.StatusDocumentsValidated, got)
}

func TestDocumentRejected_StaysInDocumentsPending(t *testing.T) {
	got, err := Next(models.StatusDocumentsPending, EventDocumentRejected,
		DocumentReview{Uploaded: 4, Verified: 3, Rejected: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDocumentsPending, got)
}

// A property cannot skip from documents_pending to payment_pending; payment
// is gated on validated documents.
func TestPaymentGatedOnValidatedDocuments(t *testing.T) {
	_, err := Next(models.StatusDocumentsPending, EventPaymentInitiated, DocumentReview{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = Next(models.StatusPending, EventPaymentInitiated, DocumentReview{})
	require.Error(t, err)
}

func TestPaymentInitiated_IdempotentInPaymentPending(t *testing.T) {
	got, err := Next(models.StatusPaymentPending, EventPaymentInitiated, DocumentReview{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentPending, got)
}

func TestOfficerRejected_ValidPreApproval(t *testing.T) {
	preApproval := []models.Status{
		models.StatusPending,
		models.StatusDocumentsPending,
		models.StatusDocumentsValidated,
		models.StatusPaymentPending,
		models.StatusPaymentCompleted,
		models.StatusUnderReview,
		models.StatusNeedsUpdate,
	}
	for _, status := range preApproval {
		got, err := Next(status, EventOfficerRejected, DocumentReview{})
		require.NoError(t, err, "status %s", status)
		assert.Equal(t, models.StatusRejected, got)
	}
}

func TestApprovedIsTerminal(t *testing.T) {
	events := []Event{
		EventDocumentsSubmitted, EventDocumentVerified, EventDocumentRejected,
		EventPaymentInitiated, EventPaymentCompleted, EventReviewStarted,
		EventOfficerApproved, EventOfficerRejected, EventUpdateRequested,
		EventResubmitted,
	}
	for _, event := range events {
		_, err := Next(models.StatusApproved, event, allVerifiedDocs())
		require.Error(t, err, "event %s must be rejected on approved", event)
	}
}

func TestRejectedCanResubmit(t *testing.T) {
	status, err := Next(models.StatusRejected, EventUpdateRequested, DocumentReview{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNeedsUpdate, status)

	status, err = Next(status, EventResubmitted, DocumentReview{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status)
}

func TestUnknownEvent(t *testing.T) {
	_, err := Next(models.StatusPending, Event("bogus"), DocumentReview{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestEditableSet(t *testing.T) {
	editable := map[models.Status]bool{
		models.StatusPending:            true,
		models.StatusRejected:           true,
		models.StatusNeedsUpdate:        true,
		models.StatusDocumentsPending:   false,
		models.StatusDocumentsValidated: false,
		models.StatusPaymentPending:     false,
		models.StatusPaymentCompleted:   false,
		models.StatusUnderReview:        false,
		models.StatusApproved:           false,
	}
	for status, want := range editable {
		assert.Equal(t, want, status.Editable(), "status %s", status)
	}
}

func TestRequiredDocumentSet(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{"title_deed", "id_copy", "tax_clearance", "application_form"},
		RequiredDocuments)
}
