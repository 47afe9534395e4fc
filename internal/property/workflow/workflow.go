// Package workflow is the single source of truth for the registration
// lifecycle. Every status change in the system - document review, payment
// settlement, officer decisions - goes through Next so the transition policy
// lives in exactly one place.
package workflow

import (
	dErrors "landreg/pkg/domain-errors"

	"landreg/internal/property/models"
)

// Event is an incoming workflow trigger.
type Event string

const (
	// EventDocumentsSubmitted fires when the required document set is complete.
	EventDocumentsSubmitted Event = "documents_submitted"
	// EventDocumentVerified fires on each officer verification decision.
	EventDocumentVerified Event = "document_verified"
	// EventDocumentRejected fires on each officer rejection decision.
	EventDocumentRejected Event = "document_rejected"
	// EventPaymentInitiated fires when the owner starts a registration payment.
	EventPaymentInitiated Event = "payment_initiated"
	// EventPaymentCompleted fires on a successful gateway confirmation.
	EventPaymentCompleted Event = "payment_completed"
	// EventReviewStarted fires when an officer picks up a paid application.
	EventReviewStarted Event = "review_started"
	// EventOfficerApproved is the terminal approval decision.
	EventOfficerApproved Event = "officer_approved"
	// EventOfficerRejected is an officer rejection, valid pre-approval.
	EventOfficerRejected Event = "officer_rejected"
	// EventUpdateRequested asks the owner to fix and resubmit.
	EventUpdateRequested Event = "update_requested"
	// EventResubmitted returns a corrected application to the queue.
	EventResubmitted Event = "resubmitted"
)

// RequiredDocuments is the fixed set every application must carry before it
// can leave pending. Values are document type identifiers.
var RequiredDocuments = []string{"title_deed", "id_copy", "tax_clearance", "application_form"}

// DocumentReview summarizes the per-slot verification state of an
// application's required documents at the moment an event is applied.
type DocumentReview struct {
	Uploaded int // distinct required types with a current upload
	Verified int // of those, how many are verified
	Rejected int // of those, how many are rejected
}

// Complete reports whether all required slots are filled.
func (d DocumentReview) Complete() bool {
	return d.Uploaded >= len(RequiredDocuments)
}

// AllVerified reports the documents_validated condition: every required type
// verified and none rejected.
func (d DocumentReview) AllVerified() bool {
	return d.Verified == len(RequiredDocuments) && d.Rejected == 0
}

// Next computes the status after applying event to current. Returns an
// invariant violation error for transitions the policy forbids; callers
// translate that into a 409.
//
// The table, in policy form:
//
//	pending             + documents_submitted (all required uploaded) -> documents_pending
//	pending             + document_verified/rejected                  -> pending (no-op)
//	documents_pending   + document_verified (all verified)            -> documents_validated
//	documents_pending   + document_verified/rejected (otherwise)      -> documents_pending
//	documents_validated + payment_initiated                           -> payment_pending
//	payment_pending     + payment_completed                           -> payment_completed
//	payment_completed   + review_started                              -> under_review
//	under_review        + officer_approved                            -> approved (terminal)
//	any pre-approval    + officer_rejected                            -> rejected
//	rejected/docs_pending + update_requested                          -> needs_update
//	needs_update/rejected + resubmitted                               -> pending
func Next(current models.Status, event Event, docs DocumentReview) (models.Status, error) {
	switch event {
	case EventDocumentsSubmitted:
		if current != models.StatusPending && current != models.StatusDocumentsPending {
			return current, transitionErr(current, event)
		}
		if !docs.Complete() {
			return current, dErrors.New(dErrors.CodeInvariantViolation,
				"all required documents must be uploaded before submission")
		}
		// A resubmitted set whose slots were already verified needs no
		// further officer action.
		if docs.AllVerified() {
			return models.StatusDocumentsValidated, nil
		}
		return models.StatusDocumentsPending, nil

	case EventDocumentVerified:
		// Officers may review slots before the required set is complete;
		// the application stays pending until the last upload submits it.
		if current == models.StatusPending {
			return current, nil
		}
		if current != models.StatusDocumentsPending {
			return current, transitionErr(current, event)
		}
		if docs.AllVerified() {
			return models.StatusDocumentsValidated, nil
		}
		return models.StatusDocumentsPending, nil

	case EventDocumentRejected:
		// A rejection keeps the application where it is; the owner
		// re-uploads that slot, which resets it to a pending verification.
		if current == models.StatusPending {
			return current, nil
		}
		if current != models.StatusDocumentsPending {
			return current, transitionErr(current, event)
		}
		return models.StatusDocumentsPending, nil

	case EventPaymentInitiated:
		// Payment is gated on validated documents; skipping straight from
		// documents_pending is the edge case the policy forbids.
		if current != models.StatusDocumentsValidated && current != models.StatusPaymentPending {
			return current, transitionErr(current, event)
		}
		return models.StatusPaymentPending, nil

	case EventPaymentCompleted:
		if current != models.StatusPaymentPending {
			return current, transitionErr(current, event)
		}
		return models.StatusPaymentCompleted, nil

	case EventReviewStarted:
		if current != models.StatusPaymentCompleted {
			return current, transitionErr(current, event)
		}
		return models.StatusUnderReview, nil

	case EventOfficerApproved:
		if current != models.StatusUnderReview && current != models.StatusPaymentCompleted {
			return current, transitionErr(current, event)
		}
		return models.StatusApproved, nil

	case EventOfficerRejected:
		if current == models.StatusApproved || current == models.StatusRejected {
			return current, transitionErr(current, event)
		}
		return models.StatusRejected, nil

	case EventUpdateRequested:
		if current != models.StatusRejected && current != models.StatusDocumentsPending {
			return current, transitionErr(current, event)
		}
		return models.StatusNeedsUpdate, nil

	case EventResubmitted:
		if current != models.StatusNeedsUpdate && current != models.StatusRejected {
			return current, transitionErr(current, event)
		}
		return models.StatusPending, nil
	}

	return current, dErrors.Newf(dErrors.CodeBadRequest, "unknown workflow event %q", event)
}

func transitionErr(current models.Status, event Event) error {
	return dErrors.Newf(dErrors.CodeInvariantViolation,
		"event %q is not valid in status %q", event, current)
}
