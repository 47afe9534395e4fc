package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"landreg/internal/dispute/models"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/requestcontext"
)

// SubmitInput carries the claimant-supplied fields for a new dispute.
type SubmitInput struct {
	PropertyID  id.PropertyID
	Title       string
	Description string
	Type        models.Type
	Priority    models.Priority
}

// Submit files a dispute against a property. Any authenticated user may file
// one; the property owner is notified.
func (s *Service) Submit(ctx context.Context, claimantID id.UserID, input SubmitInput) (*models.Dispute, error) {
	property, err := s.properties.Find(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	dispute, err := models.NewDispute(id.NewDisputeID(), input.PropertyID, claimantID,
		input.Title, input.Description, input.Type, input.Priority, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, dispute); err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.EventDisputeSubmitted, claimantID, dispute.ID.String(), string(dispute.Type))
	if property.OwnerID != claimantID {
		s.notify(ctx, property.OwnerID, "dispute", "Dispute filed against your property",
			fmt.Sprintf("A %s dispute was filed against plot %s: %s",
				dispute.Type, property.PlotNumber, dispute.Title),
			"/disputes/"+dispute.ID.String())
	}
	if s.metrics != nil {
		s.metrics.ObserveSubmitted(string(dispute.Type), string(dispute.Priority))
	}
	return dispute, nil
}

// Withdraw pulls a dispute back. Only the claimant may withdraw, only while
// review has not reached mediation, and only with a reason.
func (s *Service) Withdraw(ctx context.Context, claimantID id.UserID,
	disputeID id.DisputeID, reason string) (*models.Dispute, error) {

	now := requestcontext.Now(ctx)
	dispute, err := s.store.Execute(ctx, disputeID,
		func(d *models.Dispute) error {
			if d.ClaimantID != claimantID {
				return dErrors.New(dErrors.CodeForbidden, "only the claimant can withdraw a dispute")
			}
			probe := *d
			return probe.Withdraw(now, reason)
		},
		func(d *models.Dispute) {
			_ = d.Withdraw(now, reason)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.EventDisputeWithdrawn, claimantID, dispute.ID.String(), reason)
	if s.metrics != nil {
		s.metrics.ObserveClosed(string(models.StatusWithdrawn))
	}
	return dispute, nil
}

// Advance moves a dispute one step along the review chain. Officer-only.
func (s *Service) Advance(ctx context.Context, disputeID id.DisputeID, note string) (*models.Dispute, error) {
	ctx, span := s.tracer.Start(ctx, "dispute.advance")
	defer span.End()
	span.SetAttributes(attribute.String("dispute.id", disputeID.String()))

	now := requestcontext.Now(ctx)
	dispute, err := s.store.Execute(ctx, disputeID,
		func(d *models.Dispute) error {
			probe := *d
			return probe.Advance(now, note)
		},
		func(d *models.Dispute) {
			_ = d.Advance(now, note)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	span.SetAttributes(attribute.String("dispute.status", string(dispute.Status)))

	s.emit(ctx, audit.EventDisputeAdvanced, requestcontext.UserID(ctx), dispute.ID.String(), string(dispute.Status))
	s.notify(ctx, dispute.ClaimantID, "dispute", "Dispute status updated",
		fmt.Sprintf("Your dispute %q moved to %s", dispute.Title, dispute.Status),
		"/disputes/"+dispute.ID.String())
	return dispute, nil
}

// ResolveInput carries the reviewer's disposition.
type ResolveInput struct {
	Outcome        models.Status
	Decision       string
	Notes          string
	ActionRequired string
}

// Resolve closes a dispute with a decision. Officer-only; the claimant and
// the property owner are both notified.
func (s *Service) Resolve(ctx context.Context, disputeID id.DisputeID, input ResolveInput) (*models.Dispute, error) {
	ctx, span := s.tracer.Start(ctx, "dispute.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("dispute.id", disputeID.String()))

	now := requestcontext.Now(ctx)
	dispute, err := s.store.Execute(ctx, disputeID,
		func(d *models.Dispute) error {
			probe := *d
			return probe.Resolve(now, input.Outcome, input.Decision, input.Notes, input.ActionRequired)
		},
		func(d *models.Dispute) {
			_ = d.Resolve(now, input.Outcome, input.Decision, input.Notes, input.ActionRequired)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.EventDisputeResolved, requestcontext.UserID(ctx), dispute.ID.String(), input.Decision)
	s.notify(ctx, dispute.ClaimantID, "dispute", "Dispute "+string(dispute.Status),
		fmt.Sprintf("Your dispute %q was closed: %s", dispute.Title, input.Decision),
		"/disputes/"+dispute.ID.String())
	if property, err := s.properties.Find(ctx, dispute.PropertyID); err == nil &&
		property.OwnerID != dispute.ClaimantID {
		s.notify(ctx, property.OwnerID, "dispute", "Dispute against your property closed",
			fmt.Sprintf("The dispute %q on plot %s was closed: %s",
				dispute.Title, property.PlotNumber, input.Decision),
			"/disputes/"+dispute.ID.String())
	}
	if s.metrics != nil {
		s.metrics.ObserveClosed(string(dispute.Status))
	}
	return dispute, nil
}

// Get returns one dispute; visible to the claimant, the disputed property's
// owner, officers, and admins.
func (s *Service) Get(ctx context.Context, disputeID id.DisputeID) (*models.Dispute, error) {
	dispute, err := s.store.FindByID(ctx, disputeID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := s.authorizeRead(ctx, dispute); err != nil {
		return nil, err
	}
	return dispute, nil
}

// ListByProperty returns a property's disputes; visible to its owner and
// officers.
func (s *Service) ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Dispute, error) {
	property, err := s.properties.Find(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	role := requestcontext.Role(ctx)
	if role != "officer" && role != "admin" && requestcontext.UserID(ctx) != property.OwnerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not the owner of this property")
	}
	disputes, err := s.store.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return disputes, nil
}

// ListMine returns the requesting claimant's disputes.
func (s *Service) ListMine(ctx context.Context, claimantID id.UserID) ([]*models.Dispute, error) {
	disputes, err := s.store.ListByClaimant(ctx, claimantID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return disputes, nil
}

// ListAll returns every dispute; officer dashboards use this.
func (s *Service) ListAll(ctx context.Context) ([]*models.Dispute, error) {
	disputes, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return disputes, nil
}

// HasActive reports whether a property carries any open dispute. The
// property service uses this to populate its has_active_dispute flag.
func (s *Service) HasActive(ctx context.Context, propertyID id.PropertyID) (bool, error) {
	count, err := s.store.CountActiveByProperty(ctx, propertyID)
	if err != nil {
		return false, wrapStoreErr(err)
	}
	return count > 0, nil
}

func (s *Service) authorizeRead(ctx context.Context, d *models.Dispute) error {
	role := requestcontext.Role(ctx)
	if role == "officer" || role == "admin" {
		return nil
	}
	userID := requestcontext.UserID(ctx)
	if userID == d.ClaimantID {
		return nil
	}
	if property, err := s.properties.Find(ctx, d.PropertyID); err == nil &&
		property.OwnerID == userID {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "not a party to this dispute")
}
