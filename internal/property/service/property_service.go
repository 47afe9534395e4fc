package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"landreg/internal/property/models"
	"landreg/internal/property/workflow"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/requestcontext"
)

// RegisterInput carries the citizen-supplied registration fields.
type RegisterInput struct {
	PlotNumber   string
	PropertyType models.PropertyType
	AreaSqm      float64
	Location     models.Location
}

// Register creates a new pending application for the owner.
func (s *Service) Register(ctx context.Context, ownerID id.UserID, input RegisterInput) (*models.Property, error) {
	now := requestcontext.Now(ctx)
	p, err := models.NewProperty(id.NewPropertyID(), ownerID, input.PlotNumber,
		input.PropertyType, input.AreaSqm, input.Location, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, wrapStoreErr(err, "property not found")
	}

	s.emit(ctx, audit.EventPropertyRegistered, ownerID, p.ID.String(), "")
	s.notify(ctx, ownerID, "property", "Registration received",
		fmt.Sprintf("Application for plot %s was received. Upload the required documents to proceed.", p.PlotNumber),
		"/properties/"+p.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
	return p, nil
}

// Get returns one property. Owners see their own applications; officers and
// admins see everything.
func (s *Service) Get(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	p, err := s.store.FindByID(ctx, propertyID)
	if err != nil {
		return nil, wrapStoreErr(err, "property not found")
	}
	if err := s.authorizeRead(ctx, p); err != nil {
		return nil, err
	}
	s.decorate(ctx, p)
	return p, nil
}

// Find returns one property without read authorization. Sibling services
// that apply their own access rules use this; handlers go through Get.
func (s *Service) Find(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	p, err := s.store.FindByID(ctx, propertyID)
	if err != nil {
		return nil, wrapStoreErr(err, "property not found")
	}
	return p, nil
}

// ListMine returns the requesting owner's applications.
func (s *Service) ListMine(ctx context.Context, ownerID id.UserID) ([]*models.Property, error) {
	properties, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, wrapStoreErr(err, "property not found")
	}
	for _, p := range properties {
		s.decorate(ctx, p)
	}
	return properties, nil
}

// ListAll returns every application; officer dashboards use this.
func (s *Service) ListAll(ctx context.Context) ([]*models.Property, error) {
	properties, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "property not found")
	}
	for _, p := range properties {
		s.decorate(ctx, p)
	}
	return properties, nil
}

// UpdateInput carries owner-editable fields. Zero values leave the field
// untouched.
type UpdateInput struct {
	PlotNumber   string
	PropertyType models.PropertyType
	AreaSqm      float64
	Location     *models.Location
}

// Update edits an application. Allowed only while the status is editable
// (pending, rejected, needs_update) and only by the owner.
func (s *Service) Update(ctx context.Context, ownerID id.UserID, propertyID id.PropertyID, input UpdateInput) (*models.Property, error) {
	p, err := s.store.Execute(ctx, propertyID,
		func(p *models.Property) error {
			if p.OwnerID != ownerID {
				return dErrors.New(dErrors.CodeForbidden, "not the property owner")
			}
			if err := p.CanEdit(); err != nil {
				return err
			}
			if input.PropertyType != "" && !input.PropertyType.IsValid() {
				return dErrors.New(dErrors.CodeBadRequest, "unknown property type")
			}
			if input.AreaSqm < 0 {
				return dErrors.New(dErrors.CodeBadRequest, "area must be positive")
			}
			return nil
		},
		func(p *models.Property) {
			if input.PlotNumber != "" {
				p.PlotNumber = input.PlotNumber
			}
			if input.PropertyType != "" {
				p.PropertyType = input.PropertyType
			}
			if input.AreaSqm > 0 {
				p.AreaSqm = input.AreaSqm
			}
			if input.Location != nil {
				p.Location = *input.Location
			}
			p.AppendTimeline(requestcontext.Now(ctx), "updated", "application details updated by owner")
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err, "property not found")
	}

	s.emit(ctx, audit.EventPropertyUpdated, ownerID, propertyID.String(), "")
	return p, nil
}

// Delete removes an application. Same gate as Update.
func (s *Service) Delete(ctx context.Context, ownerID id.UserID, propertyID id.PropertyID) error {
	// Validate under the store lock first so the editable-status check and
	// the delete cannot interleave with an officer transition.
	_, err := s.store.Execute(ctx, propertyID,
		func(p *models.Property) error {
			if p.OwnerID != ownerID {
				return dErrors.New(dErrors.CodeForbidden, "not the property owner")
			}
			return p.CanDelete()
		},
		func(p *models.Property) {},
	)
	if err != nil {
		return wrapStoreErr(err, "property not found")
	}

	if err := s.store.Delete(ctx, propertyID); err != nil {
		return wrapStoreErr(err, "property not found")
	}
	if s.documents != nil {
		if err := s.documents.PurgeProperty(ctx, propertyID); err != nil {
			s.logger.WarnContext(ctx, "document purge failed", "property_id", propertyID, "error", err)
		}
	}
	s.emit(ctx, audit.EventPropertyDeleted, ownerID, propertyID.String(), "")
	return nil
}

// ApplyWorkflowEvent advances the lifecycle. Document and payment services
// call this with the event they observed; officer decisions arrive through
// the dedicated methods below which delegate here.
func (s *Service) ApplyWorkflowEvent(ctx context.Context, propertyID id.PropertyID,
	event workflow.Event, docs workflow.DocumentReview, description string) (*models.Property, error) {

	ctx, span := s.tracer.Start(ctx, "workflow.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("property.id", propertyID.String()),
		attribute.String("workflow.event", string(event)),
	)

	var next models.Status
	p, err := s.store.Execute(ctx, propertyID,
		func(p *models.Property) error {
			computed, err := workflow.Next(p.Status, event, docs)
			if err != nil {
				return err
			}
			next = computed
			return nil
		},
		func(p *models.Property) {
			if p.Status != next {
				p.Status = next
				p.AppendTimeline(requestcontext.Now(ctx), string(event), description)
			}
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err, "property not found")
	}

	span.SetAttributes(attribute.String("workflow.status", string(p.Status)))
	s.observeTransition(event, p.Status)
	s.notifyTransition(ctx, p)
	return p, nil
}

// StartReview moves a paid application into under_review.
func (s *Service) StartReview(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	p, err := s.ApplyWorkflowEvent(ctx, propertyID, workflow.EventReviewStarted,
		workflow.DocumentReview{}, "application picked up for final review")
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventPropertyReviewStarted, p.OwnerID, propertyID.String(), "")
	return p, nil
}

// Approve is the terminal officer decision. Only valid once payment settled.
func (s *Service) Approve(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	p, err := s.ApplyWorkflowEvent(ctx, propertyID, workflow.EventOfficerApproved,
		workflow.DocumentReview{}, "registration approved; certificate issuable")
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventPropertyApproved, p.OwnerID, propertyID.String(), "")
	if s.metrics != nil {
		s.metrics.IncrementApproved()
	}
	return p, nil
}

// Reject records an officer rejection with a reason. Valid pre-approval.
func (s *Service) Reject(ctx context.Context, propertyID id.PropertyID, reason string) (*models.Property, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rejection reason is required")
	}
	p, err := s.ApplyWorkflowEvent(ctx, propertyID, workflow.EventOfficerRejected,
		workflow.DocumentReview{}, "application rejected: "+reason)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventPropertyRejected, p.OwnerID, propertyID.String(), reason)
	if s.metrics != nil {
		s.metrics.IncrementRejected()
	}
	return p, nil
}

// RequestUpdate asks the owner to correct and resubmit.
func (s *Service) RequestUpdate(ctx context.Context, propertyID id.PropertyID, reason string) (*models.Property, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "update reason is required")
	}
	p, err := s.ApplyWorkflowEvent(ctx, propertyID, workflow.EventUpdateRequested,
		workflow.DocumentReview{}, "changes requested: "+reason)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventPropertyUpdateNeeded, p.OwnerID, propertyID.String(), reason)
	return p, nil
}

// Resubmit returns a corrected application to the pending queue.
func (s *Service) Resubmit(ctx context.Context, ownerID id.UserID, propertyID id.PropertyID) (*models.Property, error) {
	current, err := s.store.FindByID(ctx, propertyID)
	if err != nil {
		return nil, wrapStoreErr(err, "property not found")
	}
	if current.OwnerID != ownerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not the property owner")
	}

	p, err := s.ApplyWorkflowEvent(ctx, propertyID, workflow.EventResubmitted,
		workflow.DocumentReview{}, "application resubmitted by owner")
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventPropertyResubmitted, ownerID, propertyID.String(), "")

	// A corrected application whose required documents are all still on
	// file goes straight back into review; without this the owner would
	// have to re-upload a slot just to trigger submission.
	if s.documents != nil {
		review, err := s.documents.ReviewState(ctx, propertyID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "document review lookup failed",
				"property_id", propertyID, "error", err)
		case review.Complete():
			p, err = s.ApplyWorkflowEvent(ctx, propertyID, workflow.EventDocumentsSubmitted,
				review, "resubmitted with the required documents on file")
			if err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// Transfer flags an approved property as transferred to a new owner.
func (s *Service) Transfer(ctx context.Context, propertyID id.PropertyID, newOwner id.UserID) (*models.Property, error) {
	if newOwner.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "new owner is required")
	}
	p, err := s.store.Execute(ctx, propertyID,
		func(p *models.Property) error {
			if p.Status != models.StatusApproved {
				return dErrors.New(dErrors.CodeInvariantViolation, "only approved properties can be transferred")
			}
			if p.OwnerID == newOwner {
				return dErrors.New(dErrors.CodeBadRequest, "new owner must differ from current owner")
			}
			return nil
		},
		func(p *models.Property) {
			previous := p.OwnerID
			p.OwnerID = newOwner
			p.IsTransferred = true
			p.AppendTimeline(requestcontext.Now(ctx), "transferred",
				fmt.Sprintf("ownership transferred from %s to %s", previous, newOwner))
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err, "property not found")
	}
	s.notify(ctx, newOwner, "property", "Property transferred to you",
		fmt.Sprintf("Plot %s is now registered under your account.", p.PlotNumber),
		"/properties/"+p.ID.String())
	return p, nil
}

func (s *Service) authorizeRead(ctx context.Context, p *models.Property) error {
	role := requestcontext.Role(ctx)
	if role == "officer" || role == "admin" {
		return nil
	}
	if requestcontext.UserID(ctx) != p.OwnerID {
		return dErrors.New(dErrors.CodeForbidden, "not the property owner")
	}
	return nil
}

// decorate fills read-time projections that live outside the property store.
func (s *Service) decorate(ctx context.Context, p *models.Property) {
	if s.disputes == nil {
		return
	}
	active, err := s.disputes.HasActive(ctx, p.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "dispute lookup failed", "property_id", p.ID, "error", err)
		return
	}
	p.HasActiveDispute = active
}

// notifyTransition messages the owner on the statuses they act on or care
// about; intermediate hops stay quiet.
func (s *Service) notifyTransition(ctx context.Context, p *models.Property) {
	link := "/properties/" + p.ID.String()
	switch p.Status {
	case models.StatusDocumentsValidated:
		s.notify(ctx, p.OwnerID, "property", "Documents validated",
			"All required documents were verified. You can now pay the registration fee.", link)
	case models.StatusPaymentCompleted:
		s.notify(ctx, p.OwnerID, "payment", "Payment received",
			fmt.Sprintf("Registration fee for plot %s was received.", p.PlotNumber), link)
	case models.StatusApproved:
		s.notify(ctx, p.OwnerID, "property", "Registration approved",
			fmt.Sprintf("Plot %s is approved. Your certificate is ready for issuance.", p.PlotNumber), link)
	case models.StatusRejected:
		s.notify(ctx, p.OwnerID, "property", "Registration rejected",
			"Your application was rejected. Review the notes and resubmit.", link)
	case models.StatusNeedsUpdate:
		s.notify(ctx, p.OwnerID, "property", "Updates requested",
			"A land officer requested changes to your application.", link)
	}
}
