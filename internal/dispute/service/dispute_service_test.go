package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"landreg/internal/dispute/models"
	disputestore "landreg/internal/dispute/store"
	propertymodels "landreg/internal/property/models"
	propertyservice "landreg/internal/property/service"
	propertystore "landreg/internal/property/store"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	"landreg/pkg/requestcontext"
)

type fixture struct {
	disputes   *Service
	properties *propertyservice.Service
	owner      id.UserID
	claimant   id.UserID
	property   *propertymodels.Property
	ownerCtx   context.Context
	claimCtx   context.Context
	officerCtx context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	properties := propertyservice.New(propertystore.NewInMemoryStore(),
		propertyservice.WithLogger(logger))
	disputes := New(disputestore.NewInMemoryStore(), properties, WithLogger(logger))
	properties.SetDisputeChecker(disputes)

	owner := id.NewUserID()
	claimant := id.NewUserID()
	ownerCtx := requestcontext.WithUserID(context.Background(), owner)
	claimCtx := requestcontext.WithUserID(context.Background(), claimant)
	officerCtx := requestcontext.WithRole(
		requestcontext.WithUserID(context.Background(), id.NewUserID()), "officer")

	property, err := properties.Register(ownerCtx, owner, propertyservice.RegisterInput{
		PlotNumber:   "AA-31-005",
		PropertyType: propertymodels.TypeCommercial,
		AreaSqm:      420,
		Location:     propertymodels.Location{SubCity: "Bole", Kebele: "03"},
	})
	require.NoError(t, err)

	return &fixture{
		disputes:   disputes,
		properties: properties,
		owner:      owner,
		claimant:   claimant,
		property:   property,
		ownerCtx:   ownerCtx,
		claimCtx:   claimCtx,
		officerCtx: officerCtx,
	}
}

func (f *fixture) submit(t *testing.T) *models.Dispute {
	t.Helper()
	dispute, err := f.disputes.Submit(f.claimCtx, f.claimant, SubmitInput{
		PropertyID:  f.property.ID,
		Title:       "Overlapping boundary claim",
		Description: "The plot extends into parcel AA-31-006.",
		Type:        models.TypeBoundary,
	})
	require.NoError(t, err)
	return dispute
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name  string
		input SubmitInput
	}{
		{"missing title", SubmitInput{PropertyID: f.property.ID,
			Description: "d", Type: models.TypeBoundary}},
		{"missing description", SubmitInput{PropertyID: f.property.ID,
			Title: "t", Type: models.TypeBoundary}},
		{"unknown type", SubmitInput{PropertyID: f.property.ID,
			Title: "t", Description: "d", Type: "squabble"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.disputes.Submit(f.claimCtx, f.claimant, tc.input)
			require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	_, err := f.disputes.Submit(f.claimCtx, f.claimant, SubmitInput{
		PropertyID:  id.NewPropertyID(),
		Title:       "t",
		Description: "d",
		Type:        models.TypeBoundary,
	})
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound),
		"dispute against unknown property must fail")
}

func TestSubmitDefaultsPriorityAndFlagsProperty(t *testing.T) {
	f := newFixture(t)
	dispute := f.submit(t)

	require.Equal(t, models.StatusSubmitted, dispute.Status)
	require.Equal(t, models.PriorityMedium, dispute.Priority)
	require.Len(t, dispute.Timeline, 1)

	p, err := f.properties.Get(f.ownerCtx, f.property.ID)
	require.NoError(t, err)
	require.True(t, p.HasActiveDispute)
}

func TestWithdrawRequiresReason(t *testing.T) {
	f := newFixture(t)
	dispute := f.submit(t)

	_, err := f.disputes.Withdraw(f.claimCtx, f.claimant, dispute.ID, "  ")
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	withdrawn, err := f.disputes.Withdraw(f.claimCtx, f.claimant, dispute.ID, "duplicate filing")
	require.NoError(t, err)
	require.Equal(t, models.StatusWithdrawn, withdrawn.Status)
	require.Equal(t, "duplicate filing", withdrawn.Timeline[len(withdrawn.Timeline)-1].Description)

	// A withdrawn dispute stays withdrawn.
	_, err = f.disputes.Withdraw(f.claimCtx, f.claimant, dispute.ID, "changed my mind again")
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	p, err := f.properties.Get(f.ownerCtx, f.property.ID)
	require.NoError(t, err)
	require.False(t, p.HasActiveDispute, "withdrawn dispute no longer flags the property")
}

func TestWithdrawOnlyByClaimant(t *testing.T) {
	f := newFixture(t)
	dispute := f.submit(t)

	_, err := f.disputes.Withdraw(f.ownerCtx, f.owner, dispute.ID, "go away")
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestWithdrawOnlyInEarlyStatus(t *testing.T) {
	f := newFixture(t)
	dispute := f.submit(t)

	// submitted → under_review → investigation: still withdrawable.
	for _, want := range []models.Status{models.StatusUnderReview, models.StatusInvestigation} {
		advanced, err := f.disputes.Advance(f.officerCtx, dispute.ID, "")
		require.NoError(t, err)
		require.Equal(t, want, advanced.Status)
		require.True(t, advanced.Status.Withdrawable())
	}

	// Mediation closes the window.
	advanced, err := f.disputes.Advance(f.officerCtx, dispute.ID, "parties summoned")
	require.NoError(t, err)
	require.Equal(t, models.StatusMediation, advanced.Status)

	_, err = f.disputes.Withdraw(f.claimCtx, f.claimant, dispute.ID, "never mind")
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestAdvanceStopsAtMediation(t *testing.T) {
	f := newFixture(t)
	dispute := f.submit(t)

	for range 3 {
		_, err := f.disputes.Advance(f.officerCtx, dispute.ID, "")
		require.NoError(t, err)
	}
	_, err := f.disputes.Advance(f.officerCtx, dispute.ID, "")
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation),
		"mediation must end in resolve or reject, not advance")
}

func TestResolveRecordsDisposition(t *testing.T) {
	f := newFixture(t)
	dispute := f.submit(t)

	_, err := f.disputes.Resolve(f.officerCtx, dispute.ID, ResolveInput{
		Outcome: models.StatusResolved,
	})
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput),
		"resolution requires a decision")

	resolved, err := f.disputes.Resolve(f.officerCtx, dispute.ID, ResolveInput{
		Outcome:        models.StatusResolved,
		Decision:       "boundary remains as registered",
		Notes:          "survey of 2025 upheld",
		ActionRequired: "none",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.Resolution)
	require.Equal(t, "boundary remains as registered", resolved.Resolution.Decision)
	require.False(t, resolved.Resolution.ResolvedAt.IsZero())

	// Closed is closed.
	_, err = f.disputes.Resolve(f.officerCtx, dispute.ID, ResolveInput{
		Outcome:  models.StatusRejected,
		Decision: "second opinion",
	})
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	p, err := f.properties.Get(f.ownerCtx, f.property.ID)
	require.NoError(t, err)
	require.False(t, p.HasActiveDispute)
}

func TestReadVisibility(t *testing.T) {
	f := newFixture(t)
	dispute := f.submit(t)

	// Claimant, property owner, and officer all see the dispute.
	for _, ctx := range []context.Context{f.claimCtx, f.ownerCtx, f.officerCtx} {
		got, err := f.disputes.Get(ctx, dispute.ID)
		require.NoError(t, err)
		require.Equal(t, dispute.ID, got.ID)
	}

	stranger := requestcontext.WithUserID(context.Background(), id.NewUserID())
	_, err := f.disputes.Get(stranger, dispute.ID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	// Property-scoped listing is owner/officer only.
	_, err = f.disputes.ListByProperty(stranger, f.property.ID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	mine, err := f.disputes.ListMine(f.claimCtx, f.claimant)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}
