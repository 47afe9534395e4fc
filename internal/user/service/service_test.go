package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"landreg/internal/platform/token"
	"landreg/internal/user/models"
	"landreg/internal/user/store"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/requestcontext"
)

func newService() *Service {
	return New(store.NewInMemoryStore(), token.NewManager("test-signing-key"),
		WithBcryptCost(bcrypt.MinCost))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		FullName: "Abeba Tesfaye",
		Email:    "Abeba@Example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleCitizen, user.Role)
	require.Equal(t, "abeba@example.com", user.Email, "email normalized")
	require.NotEqual(t, "correct horse battery", user.PasswordHash)

	// Login is case-insensitive on email.
	got, tok, err := svc.Login(ctx, "ABEBA@example.com", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, tok)

	claims, err := token.NewManager("test-signing-key").ValidateToken(tok)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, "citizen", claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"short password", RegisterInput{FullName: "A", Email: "a@b.co", Password: "short"}},
		{"bad email", RegisterInput{FullName: "A", Email: "not-an-email", Password: "long enough pw"}},
		{"empty name", RegisterInput{FullName: "  ", Email: "a@b.co", Password: "long enough pw"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestDuplicateEmailConflicts(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	input := RegisterInput{FullName: "A", Email: "dup@example.com", Password: "long enough pw"}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	input.Email = "DUP@example.com"
	_, err = svc.Register(ctx, input)
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		FullName: "A", Email: "known@example.com", Password: "long enough pw"})
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(ctx, "unknown@example.com", "whatever pw")
	_, _, errWrongPw := svc.Login(ctx, "known@example.com", "wrong password")
	require.True(t, dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))
	require.True(t, dErrors.HasCode(errWrongPw, dErrors.CodeUnauthorized))
	require.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

type capturingAuditor struct {
	events []audit.Event
}

func (a *capturingAuditor) Emit(_ context.Context, e audit.Event) error {
	a.events = append(a.events, e)
	return nil
}

func TestFailedLoginAuditCarriesDevice(t *testing.T) {
	auditor := &capturingAuditor{}
	svc := New(store.NewInMemoryStore(), token.NewManager("test-signing-key"),
		WithBcryptCost(bcrypt.MinCost), WithAuditPublisher(auditor))
	ctx := requestcontext.WithDevice(context.Background(), "Chrome on Mac OS X")

	_, err := svc.Register(ctx, RegisterInput{
		FullName: "A", Email: "known@example.com", Password: "long enough pw"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "known@example.com", "wrong password")
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	last := auditor.events[len(auditor.events)-1]
	require.Equal(t, string(audit.EventLoginFailed), last.Action)
	require.Contains(t, last.Reason, "Chrome on Mac OS X")

	// Without request metadata the reason stays bare.
	_, _, err = svc.Login(ctx, "unknown@example.com", "whatever pw")
	require.Error(t, err)
	_, _, err = svc.Login(context.Background(), "known@example.com", "wrong password")
	require.Error(t, err)
	require.Equal(t, "wrong password", auditor.events[len(auditor.events)-1].Reason)
}

func TestGetVisibility(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		FullName: "A", Email: "a@example.com", Password: "long enough pw"})
	require.NoError(t, err)

	selfCtx := requestcontext.WithUserID(ctx, user.ID)
	got, err := svc.Get(selfCtx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)

	otherCtx := requestcontext.WithUserID(ctx, id.NewUserID())
	_, err = svc.Get(otherCtx, user.ID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	adminCtx := requestcontext.WithRole(otherCtx, "admin")
	_, err = svc.Get(adminCtx, user.ID)
	require.NoError(t, err)
}

func TestSetRole(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		FullName: "A", Email: "officer@example.com", Password: "long enough pw"})
	require.NoError(t, err)

	adminID := id.NewUserID()
	adminCtx := requestcontext.WithRole(requestcontext.WithUserID(ctx, adminID), "admin")

	promoted, err := svc.SetRole(adminCtx, user.ID, models.RoleOfficer)
	require.NoError(t, err)
	require.Equal(t, models.RoleOfficer, promoted.Role)

	_, err = svc.SetRole(adminCtx, user.ID, "superuser")
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	// An admin cannot demote themselves.
	selfCtx := requestcontext.WithRole(requestcontext.WithUserID(ctx, user.ID), "admin")
	_, err = svc.SetRole(selfCtx, user.ID, models.RoleCitizen)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
