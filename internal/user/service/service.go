package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"landreg/internal/user/models"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/platform/sentinel"
	"landreg/pkg/requestcontext"
)

// MinPasswordLength is the floor for new passwords. Length is the one
// password rule that measurably helps; composition rules are not enforced.
const MinPasswordLength = 8

// Store is the persistence port for users.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, userID id.UserID, role models.Role) (*models.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID id.UserID, role string, now time.Time) (string, error)
}

// AuditPublisher records compliance-relevant actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles registration, login, and account administration.
type Service struct {
	store   Store
	tokens  TokenIssuer
	logger  *slog.Logger
	auditor AuditPublisher
	cost    int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(auditor AuditPublisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

// WithBcryptCost lowers the hashing cost in tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func New(store Store, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// RegisterInput carries the self-service signup fields.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// Register creates a citizen account. Officer and admin accounts are
// provisioned by an admin through SetRole.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if len(input.Password) < MinPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	now := requestcontext.Now(ctx)
	user, err := models.NewUser(id.NewUserID(), input.FullName, input.Email,
		string(hash), models.RoleCitizen, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.EventUserCreated, user.ID, user.ID.String(), string(user.Role))
	return user, nil
}

// Login verifies credentials and issues a bearer token. Bad email and bad
// password produce the same error so the endpoint does not leak which
// accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	badCredentials := dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Burn comparable time so the miss is not observable.
			_ = bcrypt.CompareHashAndPassword(
				[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
				[]byte(password))
			s.emit(ctx, audit.EventLoginFailed, id.UserID{}, models.NormalizeEmail(email),
				loginFailureReason(ctx, "unknown email"))
			return nil, "", badCredentials
		}
		return nil, "", wrapStoreErr(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.emit(ctx, audit.EventLoginFailed, user.ID, user.ID.String(),
			loginFailureReason(ctx, "wrong password"))
		return nil, "", badCredentials
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role), requestcontext.Now(ctx))
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "issue token")
	}
	return user, token, nil
}

// loginFailureReason tags the audit reason with the caller's device so the
// trail shows what client the attempt came from.
func loginFailureReason(ctx context.Context, cause string) string {
	if d := requestcontext.Device(ctx); d != "" {
		return cause + " from " + d
	}
	return cause
}

// Get returns one account. Users see themselves; admins see everyone.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	if requestcontext.Role(ctx) != string(models.RoleAdmin) &&
		requestcontext.UserID(ctx) != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot view another user's account")
	}
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return user, nil
}

// List returns every account; admin only (enforced at the route).
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return users, nil
}

// SetRole changes an account's role; admin only (enforced at the route).
// Admins cannot demote themselves, which keeps at least one admin alive.
func (s *Service) SetRole(ctx context.Context, userID id.UserID, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", role)
	}
	if requestcontext.UserID(ctx) == userID && role != models.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "admins cannot demote themselves")
	}
	user, err := s.store.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	s.emit(ctx, audit.EventUserRoleChanged, user.ID, user.ID.String(), string(role))
	return user, nil
}

func wrapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, userID id.UserID, subject, reason string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		UserID:  userID,
		Subject: subject,
		Action:  string(action),
		Reason:  reason,
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
