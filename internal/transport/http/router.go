package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "landreg/internal/admin/handler"
	disputehandler "landreg/internal/dispute/handler"
	documenthandler "landreg/internal/document/handler"
	notificationhandler "landreg/internal/notification/handler"
	paymenthandler "landreg/internal/payment/handler"
	"landreg/internal/platform/config"
	"landreg/internal/platform/middleware"
	"landreg/internal/platform/ratelimit"
	propertyhandler "landreg/internal/property/handler"
	userhandler "landreg/internal/user/handler"
)

// Throttle for the unauthenticated account endpoints, per client IP.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Deps collects everything the router mounts. main builds it once and the
// router stays a pure wiring function.
type Deps struct {
	Logger     *slog.Logger
	Validator  middleware.JWTValidator
	AdminToken string
	Timeouts   config.TimeoutConfig

	Users         *userhandler.Handler
	Properties    *propertyhandler.Handler
	Documents     *documenthandler.Handler
	Payments      *paymenthandler.Handler
	Disputes      *disputehandler.Handler
	Notifications *notificationhandler.Handler
	Admin         *adminhandler.Handler
}

// NewRouter mounts every endpoint behind its route-class middleware stack.
// Timeout tiers: short for health, default for the JSON API, upload for
// document routes, query for reporting.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))

	auth := middleware.RequireAuth(d.Validator, d.Logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.Timeouts.Short))
		r.Get("/healthz", handleHealthz)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Account creation and login are the only unauthenticated JSON routes, so
	// they get an IP throttle on top of the default stack.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.Timeouts.Default))
		r.Use(ratelimit.Middleware(ratelimit.NewLimiter(loginRateLimit, loginRateWindow), d.Logger))
		r.Use(middleware.ContentTypeJSON)
		d.Users.RegisterPublic(r)
	})

	// Citizen-facing API.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.Timeouts.Default))
		r.Use(auth)
		r.Use(middleware.ContentTypeJSON)
		d.Users.Register(r)
		d.Properties.Register(r)
		d.Payments.Register(r)
		d.Disputes.Register(r)
		d.Notifications.Register(r)
	})

	// Document routes take multipart bodies and stream file contents, so they
	// run on the upload tier and skip the JSON content-type gate.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.Timeouts.Upload))
		r.Use(auth)
		d.Documents.Register(r)
	})

	// Officer review surface. RequireRole lets admins through as well.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.Timeouts.Default))
		r.Use(auth, middleware.RequireRole(middleware.RoleOfficer, d.Logger))
		r.Use(middleware.ContentTypeJSON)
		d.Properties.RegisterOfficer(r)
		d.Documents.RegisterOfficer(r)
		d.Payments.RegisterOfficer(r)
		d.Disputes.RegisterOfficer(r)
	})

	// User administration needs an actor identity for the audit trail, so it
	// accepts JWT admins only.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.Timeouts.Query))
		r.Use(auth, middleware.RequireRole(middleware.RoleAdmin, d.Logger))
		r.Use(middleware.ContentTypeJSON)
		d.Users.RegisterAdmin(r)
	})

	// Logs and reports serve dashboards and cron as well as humans: a static
	// admin token or an admin JWT both open the door.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.Timeouts.Query))
		r.Use(adminAccess(d.AdminToken, d.Validator, d.Logger))
		d.Admin.Register(r)
	})

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// adminAccess admits a request carrying the static admin token, and otherwise
// falls back to requiring an authenticated admin user.
func adminAccess(token string, validator middleware.JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	requireJWT := middleware.RequireAuth(validator, logger)
	requireRole := middleware.RequireRole(middleware.RoleAdmin, logger)
	requireToken := middleware.RequireAdminToken(token, logger)
	return func(next http.Handler) http.Handler {
		viaJWT := requireJWT(requireRole(next))
		viaToken := requireToken(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("X-Admin-Token") != "" {
				viaToken.ServeHTTP(w, r)
				return
			}
			viaJWT.ServeHTTP(w, r)
		})
	}
}
