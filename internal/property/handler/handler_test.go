package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"landreg/internal/platform/middleware"
	"landreg/internal/platform/token"
	"landreg/internal/property/service"
	"landreg/internal/property/store"
	id "landreg/pkg/domain"
)

const signingKey = "test-signing-key"

type testHarness struct {
	router  http.Handler
	tokens  *token.Manager
	service *service.Service
	store   *store.InMemoryStore
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	st := store.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(st, service.WithLogger(logger))
	tokens := token.NewManager(signingKey)

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, logger))
		h.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleOfficer, logger))
			h.RegisterOfficer(r)
		})
	})
	return &testHarness{router: r, tokens: tokens, service: svc, store: st}
}

func (h *testHarness) bearer(t *testing.T, userID id.UserID, role string) string {
	t.Helper()
	tok, err := h.tokens.Issue(userID, role, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok
}

func (h *testHarness) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func registerPayload(plot string) map[string]any {
	return map[string]any{
		"plot_number":   plot,
		"property_type": "residential",
		"area_sqm":      250.5,
		"location": map[string]string{
			"sub_city": "Bole",
			"kebele":   "03",
			"street":   "Cameroon St",
		},
	}
}

func TestRegisterRequiresAuth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/properties", "", registerPayload("AA-01-001"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterProperty(t *testing.T) {
	h := newHarness(t)
	owner := id.NewUserID()
	auth := h.bearer(t, owner, middleware.RoleCitizen)

	rec := h.do(t, http.MethodPost, "/properties", auth, registerPayload("AA-01-002"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp PropertyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "pending", resp.Status)
	require.Equal(t, owner.String(), resp.OwnerID)
	require.Equal(t, int64(1), resp.Version)
	require.False(t, resp.DocumentsValidated)
	require.False(t, resp.PaymentCompleted)
	require.Len(t, resp.Timeline, 1)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	auth := h.bearer(t, id.NewUserID(), middleware.RoleCitizen)

	cases := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing plot", func(p map[string]any) { p["plot_number"] = "  " }},
		{"bad type", func(p map[string]any) { p["property_type"] = "castle" }},
		{"zero area", func(p map[string]any) { p["area_sqm"] = 0 }},
		{"missing kebele", func(p map[string]any) {
			p["location"] = map[string]string{"sub_city": "Bole"}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := registerPayload("AA-01-003")
			tc.mutate(payload)
			rec := h.do(t, http.MethodPost, "/properties", auth, payload)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.NotEmpty(t, body["error_description"])
		})
	}
}

func TestDuplicatePlotNumberConflicts(t *testing.T) {
	h := newHarness(t)
	auth := h.bearer(t, id.NewUserID(), middleware.RoleCitizen)

	rec := h.do(t, http.MethodPost, "/properties", auth, registerPayload("AA-01-004"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(t, http.MethodPost, "/properties", auth, registerPayload("aa-01-004"))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetVisibility(t *testing.T) {
	h := newHarness(t)
	owner := id.NewUserID()
	ownerAuth := h.bearer(t, owner, middleware.RoleCitizen)

	rec := h.do(t, http.MethodPost, "/properties", ownerAuth, registerPayload("AA-01-005"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created PropertyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	// Owner sees it.
	rec = h.do(t, http.MethodGet, "/properties/"+created.ID, ownerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Another citizen does not.
	otherAuth := h.bearer(t, id.NewUserID(), middleware.RoleCitizen)
	rec = h.do(t, http.MethodGet, "/properties/"+created.ID, otherAuth, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// An officer does.
	officerAuth := h.bearer(t, id.NewUserID(), middleware.RoleOfficer)
	rec = h.do(t, http.MethodGet, "/properties/"+created.ID, officerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListScoping(t *testing.T) {
	h := newHarness(t)
	alice := id.NewUserID()
	bob := id.NewUserID()
	aliceAuth := h.bearer(t, alice, middleware.RoleCitizen)
	bobAuth := h.bearer(t, bob, middleware.RoleCitizen)

	require.Equal(t, http.StatusCreated,
		h.do(t, http.MethodPost, "/properties", aliceAuth, registerPayload("AA-02-001")).Code)
	require.Equal(t, http.StatusCreated,
		h.do(t, http.MethodPost, "/properties", bobAuth, registerPayload("AA-02-002")).Code)

	rec := h.do(t, http.MethodGet, "/properties", aliceAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&mine))
	require.Equal(t, 1, mine.Total)
	require.Equal(t, alice.String(), mine.Properties[0].OwnerID)

	officerAuth := h.bearer(t, id.NewUserID(), middleware.RoleOfficer)
	rec = h.do(t, http.MethodGet, "/properties", officerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	require.Equal(t, 2, all.Total)
}

func TestUpdateAndDeleteGates(t *testing.T) {
	h := newHarness(t)
	owner := id.NewUserID()
	ownerAuth := h.bearer(t, owner, middleware.RoleCitizen)

	rec := h.do(t, http.MethodPost, "/properties", ownerAuth, registerPayload("AA-03-001"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created PropertyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	// Pending applications are editable by the owner.
	rec = h.do(t, http.MethodPatch, "/properties/"+created.ID, ownerAuth,
		map[string]any{"area_sqm": 300.0})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated PropertyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	require.Equal(t, 300.0, updated.AreaSqm)
	require.Equal(t, int64(2), updated.Version)

	// Other citizens cannot touch it.
	otherAuth := h.bearer(t, id.NewUserID(), middleware.RoleCitizen)
	rec = h.do(t, http.MethodPatch, "/properties/"+created.ID, otherAuth,
		map[string]any{"area_sqm": 10.0})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodDelete, "/properties/"+created.ID, otherAuth, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodDelete, "/properties/"+created.ID, ownerAuth, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/properties/"+created.ID, ownerAuth, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOfficerRoutesRequireRole(t *testing.T) {
	h := newHarness(t)
	citizenAuth := h.bearer(t, id.NewUserID(), middleware.RoleCitizen)

	rec := h.do(t, http.MethodPost, "/properties/"+id.NewPropertyID().String()+"/review/approve",
		citizenAuth, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOfficerRejectAndResubmit(t *testing.T) {
	h := newHarness(t)
	owner := id.NewUserID()
	ownerAuth := h.bearer(t, owner, middleware.RoleCitizen)
	officerAuth := h.bearer(t, id.NewUserID(), middleware.RoleOfficer)

	rec := h.do(t, http.MethodPost, "/properties", ownerAuth, registerPayload("AA-04-001"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created PropertyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	// Reason is mandatory.
	rec = h.do(t, http.MethodPost, "/properties/"+created.ID+"/review/reject", officerAuth,
		map[string]string{"reason": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/properties/"+created.ID+"/review/reject", officerAuth,
		map[string]string{"reason": "plot overlaps an existing parcel"})
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected PropertyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rejected))
	require.Equal(t, "rejected", rejected.Status)

	// Owner corrects and resubmits; only the owner may resubmit.
	rec = h.do(t, http.MethodPost, "/properties/"+created.ID+"/resubmit",
		h.bearer(t, id.NewUserID(), middleware.RoleCitizen), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPost, "/properties/"+created.ID+"/resubmit", ownerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resubmitted PropertyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resubmitted))
	require.Equal(t, "pending", resubmitted.Status)
}

func TestApproveRequiresSettledPayment(t *testing.T) {
	h := newHarness(t)
	owner := id.NewUserID()
	ownerAuth := h.bearer(t, owner, middleware.RoleCitizen)
	officerAuth := h.bearer(t, id.NewUserID(), middleware.RoleOfficer)

	rec := h.do(t, http.MethodPost, "/properties", ownerAuth, registerPayload("AA-05-001"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created PropertyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	// A freshly registered application cannot be approved outright.
	rec = h.do(t, http.MethodPost, "/properties/"+created.ID+"/review/approve", officerAuth, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransferRequiresApproval(t *testing.T) {
	h := newHarness(t)
	owner := id.NewUserID()
	ownerAuth := h.bearer(t, owner, middleware.RoleCitizen)
	officerAuth := h.bearer(t, id.NewUserID(), middleware.RoleOfficer)

	rec := h.do(t, http.MethodPost, "/properties", ownerAuth, registerPayload("AA-06-001"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created PropertyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = h.do(t, http.MethodPost, "/properties/"+created.ID+"/transfer", officerAuth,
		map[string]string{"new_owner_id": id.NewUserID().String()})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPost, "/properties/"+created.ID+"/transfer", officerAuth,
		map[string]string{"new_owner_id": "not-a-uuid"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
