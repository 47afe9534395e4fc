package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"landreg/internal/document/blob"
	"landreg/internal/document/service"
	documentstore "landreg/internal/document/store"
	propertymodels "landreg/internal/property/models"
	propertyservice "landreg/internal/property/service"
	propertystore "landreg/internal/property/store"
	id "landreg/pkg/domain"
	"landreg/pkg/requestcontext"
)

type harness struct {
	router   http.Handler
	owner    id.UserID
	property *propertymodels.Property
}

// identity injects an authenticated user directly; the full auth middleware
// chain is covered by the property handler tests.
func identity(userID id.UserID, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithUserID(r.Context(), userID)
			ctx = requestcontext.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newHarness(t *testing.T, userID id.UserID, role string) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	properties := propertyservice.New(propertystore.NewInMemoryStore(),
		propertyservice.WithLogger(logger))
	docs := service.New(documentstore.NewInMemoryStore(), blob.NewMemoryStore(),
		properties, service.WithLogger(logger))

	owner := userID
	ctx := requestcontext.WithUserID(context.Background(), owner)
	property, err := properties.Register(ctx, owner, propertyservice.RegisterInput{
		PlotNumber:   "AA-20-001",
		PropertyType: propertymodels.TypeCommercial,
		AreaSqm:      420,
		Location:     propertymodels.Location{SubCity: "Kirkos", Kebele: "01"},
	})
	require.NoError(t, err)

	h := New(docs, logger)
	r := chi.NewRouter()
	r.Use(identity(userID, role))
	h.Register(r)
	h.RegisterOfficer(r)
	return &harness{router: r, owner: owner, property: property}
}

func multipartUpload(t *testing.T, docType, fileName, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("doc_type", docType))

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadAndFetch(t *testing.T) {
	owner := id.NewUserID()
	h := newHarness(t, owner, "citizen")

	payload := []byte("%PDF-1.7 deed")
	body, contentType := multipartUpload(t, "title_deed", "deed.pdf", "application/pdf", payload)

	req := httptest.NewRequest(http.MethodPost, "/properties/"+h.property.ID.String()+"/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var doc DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	require.Equal(t, "title_deed", doc.DocType)
	require.Equal(t, "pending", doc.Status)
	require.Equal(t, int64(len(payload)), doc.SizeBytes)

	// Listing shows the slot.
	req = httptest.NewRequest(http.MethodGet, "/properties/"+h.property.ID.String()+"/documents", nil)
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Equal(t, 1, list.Total)

	// Download round-trips the bytes.
	req = httptest.NewRequest(http.MethodGet, "/documents/"+doc.ID+"/download", nil)
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Equal(t, payload, rec.Body.Bytes())
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	owner := id.NewUserID()
	h := newHarness(t, owner, "citizen")

	body, contentType := multipartUpload(t, "title_deed", "deed.txt", "text/plain", []byte("just text"))
	req := httptest.NewRequest(http.MethodPost, "/properties/"+h.property.ID.String()+"/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errBody map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errBody))
	require.Contains(t, errBody["error_description"], "unsupported file type")
}

func TestUploadRequiresFilePart(t *testing.T) {
	owner := id.NewUserID()
	h := newHarness(t, owner, "citizen")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("doc_type", "title_deed"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/properties/"+h.property.ID.String()+"/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
