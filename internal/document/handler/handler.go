package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"landreg/internal/document/models"
	"landreg/internal/document/service"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	"landreg/pkg/platform/httputil"
	"landreg/pkg/requestcontext"
)

// maxRequestBytes caps the multipart request. Larger than the file limit so
// an oversized file reaches validation and gets the specific error instead
// of a connection reset.
const maxRequestBytes = models.MaxFileSize + (1 << 20)

// Service defines the document operations the handler depends on.
type Service interface {
	Upload(ctx context.Context, ownerID id.UserID, input service.UploadInput, file io.Reader) (*models.Document, error)
	Get(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Document, error)
	Download(ctx context.Context, documentID id.DocumentID) (*models.Document, io.ReadCloser, error)
	Verify(ctx context.Context, documentID id.DocumentID, notes string) (*models.Document, error)
	Reject(ctx context.Context, documentID id.DocumentID, notes string) (*models.Document, error)
}

// Handler wires document endpoints to the document service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a document handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts citizen-facing document endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/properties/{id}/documents", h.HandleUpload)
	r.Get("/properties/{id}/documents", h.HandleList)
	r.Get("/documents/{id}", h.HandleGet)
	r.Get("/documents/{id}/download", h.HandleDownload)
}

// RegisterOfficer mounts officer review endpoints.
func (h *Handler) RegisterOfficer(r chi.Router) {
	r.Post("/documents/{id}/verify", h.HandleVerify)
	r.Post("/documents/{id}/reject", h.HandleReject)
}

// HandleUpload handles POST /properties/{id}/documents. Multipart form with
// a doc_type field and a file part.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid property id"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput,
				"file exceeds the %dMB limit", models.MaxFileSize>>20))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed multipart request"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "file part is required"))
		return
	}
	defer file.Close()

	input := service.UploadInput{
		PropertyID:  propertyID,
		Type:        models.Type(r.FormValue("doc_type")),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
	}

	doc, err := h.service.Upload(ctx, userID, input, file)
	if err != nil {
		h.logger.WarnContext(ctx, "document upload failed",
			"request_id", requestID,
			"user_id", userID,
			"property_id", propertyID,
			"doc_type", input.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document uploaded",
		"request_id", requestID,
		"user_id", userID,
		"property_id", propertyID,
		"document_id", doc.ID,
		"doc_type", doc.Type,
		"size_bytes", doc.SizeBytes,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromDocument(doc))
}

// HandleList handles GET /properties/{id}/documents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid property id"))
		return
	}
	docs, err := h.service.ListByProperty(ctx, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocuments(docs))
}

// HandleGet handles GET /documents/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(ctx, documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc))
}

// HandleDownload handles GET /documents/{id}/download, streaming the blob.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, rc, err := h.service.Download(ctx, documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(ctx, "document stream interrupted",
			"document_id", doc.ID, "error", err)
	}
}

// HandleVerify handles POST /documents/{id}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Verify)
}

// HandleReject handles POST /documents/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Reject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request,
	op func(context.Context, id.DocumentID, string) (*models.Document, error)) {

	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	doc, err := op(ctx, documentID, req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "document reviewed",
		"request_id", requestID,
		"officer_id", requestcontext.UserID(ctx),
		"document_id", doc.ID,
		"status", doc.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc))
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (id.DocumentID, bool) {
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return id.DocumentID{}, false
	}
	return documentID, true
}
