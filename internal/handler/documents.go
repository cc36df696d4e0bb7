package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/middleware"
	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

const maxBatchDocuments = 100

// DocumentIngester adds documents to the knowledge base.
type DocumentIngester interface {
	Ingest(ctx context.Context, req model.IngestRequest) (*model.IngestResult, error)
	IngestBatch(ctx context.Context, reqs []model.IngestRequest) *model.BatchIngestResult
	ListDocuments(ctx context.Context) ([]model.Document, error)
}

// DocumentHandler handles knowledge-base document endpoints.
type DocumentHandler struct {
	ingester DocumentIngester
	logger   *logger.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(ingester DocumentIngester, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingester: ingester,
		logger:   log,
	}
}

// Ingest handles POST /api/v1/documents/ingest
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req model.IngestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateDocument(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.ingester.Ingest(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to ingest document", zap.String("title", req.Title), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to ingest document")
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// IngestBatch handles POST /api/v1/documents/ingest-batch
func (h *DocumentHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Documents []model.IngestRequest `json:"documents"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "documents array is required")
		return
	}
	if len(body.Documents) > maxBatchDocuments {
		writeError(w, http.StatusBadRequest, "too many documents in batch")
		return
	}

	var valid []model.IngestRequest
	var rejected []string
	for _, doc := range body.Documents {
		if err := validateDocument(doc); err != nil {
			rejected = append(rejected, doc.Title)
			continue
		}
		valid = append(valid, doc)
	}

	res := h.ingester.IngestBatch(r.Context(), valid)
	res.Failed = append(rejected, res.Failed...)

	writeJSON(w, http.StatusOK, res)
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.ingester.ListDocuments(r.Context())
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     len(docs),
	})
}

func validateDocument(req model.IngestRequest) error {
	if err := middleware.ValidateTitle(req.Title); err != nil {
		return err
	}
	return middleware.ValidateDocumentContent(req.Content)
}
