package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/knowassist/knowassist/internal/extract"
	"github.com/knowassist/knowassist/internal/index"
	"github.com/knowassist/knowassist/internal/ingest"
)

// Ingestor is the ingestion capability the upload endpoints need.
type Ingestor interface {
	Ingest(ctx context.Context, filename string, r io.Reader) (index.Document, error)
	IngestBatch(ctx context.Context, files []ingest.File) []ingest.ItemResult
}

// UploadHandler serves the document upload endpoints.
type UploadHandler struct {
	ingestor Ingestor
	maxBytes int64
	logger   *slog.Logger
}

// NewUploadHandler creates an upload handler. maxBytes bounds single file
// size; the whole request body is capped a bit above it for multipart
// overhead.
func NewUploadHandler(ingestor Ingestor, maxBytes int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{ingestor: ingestor, maxBytes: maxBytes, logger: logger}
}

// RegisterRoutes registers upload routes on the given mux.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/upload", h.uploadSingle)
	mux.HandleFunc("POST /api/v1/upload/batch", h.uploadBatch)
}

// multipartOverhead leaves room for boundaries and headers beyond the
// file payloads themselves.
const multipartOverhead = 1 << 20

// UploadResponse confirms a successful single upload.
type UploadResponse struct {
	Message  string         `json:"message"`
	Document index.Document `json:"document"`
}

func (h *UploadHandler) uploadSingle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large",
				fmt.Sprintf("upload exceeds %d byte limit", h.maxBytes), h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "multipart form field 'file' is required", h.logger)
		return
	}
	defer file.Close()

	doc, err := h.ingestor.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		h.writeIngestError(w, header.Filename, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Message:  "document indexed",
		Document: doc,
	}, h.logger)
}

// BatchItemResponse is the outcome for one file of a batch upload.
type BatchItemResponse struct {
	Filename string          `json:"filename"`
	Status   string          `json:"status"`
	Document *index.Document `json:"document,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// BatchUploadResponse summarizes a batch upload.
type BatchUploadResponse struct {
	Results   []BatchItemResponse `json:"results"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

func (h *UploadHandler) uploadBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10*h.maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "batch exceeds size limit", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "multipart form expected", h.logger)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "multipart form field 'files' is required", h.logger)
		return
	}

	files := make([]ingest.File, 0, len(headers))
	opened := make([]io.Closer, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request",
				fmt.Sprintf("cannot read uploaded file %q", hdr.Filename), h.logger)
			return
		}
		opened = append(opened, f)
		files = append(files, ingest.File{Name: hdr.Filename, Reader: f})
	}

	results := h.ingestor.IngestBatch(r.Context(), files)

	resp := BatchUploadResponse{Results: make([]BatchItemResponse, len(results))}
	for i, res := range results {
		item := BatchItemResponse{Filename: res.Filename}
		if res.Err != nil {
			item.Status = "error"
			item.Error = res.Err.Error()
			resp.Failed++
		} else {
			item.Status = "success"
			doc := res.Document
			item.Document = &doc
			resp.Succeeded++
		}
		resp.Results[i] = item
	}

	// The batch itself succeeds as long as it was well-formed; per-file
	// failures are reported inline.
	writeJSON(w, http.StatusOK, resp, h.logger)
}

func (h *UploadHandler) writeIngestError(w http.ResponseWriter, filename string, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFileType):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_file_type", err.Error(), h.logger)
	case errors.Is(err, ingest.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), h.logger)
	case errors.Is(err, ingest.ErrEmptyFile), errors.Is(err, extract.ErrNoText):
		writeError(w, http.StatusUnprocessableEntity, "unprocessable_document", err.Error(), h.logger)
	default:
		h.logger.Error("ingestion failed", "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "ingestion_failed", "failed to index document", h.logger)
	}
}
