package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/ingest"
	"github.com/vanshika/muletrace/internal/service"
)

const defaultMaxUploadBytes = 32 << 20

// APIHandlers exposes the analysis endpoints.
type APIHandlers struct {
	logger         *slog.Logger
	service        *service.AnalysisService
	maxUploadBytes int64
}

// NewAPIHandlers constructs an APIHandlers instance. Uploads larger than
// maxUploadBytes are rejected with 413.
func NewAPIHandlers(logger *slog.Logger, svc *service.AnalysisService, maxUploadBytes int64) *APIHandlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &APIHandlers{
		logger:         logger,
		service:        svc,
		maxUploadBytes: maxUploadBytes,
	}
}

// handleAnalyze accepts a CSV either as the multipart field "file" or as the
// raw request body.
func (h *APIHandlers) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	upload, err := openUpload(r)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}
	defer upload.Close()

	report, err := h.service.AnalyzeCSV(r.Context(), upload)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newAnalysisResponse(report))
}

func (h *APIHandlers) handleAnalyzeStored(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req storedAnalysisRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	params, err := req.toServiceParams()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.AnalyzeStored(r.Context(), params)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newAnalysisResponse(report))
}

func openUpload(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, &domain.InputError{Field: "file", Reason: "upload is missing or unreadable"}
	}
	return file, nil
}

func (h *APIHandlers) writeAnalysisError(w http.ResponseWriter, err error) {
	var (
		tooLarge *http.MaxBytesError
		inputErr *domain.InputError
		detErr   *domain.DetectionError
	)
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
	case errors.As(err, &inputErr), errors.Is(err, ingest.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "Invalid CSV: "+err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")
	case errors.As(err, &detErr):
		h.logger.Error("analysis failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error":     "detection failed",
			"detectors": detErr.Detectors(),
		})
	default:
		h.logger.Error("analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}

type storedAnalysisRequest struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Limit   int    `json:"limit"`
	Persist bool   `json:"persist"`
}

func (req storedAnalysisRequest) toServiceParams() (service.StoredParams, error) {
	params := service.StoredParams{Limit: req.Limit, Persist: req.Persist}
	if req.Limit < 0 {
		return params, errors.New("limit must not be negative")
	}
	var err error
	if params.Start, err = parseTimeParam("start", req.Start); err != nil {
		return params, err
	}
	if params.End, err = parseTimeParam("end", req.End); err != nil {
		return params, err
	}
	return params, nil
}

func parseTimeParam(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, errors.New(name + " must be an RFC3339 timestamp")
	}
	return &ts, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
