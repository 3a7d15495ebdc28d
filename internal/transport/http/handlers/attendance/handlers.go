package attendancehandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"paystream/internal/app/controller"
	"paystream/internal/domain/attendance"
	"paystream/internal/transport/http/api"
	"paystream/internal/transport/http/middleware"
	"paystream/internal/transport/http/shared"
)

const (
	importEndpoint = "attendance.import"
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	uploadField    = "file"
)

type Handler struct {
	Controller  *controller.Controller
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(c *controller.Controller, idempotency *middleware.IdempotencyStore) *Handler {
	return &Handler{Controller: c, Idempotency: idempotency}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", h.handleListAttendance)
		r.Post("/import", h.handleImport)
	})
}

func (h *Handler) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	employeeID := strings.TrimSpace(query.Get("employeeId"))
	date := strings.TrimSpace(query.Get("date"))
	if date != "" {
		validator := shared.NewValidator()
		if parsed, ok := validator.Date("date", date); ok {
			date = parsed.Format("2006-01-02")
		}
		if validator.Reject(w, middleware.GetRequestID(r.Context())) {
			return
		}
	}

	entries := h.Controller.Attendance()
	filtered := make([]attendance.Entry, 0, len(entries))
	for _, e := range entries {
		if employeeID != "" && e.EmployeeID != employeeID {
			continue
		}
		if date != "" && e.Date != date {
			continue
		}
		filtered = append(filtered, e)
	}

	api.Success(w, shared.Paginate(r, filtered, 200, 1000), middleware.GetRequestID(r.Context()))
}

// handleImport accepts a device export as a raw CSV or xlsx body, or as a
// multipart upload in the "file" field.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	body, workbook, err := readUpload(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unable to read attendance upload", middleware.GetRequestID(r.Context()))
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get(middleware.IdempotencyHeader))
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), importEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different request", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Success(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
			return
		}
	}

	entries, err := h.Controller.ImportAttendance(r.Context(), bytes.NewReader(body), workbook)
	if err != nil {
		shared.FailError(w, err, "attendance_import_failed", "failed to import attendance", middleware.GetRequestID(r.Context()))
		return
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}

	response := map[string]any{"imported": len(entries), "entries": entries}
	if idempotencyKey != "" {
		encoded, err := json.Marshal(response)
		if err != nil {
			slog.Warn("import response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), importEndpoint, idempotencyKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Success(w, response, middleware.GetRequestID(r.Context()))
}

func readUpload(r *http.Request) ([]byte, bool, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}
	if mediaType != "multipart/form-data" {
		body, err := io.ReadAll(r.Body)
		return body, isWorkbookType(mediaType), err
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()
	body, err := io.ReadAll(file)
	if err != nil {
		return nil, false, err
	}
	workbook := strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") ||
		isWorkbookType(header.Header.Get("Content-Type"))
	return body, workbook, nil
}

func isWorkbookType(mediaType string) bool {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	return mediaType == xlsxType || mediaType == "application/vnd.ms-excel"
}
