package payrollhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"paystream/internal/app/controller"
	"paystream/internal/domain/payroll"
	"paystream/internal/transport/http/api"
	"paystream/internal/transport/http/middleware"
	"paystream/internal/transport/http/shared"
)

const commitEndpoint = "payroll.commit"

type Handler struct {
	Controller  *controller.Controller
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(c *controller.Controller, idempotency *middleware.IdempotencyStore) *Handler {
	return &Handler{Controller: c, Idempotency: idempotency}
}

type commitPayload struct {
	Month      string `json:"month"`
	Year       int    `json:"year"`
	SearchTerm string `json:"q"`
}

type commitResponse struct {
	Month     string           `json:"month"`
	Year      int              `json:"year"`
	Committed int              `json:"committed"`
	TotalNet  decimal.Decimal  `json:"totalNetPayout"`
	Records   []payroll.Record `json:"records"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Get("/history", h.handleListHistory)
		r.Get("/history/export", h.handleExportRegister)
		r.Get("/preview", h.handlePreview)
		r.Post("/commit", h.handleCommit)
	})
}

func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	month := strings.TrimSpace(query.Get("month"))
	employeeID := strings.TrimSpace(query.Get("employeeId"))
	year := 0
	if raw := strings.TrimSpace(query.Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a number"}})
			return
		}
		year = parsed
	}

	history := h.Controller.History()
	filtered := make([]payroll.Record, 0, len(history))
	for _, rec := range history {
		if month != "" && !strings.EqualFold(rec.Month, month) {
			continue
		}
		if year != 0 && rec.Year != year {
			continue
		}
		if employeeID != "" && rec.EmployeeID != employeeID {
			continue
		}
		filtered = append(filtered, rec)
	}

	api.Success(w, shared.Paginate(r, filtered, 100, 500), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	rows := h.Controller.Register()
	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_export_failed", "failed to export payroll register", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=payroll-register.csv")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("payroll export write failed", "err", err)
	}
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	year, err := strconv.Atoi(strings.TrimSpace(query.Get("year")))
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a number"}})
		return
	}
	run, err := h.Controller.PreviewPayroll(query.Get("month"), year, query.Get("q"))
	if err != nil {
		shared.FailError(w, err, "payroll_preview_failed", "failed to preview payroll", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

// handleCommit recomputes drafts for the requested period and commits them.
// A repeated Idempotency-Key with the same payload replays the first
// response instead of committing again.
func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	var payload commitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Required("month", payload.Month, "is required")
	if payload.Year == 0 {
		validator.Add("year", "is required")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get(middleware.IdempotencyHeader))
	requestHash := middleware.RequestHash([]byte(strings.ToLower(strings.TrimSpace(payload.Month)) + "|" + strconv.Itoa(payload.Year) + "|" + strings.TrimSpace(payload.SearchTerm)))
	if idempotencyKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), commitEndpoint, idempotencyKey, requestHash)
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

	records, err := h.Controller.ProcessPeriod(r.Context(), payload.Month, payload.Year, payload.SearchTerm)
	if err != nil {
		shared.FailError(w, err, "payroll_commit_failed", "failed to commit payroll", middleware.GetRequestID(r.Context()))
		return
	}
	if records == nil {
		records = []payroll.Record{}
	}

	month, _ := payroll.NormalizeMonth(payload.Month)
	response := commitResponse{
		Month:     month,
		Year:      payload.Year,
		Committed: len(records),
		TotalNet:  payroll.TotalNet(records),
		Records:   records,
	}
	if idempotencyKey != "" {
		encoded, err := json.Marshal(response)
		if err != nil {
			slog.Warn("commit response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), commitEndpoint, idempotencyKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Success(w, response, middleware.GetRequestID(r.Context()))
}
