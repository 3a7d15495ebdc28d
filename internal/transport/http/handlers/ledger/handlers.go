package ledgerhandler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"paystream/internal/app/controller"
	"paystream/internal/domain/ledger"
	"paystream/internal/transport/http/api"
	"paystream/internal/transport/http/middleware"
	"paystream/internal/transport/http/shared"
)

type Handler struct {
	Controller *controller.Controller
}

func NewHandler(c *controller.Controller) *Handler {
	return &Handler{Controller: c}
}

type grantPayload struct {
	EmployeeID string          `json:"employeeId"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/advances", func(r chi.Router) {
		r.Get("/", h.handleList(ledger.KindAdvance))
		r.Post("/", h.handleIssue(ledger.KindAdvance))
	})
	r.Route("/bonuses", func(r chi.Router) {
		r.Get("/", h.handleList(ledger.KindBonus))
		r.Post("/", h.handleIssue(ledger.KindBonus))
	})
}

func (h *Handler) handleList(kind ledger.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transactions := h.Controller.Transactions(kind)
		employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
		if employeeID == "" {
			api.Success(w, transactions, middleware.GetRequestID(r.Context()))
			return
		}
		filtered := make([]ledger.Transaction, 0, len(transactions))
		for _, t := range transactions {
			if t.EmployeeID == employeeID {
				filtered = append(filtered, t)
			}
		}
		api.Success(w, filtered, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleIssue(kind ledger.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload grantPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
		validator := shared.NewValidator()
		validator.Required("employeeId", payload.EmployeeID, "is required")
		validator.Positive("amount", payload.Amount)
		if validator.Reject(w, middleware.GetRequestID(r.Context())) {
			return
		}

		issue := h.Controller.IssueAdvance
		if kind == ledger.KindBonus {
			issue = h.Controller.IssueBonus
		}
		t, err := issue(r.Context(), strings.TrimSpace(payload.EmployeeID), payload.Amount, strings.TrimSpace(payload.Reason))
		if err != nil {
			shared.FailError(w, err, string(kind)+"_issue_failed", "failed to record "+string(kind), middleware.GetRequestID(r.Context()))
			return
		}
		api.Created(w, t, middleware.GetRequestID(r.Context()))
	}
}
