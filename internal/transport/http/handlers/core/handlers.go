package corehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"paystream/internal/app/controller"
	"paystream/internal/domain/core"
	"paystream/internal/domain/payslip"
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

type employeePayload struct {
	ID          string          `json:"id"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Email       string          `json:"email"`
	Department  string          `json:"department"`
	Position    string          `json:"position"`
	BaseSalary  decimal.Decimal `json:"baseSalary"`
	Allowances  decimal.Decimal `json:"allowances"`
	Deductions  decimal.Decimal `json:"deductions"`
	Status      string          `json:"status"`
	JoiningDate string          `json:"joiningDate"`
	BankAccount string          `json:"bankAccount"`
}

func (p employeePayload) employee() core.Employee {
	return core.Employee{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		Department:  p.Department,
		Position:    p.Position,
		BaseSalary:  p.BaseSalary,
		Allowances:  p.Allowances,
		Deductions:  p.Deductions,
		Status:      p.Status,
		JoiningDate: p.JoiningDate,
		BankAccount: p.BankAccount,
	}
}

func (p employeePayload) validate(v *shared.Validator) {
	v.Required("firstName", p.FirstName, "is required")
	v.Required("lastName", p.LastName, "is required")
	v.Required("email", p.Email, "is required")
	v.Email("email", p.Email)
	v.NonNegative("baseSalary", p.BaseSalary)
	v.NonNegative("allowances", p.Allowances)
	v.NonNegative("deductions", p.Deductions)
	v.Enum("status", p.Status, core.Statuses, "must be Active, On Leave or Terminated")
	if strings.TrimSpace(p.JoiningDate) != "" {
		v.Date("joiningDate", p.JoiningDate)
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleListEmployees)
		r.Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGetEmployee)
			r.Put("/", h.handleUpdateEmployee)
			r.Delete("/", h.handleDeleteEmployee)
			r.Get("/payslip", h.handlePayslip)
		})
	})
}

// handleListEmployees masks bank accounts; the full number is only returned
// for a single employee.
func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees := h.Controller.Employees()
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	department := strings.TrimSpace(r.URL.Query().Get("department"))

	out := make([]core.Employee, 0, len(employees))
	for _, emp := range employees {
		if status != "" && !strings.EqualFold(emp.Status, status) {
			continue
		}
		if department != "" && !strings.EqualFold(emp.Department, department) {
			continue
		}
		emp.BankAccount = emp.MaskedBankAccount()
		out = append(out, emp)
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Controller.Employee(chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailError(w, err, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	payload.validate(validator)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	emp, err := h.Controller.CreateEmployee(r.Context(), payload.employee())
	if err != nil {
		shared.FailError(w, err, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}
	slog.Info("employee created", "employeeId", emp.ID, "requestId", middleware.GetRequestID(r.Context()))
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	payload.validate(validator)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	emp, err := h.Controller.UpdateEmployee(r.Context(), chi.URLParam(r, "employeeID"), payload.employee())
	if err != nil {
		shared.FailError(w, err, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Controller.DeleteEmployee(r.Context(), employeeID); err != nil {
		shared.FailError(w, err, "employee_delete_failed", "failed to delete employee", middleware.GetRequestID(r.Context()))
		return
	}
	slog.Info("employee deleted", "employeeId", employeeID, "requestId", middleware.GetRequestID(r.Context()))
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

// handlePayslip serves the statement as JSON, plain text or PDF. For PDF the
// copy archived at commit time is preferred over a fresh rendering.
func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	month := r.URL.Query().Get("month")
	year, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a number"}})
		return
	}

	st, err := h.Controller.Payslip(employeeID, month, year)
	if err != nil {
		shared.FailError(w, err, "payslip_failed", "failed to build payslip", middleware.GetRequestID(r.Context()))
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		api.Success(w, st, middleware.GetRequestID(r.Context()))
	case "text", "txt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte(payslip.RenderText(st))); err != nil {
			slog.Warn("payslip write failed", "err", err)
		}
	case "pdf":
		filename := "payslip-" + st.EmployeeID + "-" + strings.ToLower(st.Month) + "-" + strconv.Itoa(st.Year) + ".pdf"
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		archived, err := h.Controller.ArchivedPayslip(employeeID, st.Month, st.Year)
		if err == nil {
			if _, err := w.Write(archived); err != nil {
				slog.Warn("payslip write failed", "err", err)
			}
			return
		}
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("archived payslip unreadable", "employeeId", employeeID, "err", err)
		}
		if err := payslip.WritePDF(w, st); err != nil {
			slog.Warn("payslip pdf render failed", "employeeId", employeeID, "err", err)
		}
	default:
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "format", Reason: "must be json, text or pdf"}})
	}
}
