package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"paystream/internal/domain/attendance"
	"paystream/internal/domain/core"
	"paystream/internal/domain/ledger"
	"paystream/internal/domain/payroll"
	"paystream/internal/domain/settings"
	"paystream/internal/transport/http/api"
)

// FailError writes the envelope for a domain error. Errors without a known
// mapping are logged and reported with the fallback code as a 500.
func FailError(w http.ResponseWriter, err error, fallbackCode, fallbackMessage, requestID string) {
	switch {
	case errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, core.ErrDuplicateEmail):
		api.Fail(w, http.StatusConflict, "duplicate_email", "an employee with this email already exists", requestID)
	case errors.Is(err, core.ErrDuplicateID):
		api.Fail(w, http.StatusConflict, "duplicate_id", "an employee with this id already exists", requestID)
	case errors.Is(err, payroll.ErrPeriodConflict):
		api.Fail(w, http.StatusConflict, "period_conflict", "payroll already processed for this period", requestID)
	case errors.Is(err, payroll.ErrInvalidMonth):
		FailValidation(w, requestID, []ValidationIssue{{Field: "month", Reason: "must be a month name"}})
	case errors.Is(err, payroll.ErrInvalidYear):
		FailValidation(w, requestID, []ValidationIssue{{Field: "year", Reason: "must be a valid year"}})
	case errors.Is(err, core.ErrInvalidStatus):
		FailValidation(w, requestID, []ValidationIssue{{Field: "status", Reason: "must be Active, On Leave or Terminated"}})
	case errors.Is(err, ledger.ErrInvalidAmount):
		FailValidation(w, requestID, []ValidationIssue{{Field: "amount", Reason: "must be greater than zero"}})
	case errors.Is(err, settings.ErrUnknownKey):
		api.Fail(w, http.StatusNotFound, "not_found", "unknown setting", requestID)
	case errors.Is(err, attendance.ErrEmptyLog),
		errors.Is(err, attendance.ErrNoWorksheet),
		errors.Is(err, attendance.ErrUnreadableLog):
		api.Fail(w, http.StatusBadRequest, "invalid_attendance_log", err.Error(), requestID)
	default:
		slog.Error(fallbackMessage, "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}
