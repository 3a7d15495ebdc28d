package payroll

import "errors"

var (
	// ErrPeriodConflict reports that an employee already has a payroll
	// record for the month and year being committed.
	ErrPeriodConflict = errors.New("payroll already processed for employee in period")
	ErrInvalidMonth   = errors.New("unknown month name")
	ErrInvalidYear    = errors.New("year out of range")
)
