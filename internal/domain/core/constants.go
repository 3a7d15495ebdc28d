package core

const (
	StatusActive     = "Active"
	StatusOnLeave    = "On Leave"
	StatusTerminated = "Terminated"
)

var Statuses = []string{StatusActive, StatusOnLeave, StatusTerminated}
