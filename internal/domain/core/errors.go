package core

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrDuplicateEmail   = errors.New("employee email already exists")
	ErrDuplicateID      = errors.New("employee id already exists")
	ErrInvalidStatus    = errors.New("unknown employee status")
)
