package attendance

import "errors"

var (
	ErrEmptyLog      = errors.New("device log is empty")
	ErrNoWorksheet   = errors.New("workbook has no worksheets")
	ErrUnreadableLog = errors.New("device log could not be read")
)
