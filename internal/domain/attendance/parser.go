package attendance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"paystream/internal/domain/core"
	"paystream/internal/domain/record"
)

// ParseDeviceLog reads a terminal CSV export. The first line is a header;
// each following row carries an event id, a "YYYY-MM-DD HH:MM:SS" timestamp
// and the device's employee identifier. Rows that cannot be matched to an
// employee are skipped.
func ParseDeviceLog(r io.Reader, employees []core.Employee, opts Options) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	rows, err := readDataRows(reader.Read)
	if err != nil {
		return nil, err
	}
	return mapEntries(rows, employees, opts), nil
}

// readDataRows consumes the header line and returns the rows after it. The
// header counts as consumed even when it fails to parse, so the first data
// row is never mistaken for it. Unparseable data rows are dropped.
func readDataRows(next func() ([]string, error)) ([][]string, error) {
	var (
		rows       [][]string
		headerRead bool
	)
	for {
		row, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("%w: %v", ErrUnreadableLog, err)
			}
			headerRead = true
			continue
		}
		if !headerRead {
			headerRead = true
			continue
		}
		rows = append(rows, row)
	}
	if !headerRead {
		return nil, ErrEmptyLog
	}
	return rows, nil
}

// ParseDeviceWorkbook applies the same rules to the first sheet of an xlsx
// export.
func ParseDeviceWorkbook(r io.Reader, employees []core.Employee, opts Options) ([]Entry, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableLog, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoWorksheet
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableLog, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyLog
	}
	return MapRows(rows, employees, opts), nil
}

// MapRows converts raw rows, header first, into entries.
func MapRows(rows [][]string, employees []core.Employee, opts Options) []Entry {
	if len(rows) == 0 {
		return []Entry{}
	}
	return mapEntries(rows[1:], employees, opts)
}

func mapEntries(rows [][]string, employees []core.Employee, opts Options) []Entry {
	opts = opts.withDefaults()
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		if blank(row) || len(row) < 3 {
			continue
		}
		deviceID := strings.TrimSpace(row[2])
		if deviceID == "" {
			continue
		}
		emp, ok := matchEmployee(employees, deviceID)
		if !ok {
			continue
		}
		date, clock, ok := splitTimestamp(row[1])
		if !ok {
			continue
		}
		status := StatusPresent
		if clock > opts.LateAfter {
			status = StatusLate
		}
		entries = append(entries, Entry{
			ID:           uuid.NewString(),
			EmployeeID:   emp.ID,
			EmployeeName: emp.FullName(),
			Date:         date,
			CheckIn:      clock,
			Status:       status,
			DeviceSource: opts.DeviceSource,
		})
	}
	return entries
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// matchEmployee prefers an exact id match, then the first employee whose
// email contains the device identifier.
func matchEmployee(employees []core.Employee, deviceID string) (core.Employee, bool) {
	for _, emp := range employees {
		if emp.ID == deviceID {
			return emp, true
		}
	}
	for _, emp := range employees {
		if strings.Contains(emp.Email, deviceID) {
			return emp, true
		}
	}
	return core.Employee{}, false
}

var clockLayouts = []string{"15:04:05", "15:04"}

func splitTimestamp(raw string) (string, string, bool) {
	parts := strings.FieldsFunc(strings.TrimSpace(raw), func(r rune) bool {
		return r == ' ' || r == 'T'
	})
	if len(parts) < 2 {
		return "", "", false
	}
	day, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return "", "", false
	}
	for _, layout := range clockLayouts {
		if clock, err := time.Parse(layout, parts[1]); err == nil {
			return day.Format("2006-01-02"), clock.Format("15:04:05"), true
		}
	}
	return "", "", false
}

func FromRecord(rec map[string]any) Entry {
	entry := Entry{
		ID:           record.String(rec, "id"),
		EmployeeID:   record.String(rec, "employeeId"),
		EmployeeName: record.String(rec, "employeeName"),
		Date:         record.Date(rec, "date"),
		CheckIn:      record.String(rec, "checkIn"),
		Status:       record.String(rec, "status"),
		DeviceSource: record.String(rec, "deviceSource"),
	}
	if out := record.String(rec, "checkOut"); out != "" {
		entry.CheckOut = &out
	}
	return entry
}
