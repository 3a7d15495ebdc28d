package attendance

const (
	StatusPresent = "Present"
	StatusLate    = "Late"
	StatusAbsent  = "Absent"
	StatusOffDay  = "Off-Day"

	DefaultDeviceSource = "DS-K1T320MFWX"
	DefaultLateAfter    = "09:00:00"
)

// Entry is one check-in fact for one employee on one day.
type Entry struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	Date         string  `json:"date"`
	CheckIn      string  `json:"checkIn"`
	CheckOut     *string `json:"checkOut"`
	Status       string  `json:"status"`
	DeviceSource string  `json:"deviceSource"`
}

// Options tune how device rows are turned into entries.
type Options struct {
	DeviceSource string
	// LateAfter is an HH:MM:SS cutoff; check-ins strictly after it are Late.
	LateAfter string
}

func (o Options) withDefaults() Options {
	if o.DeviceSource == "" {
		o.DeviceSource = DefaultDeviceSource
	}
	if o.LateAfter == "" {
		o.LateAfter = DefaultLateAfter
	}
	return o
}
