package payroll

const (
	StatusDraft     = "Draft"
	StatusProcessed = "Processed"
	StatusPaid      = "Paid"
)

var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}
