package payroll

import "context"

// Committer persists a batch of finalized records and zeroes the gifts and
// salary advance of every employee they reference, all or nothing.
type Committer interface {
	CommitPayroll(ctx context.Context, records []Record) error
}
