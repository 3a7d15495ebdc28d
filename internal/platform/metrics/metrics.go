package metrics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	payrollCommits     uint64
	payrollRecords     uint64
	grantsIssued       uint64
	attendanceImported uint64
	jobsTotal          uint64
	jobsFailed         uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == http.StatusTooManyRequests {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordCommit counts one committed payroll batch of n records.
func (c *Collector) RecordCommit(n int) {
	atomic.AddUint64(&c.payrollCommits, 1)
	atomic.AddUint64(&c.payrollRecords, uint64(n))
}

func (c *Collector) RecordGrant() {
	atomic.AddUint64(&c.grantsIssued, 1)
}

func (c *Collector) RecordImport(n int) {
	atomic.AddUint64(&c.attendanceImported, uint64(n))
}

func (c *Collector) RecordJob(failed bool) {
	atomic.AddUint64(&c.jobsTotal, 1)
	if failed {
		atomic.AddUint64(&c.jobsFailed, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":           total,
		"errorsTotal":             errs,
		"rateLimitedTotal":        limited,
		"avgDurationMs":           avg,
		"totalDurationMs":         totalMs,
		"payrollCommitsTotal":     atomic.LoadUint64(&c.payrollCommits),
		"payrollRecordsTotal":     atomic.LoadUint64(&c.payrollRecords),
		"grantsIssuedTotal":       atomic.LoadUint64(&c.grantsIssued),
		"attendanceImportedTotal": atomic.LoadUint64(&c.attendanceImported),
		"jobsTotal":               atomic.LoadUint64(&c.jobsTotal),
		"jobsFailedTotal":         atomic.LoadUint64(&c.jobsFailed),
	}
}

// Handler serves the snapshot as JSON.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(c.Snapshot()); err != nil {
			slog.Warn("metrics encode failed", "err", err)
		}
	})
}
