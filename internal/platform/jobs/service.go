package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"paystream/internal/platform/metrics"
)

const (
	JobPayslipArchive = "payslip_archive"
	JobRosterReload   = "roster_reload"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is the record kept for one job execution.
type Run struct {
	ID          string     `json:"id"`
	Type        string     `json:"jobType"`
	Status      string     `json:"status"`
	Details     any        `json:"details,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type Service struct {
	Metrics *metrics.Collector

	queue   chan job
	keep    int
	mu      sync.Mutex
	runs    []Run
	pending sync.WaitGroup
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

// New returns a service that remembers the last keep runs.
func New(keep int, collector *metrics.Collector) *Service {
	if keep <= 0 {
		keep = 100
	}
	return &Service{
		Metrics: collector,
		queue:   make(chan job, 128),
		keep:    keep,
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Every enqueues run once per interval until ctx is done.
func (s *Service) Every(ctx context.Context, interval time.Duration, jobType string, run func(context.Context) (any, error)) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Enqueue(jobType, run)
			}
		}
	}()
}

// Enqueue hands run to the background worker. It reports false when the
// queue is full and the job was dropped.
func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) bool {
	s.pending.Add(1)
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		s.pending.Done()
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Wait blocks until every enqueued job has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Runs returns recorded runs, newest first.
func (s *Service) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, len(s.runs))
	for i, run := range s.runs {
		out[len(s.runs)-1-i] = run
	}
	return out
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
			s.pending.Done()
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	id := s.begin(j.Type)

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	s.finish(id, status, details, err)
	if s.Metrics != nil {
		s.Metrics.RecordJob(err != nil)
	}
	return details, err
}

func (s *Service) begin(jobType string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := Run{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.runs = append(s.runs, run)
	if len(s.runs) > s.keep {
		s.runs = s.runs[len(s.runs)-s.keep:]
	}
	return run.ID
}

func (s *Service) finish(id, status string, details any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID != id {
			continue
		}
		now := time.Now().UTC()
		s.runs[i].Status = status
		s.runs[i].Details = details
		s.runs[i].CompletedAt = &now
		if err != nil {
			s.runs[i].Error = err.Error()
		}
		return
	}
}
