package reportshandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"paystream/internal/app/controller"
	"paystream/internal/platform/jobs"
	"paystream/internal/transport/http/api"
	"paystream/internal/transport/http/middleware"
	"paystream/internal/transport/http/shared"
)

type Handler struct {
	Controller *controller.Controller
	Jobs       *jobs.Service
}

func NewHandler(c *controller.Controller, jobService *jobs.Service) *Handler {
	return &Handler{Controller: c, Jobs: jobService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.handleListJobs)
		r.Post("/reload", h.handleReload)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Controller.Dashboard(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobType := strings.TrimSpace(r.URL.Query().Get("jobType"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	runs := []jobs.Run{}
	if h.Jobs != nil {
		for _, run := range h.Jobs.Runs() {
			if jobType != "" && run.Type != jobType {
				continue
			}
			if status != "" && run.Status != status {
				continue
			}
			runs = append(runs, run)
		}
	}
	api.Success(w, shared.Paginate(r, runs, 50, 200).Items, middleware.GetRequestID(r.Context()))
}

// handleReload re-reads every collection from the store, replacing the
// in-memory state.
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	var (
		details any
		err     error
	)
	if h.Jobs != nil {
		details, err = h.Jobs.RunNow(r.Context(), jobs.JobRosterReload, h.Controller.Reload)
	} else {
		details, err = h.Controller.Reload(r.Context())
	}
	if err != nil {
		shared.FailError(w, err, "reload_failed", "failed to reload data", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}
