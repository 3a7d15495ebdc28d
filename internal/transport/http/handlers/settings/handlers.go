package settingshandler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"paystream/internal/app/controller"
	"paystream/internal/domain/settings"
	"paystream/internal/transport/http/api"
	"paystream/internal/transport/http/middleware"
	"paystream/internal/transport/http/shared"
)

type Handler struct {
	Controller *controller.Controller
}

func NewHandler(c *controller.Controller) *Handler {
	return &Handler{Controller: c}
}

type valuePayload struct {
	Name string `json:"name"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.handleGetSettings)
		r.Post("/departments", h.handleAdd(settings.KeyDepartments))
		r.Delete("/departments", h.handleRemove(settings.KeyDepartments))
		r.Post("/positions", h.handleAdd(settings.KeyPositions))
		r.Delete("/positions", h.handleRemove(settings.KeyPositions))
	})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Controller.Settings(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdd(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := readName(w, r)
		if !ok {
			return
		}
		list, err := h.Controller.AddSetting(r.Context(), key, name)
		if err != nil {
			shared.FailError(w, err, "settings_update_failed", "failed to update settings", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, map[string]any{key: list}, middleware.GetRequestID(r.Context()))
	}
}

// handleRemove takes the value from the JSON body or, for clients that do
// not send bodies with DELETE, from the name query parameter.
func (h *Handler) handleRemove(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			var ok bool
			if name, ok = readName(w, r); !ok {
				return
			}
		}
		list, err := h.Controller.RemoveSetting(r.Context(), key, name)
		if err != nil {
			shared.FailError(w, err, "settings_update_failed", "failed to update settings", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, map[string]any{key: list}, middleware.GetRequestID(r.Context()))
	}
}

func readName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload valuePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return "", false
	}
	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return "", false
	}
	return strings.TrimSpace(payload.Name), true
}
