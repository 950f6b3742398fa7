package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/pinchtree/internal/plugin"
	"github.com/ayusman/pinchtree/internal/store"
)

// PluginLookup resolves plugins by name for binding validation.
type PluginLookup interface {
	Get(name string) (*plugin.Plugin, error)
}

// BindingHandler serves /api/bindings.
type BindingHandler struct {
	store   *store.Store
	plugins PluginLookup
}

// NewBindingHandler creates a BindingHandler. With a nil plugins lookup,
// bindings are accepted for any plugin name.
func NewBindingHandler(s *store.Store, plugins PluginLookup) *BindingHandler {
	return &BindingHandler{store: s, plugins: plugins}
}

// Routes registers the binding routes on r.
func (h *BindingHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
	})
}

type bindingRequest struct {
	Trigger    string          `json:"trigger"`
	PluginName string          `json:"pluginName"`
	ActionName string          `json:"actionName"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type listBindingsResponse struct {
	Bindings []*store.Binding `json:"bindings"`
}

// validate checks the trigger name and, when plugins are known, that the
// plugin exists and declares the action.
func (h *BindingHandler) validate(req *bindingRequest) (string, bool) {
	if _, err := plugin.ParseTrigger(req.Trigger); err != nil {
		return err.Error(), false
	}
	if req.PluginName == "" || req.ActionName == "" {
		return "pluginName and actionName are required", false
	}
	if len(req.Config) > 0 && !json.Valid(req.Config) {
		return "config must be valid JSON", false
	}
	if h.plugins == nil {
		return "", true
	}

	p, err := h.plugins.Get(req.PluginName)
	if err != nil {
		return "unknown plugin " + req.PluginName, false
	}
	if !p.Manifest.HasAction(req.ActionName) {
		return "plugin " + req.PluginName + " has no action " + req.ActionName, false
	}
	return "", true
}

func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}
	if bindings == nil {
		bindings = []*store.Binding{}
	}
	WriteJSON(w, http.StatusOK, listBindingsResponse{Bindings: bindings})
}

func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Bindings().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Binding not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg, ok := h.validate(&req); !ok {
		WriteError(w, http.StatusBadRequest, msg)
		return
	}

	b := &store.Binding{
		Trigger:    req.Trigger,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    req.Enabled == nil || *req.Enabled,
	}
	if err := h.store.Bindings().Create(b); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to create binding")
		return
	}
	b.Config = configOrEmpty(b.Config)

	WriteJSON(w, http.StatusCreated, b)
}

func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Binding not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg, ok := h.validate(&req); !ok {
		WriteError(w, http.StatusBadRequest, msg)
		return
	}

	existing.Trigger = req.Trigger
	existing.PluginName = req.PluginName
	existing.ActionName = req.ActionName
	existing.Config = configOrEmpty(req.Config)
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}

	if err := h.store.Bindings().Update(existing); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}
	WriteJSON(w, http.StatusOK, existing)
}

func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Bindings().Delete(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Binding not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func configOrEmpty(config json.RawMessage) json.RawMessage {
	if len(config) == 0 {
		return json.RawMessage("{}")
	}
	return config
}
