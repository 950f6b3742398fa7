package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/pinchtree/internal/plugin"
	"github.com/ayusman/pinchtree/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type stubPlugins map[string]*plugin.Plugin

func (p stubPlugins) Get(name string) (*plugin.Plugin, error) {
	if pl, ok := p[name]; ok {
		return pl, nil
	}
	return nil, errors.New("not found")
}

func (p stubPlugins) List() []*plugin.Plugin {
	var out []*plugin.Plugin
	for _, pl := range p {
		out = append(out, pl)
	}
	return out
}

var keyboard = stubPlugins{
	"keyboard": {Manifest: plugin.Manifest{Name: "keyboard", Version: "1.0.0", Actions: []string{"keystroke"}}},
}

func newBindingRouter(s *store.Store, plugins PluginLookup) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/bindings", NewBindingHandler(s, plugins).Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBindingHandler_CRUD(t *testing.T) {
	s := newTestStore(t)
	h := newBindingRouter(s, keyboard)

	rec := do(t, h, http.MethodPost, "/api/bindings",
		`{"trigger":"pinch.release","pluginName":"keyboard","actionName":"keystroke","config":{"key":"space"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var created store.Binding
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Enabled, "bindings are enabled by default")
	assert.JSONEq(t, `{"key":"space"}`, string(created.Config))

	rec = do(t, h, http.MethodGet, "/api/bindings/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/bindings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list listBindingsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Bindings, 1)
	assert.Equal(t, "pinch.release", list.Bindings[0].Trigger)

	rec = do(t, h, http.MethodPut, "/api/bindings/"+created.ID,
		`{"trigger":"mode.chaos","pluginName":"keyboard","actionName":"keystroke","enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := s.Bindings().GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "mode.chaos", got.Trigger)
	assert.False(t, got.Enabled)

	rec = do(t, h, http.MethodDelete, "/api/bindings/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/bindings/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBindingHandler_EmptyList(t *testing.T) {
	h := newBindingRouter(newTestStore(t), nil)

	rec := do(t, h, http.MethodGet, "/api/bindings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bindings":[]}`, rec.Body.String())
}

func TestBindingHandler_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad json", `{`, "Invalid request body"},
		{"unknown trigger", `{"trigger":"wave","pluginName":"keyboard","actionName":"keystroke"}`, `unknown trigger "wave"`},
		{"missing action", `{"trigger":"mode.formed","pluginName":"keyboard"}`, "pluginName and actionName are required"},
		{"unknown plugin", `{"trigger":"mode.formed","pluginName":"mouse","actionName":"click"}`, "unknown plugin mouse"},
		{"unknown action", `{"trigger":"mode.formed","pluginName":"keyboard","actionName":"type"}`, "plugin keyboard has no action type"},
	}

	h := newBindingRouter(newTestStore(t), keyboard)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/bindings", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantErr, resp.Error)
		})
	}
}

func TestBindingHandler_UpdateMissing(t *testing.T) {
	h := newBindingRouter(newTestStore(t), nil)

	rec := do(t, h, http.MethodPut, "/api/bindings/nope",
		`{"trigger":"mode.chaos","pluginName":"keyboard","actionName":"keystroke"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/bindings/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryHandler(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	sess := &store.Session{InitialMode: "formed", StartedAt: start}
	require.NoError(t, s.Sessions().Start(sess))
	for i, to := range []string{"chaos", "formed", "chaos"} {
		from := map[string]string{"chaos": "formed", "formed": "chaos"}[to]
		require.NoError(t, s.Transitions().Record(&store.Transition{
			SessionID: sess.ID,
			From:      from,
			To:        to,
			Source:    store.SourceGesture,
			At:        start.Add(time.Duration(i) * time.Second),
		}))
	}

	h := NewHistoryHandler(s)
	r := chi.NewRouter()
	r.Get("/api/transitions", h.Transitions)
	r.Get("/api/sessions", h.Sessions)

	t.Run("limit", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/transitions?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listTransitionsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Transitions, 2)
		assert.Equal(t, "chaos", resp.Transitions[0].To, "newest first")
	})

	t.Run("by session", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/transitions?session="+sess.ID, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listTransitionsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp.Transitions, 3)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/transitions?limit=-1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sessions", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/sessions", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listSessionsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Sessions, 1)
		assert.Equal(t, sess.ID, resp.Sessions[0].ID)
	})
}

func TestListPlugins(t *testing.T) {
	rec := httptest.NewRecorder()
	ListPlugins(keyboard).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plugins", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listPluginsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Plugins, 1)
	assert.Equal(t, []string{"keystroke"}, resp.Plugins[0].Actions)
	assert.Equal(t, plugin.Triggers(), resp.Triggers)
}
