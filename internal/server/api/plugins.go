package api

import (
	"net/http"

	"github.com/ayusman/pinchtree/internal/plugin"
)

// PluginLister lists discovered plugins.
type PluginLister interface {
	List() []*plugin.Plugin
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

type listPluginsResponse struct {
	Plugins  []pluginResponse `json:"plugins"`
	Triggers []plugin.Trigger `json:"triggers"`
}

// ListPlugins returns a handler for GET /api/plugins. The response also
// carries the trigger names bindings may use.
func ListPlugins(plugins PluginLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := listPluginsResponse{
			Plugins:  []pluginResponse{},
			Triggers: plugin.Triggers(),
		}
		for _, p := range plugins.List() {
			actions := p.Manifest.Actions
			if actions == nil {
				actions = []string{}
			}
			resp.Plugins = append(resp.Plugins, pluginResponse{
				Name:        p.Manifest.Name,
				Version:     p.Manifest.Version,
				Description: p.Manifest.Description,
				Actions:     actions,
			})
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
