package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ayusman/pinchtree/internal/store"
)

// BindingSource looks up the enabled bindings for a trigger.
type BindingSource interface {
	ListEnabledByTrigger(trigger string) ([]*store.Binding, error)
}

// PluginSource resolves plugins by name.
type PluginSource interface {
	Get(name string) (*Plugin, error)
}

// Runner executes one plugin request.
type Runner interface {
	Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error)
}

// DefaultQueueSize is the number of pending events a Dispatcher buffers.
const DefaultQueueSize = 32

// Dispatcher runs the plugin actions bound to interaction triggers. Dispatch
// never blocks the caller: events are queued and executed one at a time by
// Run. When the queue is full the event is dropped.
type Dispatcher struct {
	bindings BindingSource
	plugins  PluginSource
	runner   Runner
	logger   *slog.Logger
	queue    chan Event
}

// NewDispatcher creates a Dispatcher. A nil logger uses slog.Default().
func NewDispatcher(bindings BindingSource, plugins PluginSource, runner Runner, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		bindings: bindings,
		plugins:  plugins,
		runner:   runner,
		logger:   logger,
		queue:    make(chan Event, DefaultQueueSize),
	}
}

// Dispatch queues ev for execution and reports whether it was accepted.
func (d *Dispatcher) Dispatch(ev Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		d.logger.Warn("plugin queue full, dropping trigger", "trigger", ev.Trigger)
		return false
	}
}

// Run executes queued events until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			if _, err := d.Fire(ctx, ev); err != nil {
				d.logger.Error("dispatch trigger", "trigger", ev.Trigger, "error", err)
			}
		}
	}
}

// Fire synchronously runs every enabled binding for ev.Trigger and returns
// how many actions succeeded. A failing binding is logged and does not stop
// the others.
func (d *Dispatcher) Fire(ctx context.Context, ev Event) (int, error) {
	bindings, err := d.bindings.ListEnabledByTrigger(string(ev.Trigger))
	if err != nil {
		return 0, fmt.Errorf("list bindings: %w", err)
	}
	if len(bindings) == 0 {
		return 0, nil
	}

	params, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	succeeded := 0
	for _, b := range bindings {
		log := d.logger.With("trigger", ev.Trigger, "binding", b.ID, "plugin", b.PluginName, "action", b.ActionName)

		p, err := d.plugins.Get(b.PluginName)
		if err != nil {
			log.Warn("binding references unknown plugin", "error", err)
			continue
		}

		resp, err := d.runner.Execute(ctx, p, &Request{
			Action:  b.ActionName,
			Trigger: ev.Trigger,
			Config:  b.Config,
			Params:  params,
		})
		if err != nil {
			log.Error("plugin execution failed", "error", err)
			continue
		}
		if !resp.Success {
			log.Warn("plugin reported failure", "error", resp.Error)
			continue
		}

		log.Debug("plugin action completed")
		succeeded++
	}

	return succeeded, nil
}
