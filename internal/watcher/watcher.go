// Package watcher fires event-triggered jobs (spec.md §4.1's
// FileCreated/FileModified/FileDeleted triggers) by watching the paths
// those jobs name with fsnotify, debouncing rapid-fire changes per path.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rae-systems/scheduler/internal/job"
)

// TriggerHandler is invoked when a watched path's event matches a
// registered job's trigger.
type TriggerHandler func(id job.ID, event job.EventType, path string)

// Watcher watches filesystem paths named by jobs' event triggers and
// invokes a TriggerHandler when a matching change is observed.
type Watcher struct {
	handler  TriggerHandler
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu         sync.Mutex
	jobs       map[job.ID]registration
	lastFired  map[job.ID]time.Time
}

type registration struct {
	path   string
	event  job.EventType
	filter string
}

// Config bundles the construction knobs a Watcher needs.
type Config struct {
	Handler  TriggerHandler
	Logger   *slog.Logger
	Debounce time.Duration // minimum interval between fires for the same job
}

// New creates a Watcher. The underlying fsnotify watcher is created
// immediately but no paths are watched until jobs are registered.
func New(cfg Config) (*Watcher, error) {
	if cfg.Handler == nil {
		return nil, fmt.Errorf("trigger handler is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 1 * time.Second
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		handler:   cfg.Handler,
		logger:    cfg.Logger.With("component", "watcher"),
		fsw:       fsw,
		debounce:  cfg.Debounce,
		jobs:      make(map[job.ID]registration),
		lastFired: make(map[job.ID]time.Time),
	}, nil
}

// RegisterJob starts watching j's event-trigger path, if it has one. A
// job without a file event trigger is a no-op — the caller doesn't need
// to filter before calling.
func (w *Watcher) RegisterJob(j *job.Job) error {
	if j.Schedule.Event == nil || !j.Schedule.Event.EventType.IsFileEvent() {
		return nil
	}

	absPath, err := filepath.Abs(j.Schedule.Event.Path)
	if err != nil {
		return fmt.Errorf("resolving watch path: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.fsw.Add(absPath); err != nil {
		return fmt.Errorf("watching %s: %w", absPath, err)
	}

	w.jobs[j.ID] = registration{
		path:   absPath,
		event:  j.Schedule.Event.EventType,
		filter: j.Schedule.Event.Filter,
	}
	w.logger.Info("job registered with watcher", "job_id", j.ID, "path", absPath, "event", j.Schedule.Event.EventType)
	return nil
}

// UnregisterJob stops watching id's path, if it is registered. Another
// job watching the same path keeps the underlying fsnotify watch alive.
func (w *Watcher) UnregisterJob(id job.ID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	reg, ok := w.jobs[id]
	if !ok {
		return
	}
	delete(w.jobs, id)
	delete(w.lastFired, id)

	for _, other := range w.jobs {
		if other.path == reg.path {
			return
		}
	}
	_ = w.fsw.Remove(reg.path)
}

// Start begins the watch loop. It returns immediately; events are
// delivered to the configured TriggerHandler from a background
// goroutine until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.watchLoop(ctx)
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watcher stopped")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				w.logger.Warn("watcher events channel closed")
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.logger.Warn("watcher errors channel closed")
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	eventType, ok := classify(event)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for id, reg := range w.jobs {
		if reg.path != event.Name || reg.event != eventType {
			continue
		}
		if reg.filter != "" {
			matched, err := filepath.Match(reg.filter, filepath.Base(event.Name))
			if err != nil || !matched {
				continue
			}
		}
		if time.Since(w.lastFired[id]) < w.debounce {
			w.logger.Debug("event debounced", "job_id", id, "path", event.Name)
			continue
		}
		w.lastFired[id] = time.Now()
		w.logger.Info("event trigger fired", "job_id", id, "event", eventType, "path", event.Name)
		w.handler(id, eventType, event.Name)
	}
}

// classify maps an fsnotify op to the job event vocabulary. Write is
// treated as a modification; Chmod carries no job-visible semantics.
func classify(event fsnotify.Event) (job.EventType, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return job.EventFileCreated, true
	case event.Has(fsnotify.Write):
		return job.EventFileModified, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return job.EventFileDeleted, true
	default:
		return "", false
	}
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	w.logger.Debug("stopping watcher")
	return w.fsw.Close()
}
