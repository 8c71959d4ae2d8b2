package service

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// EventLayoutChanged signals that a project's persisted layout was modified
// by another writer (MCP session, agent run, second browser tab).
const EventLayoutChanged = "layout:changed"

// LayoutWatcher polls the database for changes to watched projects,
// detecting external modifications and emitting events so connected
// frontends auto-refresh.
type LayoutWatcher struct {
	service  *LayoutService
	emitter  EventEmitter
	logger   *log.Logger
	interval time.Duration

	mu           sync.Mutex
	fingerprints map[string]string
	stopCh       chan struct{}
}

func NewLayoutWatcher(service *LayoutService, emitter EventEmitter, logger *log.Logger, interval time.Duration) *LayoutWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &LayoutWatcher{
		service:      service,
		emitter:      emitter,
		logger:       logger,
		interval:     interval,
		fingerprints: map[string]string{},
	}
}

// Watch registers a project for change polling. Called when a frontend
// opens the project.
func (w *LayoutWatcher) Watch(project string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.fingerprints[project]; !ok {
		w.fingerprints[project] = ""
	}
}

// Unwatch stops polling a project.
func (w *LayoutWatcher) Unwatch(project string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.fingerprints, project)
}

// Start begins the polling loop. Should be called once on startup.
func (w *LayoutWatcher) Start(ctx context.Context) {
	w.stopCh = make(chan struct{})
	go w.pollLoop(ctx)
}

// Stop terminates the polling loop.
func (w *LayoutWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
	}
}

func (w *LayoutWatcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *LayoutWatcher) check(ctx context.Context) {
	w.mu.Lock()
	projects := make([]string, 0, len(w.fingerprints))
	for p := range w.fingerprints {
		projects = append(projects, p)
	}
	w.mu.Unlock()

	for _, project := range projects {
		fp, err := w.service.Fingerprint(project)
		if err != nil {
			w.logger.Warn("fingerprint failed", "project", project, "err", err)
			continue
		}

		w.mu.Lock()
		last, watched := w.fingerprints[project]
		if watched {
			w.fingerprints[project] = fp
		}
		w.mu.Unlock()

		if watched && last != "" && last != fp {
			w.emitter.Emit(ctx, EventLayoutChanged, map[string]any{"project": project})
		}
	}
}
