package service

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// EventMediaChanged signals that a file in a project's media directory was
// added, replaced, or removed outside the upload endpoint.
const EventMediaChanged = "media:changed"

// MediaWatcher watches the media tree with fsnotify and emits events so
// frontends can refresh stale image blocks.
type MediaWatcher struct {
	root    string
	emitter EventEmitter
	logger  *log.Logger
	watcher *fsnotify.Watcher
}

func NewMediaWatcher(root string, emitter EventEmitter, logger *log.Logger) (*MediaWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &MediaWatcher{root: root, emitter: emitter, logger: logger, watcher: w}, nil
}

// Start watches the media root and every project directory under it.
// New project directories are picked up as they appear.
func (m *MediaWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(m.root, 0755); err != nil {
		return err
	}
	if err := m.watcher.Add(m.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := m.watcher.Add(filepath.Join(m.root, e.Name())); err != nil {
				m.logger.Warn("watch media dir", "dir", e.Name(), "err", err)
			}
		}
	}

	go m.loop(ctx)
	return nil
}

func (m *MediaWatcher) Close() error {
	return m.watcher.Close()
}

func (m *MediaWatcher) loop(ctx context.Context) {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handle(ctx, event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("media watcher", "err", err)
		case <-ctx.Done():
			return
		}
	}
}

func (m *MediaWatcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := m.watcher.Add(event.Name); err != nil {
				m.logger.Warn("watch media dir", "dir", event.Name, "err", err)
			}
			return
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, err := filepath.Rel(m.root, event.Name)
	if err != nil {
		return
	}
	project := filepath.Dir(rel)
	if project == "." {
		return
	}
	m.emitter.Emit(ctx, EventMediaChanged, map[string]any{
		"project": project,
		"file":    filepath.Base(event.Name),
	})
}
