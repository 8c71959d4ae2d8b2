package client

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"

	"fiona/internal/domain"
)

// SaveInterval is how long the saver waits for edits to settle before
// writing. Trailing edge only: a burst of edits produces one request.
const SaveInterval = 500 * time.Millisecond

// BlockSaver coalesces rapid block edits into debounced writes. Each
// queued edit merges into the pending patch for its block and bumps a
// generation counter; a flush that loses the race to newer edits is
// stale and its failure is discarded rather than reported, since the
// newer flush supersedes it.
type BlockSaver struct {
	client  *Client
	logger  *log.Logger
	timeout time.Duration

	mu        sync.Mutex
	debounced func(func())
	gen       uint64
	pending   map[saveKey]*domain.BlockPatch

	// wg lets tests wait for in-flight flushes.
	wg sync.WaitGroup
}

type saveKey struct {
	project string
	blockID string
}

func NewBlockSaver(c *Client, logger *log.Logger) *BlockSaver {
	return &BlockSaver{
		client:    c,
		logger:    logger,
		timeout:   10 * time.Second,
		debounced: debounce.New(SaveInterval),
		pending:   map[saveKey]*domain.BlockPatch{},
	}
}

// Queue records an edit for debounced persistence and returns
// immediately. The caller's local state is already updated; the saver
// only owns getting it to the server eventually.
func (s *BlockSaver) Queue(project, blockID string, patch domain.BlockPatch) {
	s.mu.Lock()
	key := saveKey{project: project, blockID: blockID}
	if existing, ok := s.pending[key]; ok {
		mergePatch(existing, patch)
	} else {
		p := patch
		s.pending[key] = &p
	}
	s.gen++
	s.mu.Unlock()

	s.debounced(s.flush)
}

// Flush sends everything pending right away, skipping the debounce
// window. Used on page unload.
func (s *BlockSaver) Flush() {
	s.flush()
	s.wg.Wait()
}

func (s *BlockSaver) flush() {
	s.mu.Lock()
	batch := s.pending
	gen := s.gen
	s.pending = map[saveKey]*domain.BlockPatch{}
	s.mu.Unlock()

	for key, patch := range batch {
		key, patch := key, patch
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			err := s.client.UpdateBlock(ctx, key.project, key.blockID, *patch)
			if err == nil {
				return
			}

			s.mu.Lock()
			stale := s.gen != gen
			s.mu.Unlock()
			if stale {
				// A newer edit supersedes this write; its flush will carry
				// the freshest state.
				return
			}
			s.logger.Warn("debounced save failed", "block", key.blockID, "err", err)
		}()
	}
}

// mergePatch folds src into dst, field by field. Later edits win.
func mergePatch(dst *domain.BlockPatch, src domain.BlockPatch) {
	if src.Content != nil {
		dst.Content = src.Content
	}
	if src.ImageURL != nil {
		dst.ImageURL = src.ImageURL
	}
	if src.BackgroundColor != nil {
		dst.BackgroundColor = src.BackgroundColor
	}
	if src.TextColor != nil {
		dst.TextColor = src.TextColor
	}
	if src.BorderRadius != nil {
		dst.BorderRadius = src.BorderRadius
	}
	if src.Position != nil {
		if dst.Position == nil {
			dst.Position = &domain.PositionPatch{}
		}
		if src.Position.Left != nil {
			dst.Position.Left = src.Position.Left
		}
		if src.Position.Top != nil {
			dst.Position.Top = src.Position.Top
		}
		if src.Position.Width != nil {
			dst.Position.Width = src.Position.Width
		}
		if src.Position.Height != nil {
			dst.Position.Height = src.Position.Height
		}
	}
}
