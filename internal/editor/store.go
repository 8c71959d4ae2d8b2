package editor

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"fiona/internal/domain"
)

// Persister pushes editor mutations to the backend. The server is the
// durable copy; the editor never waits on it for local feedback except
// when creating a block, where the server assigns the id.
type Persister interface {
	CreateBlock(ctx context.Context, project string, block domain.Block) (*domain.Block, error)
	UpdateBlock(ctx context.Context, project, blockID string, patch domain.BlockPatch) error
	DeleteBlock(ctx context.Context, project, blockID string) error
}

// Saver schedules fire-and-forget debounced persistence of block
// updates, so a burst of edits reaches the backend as one write.
// client.BlockSaver implements it.
type Saver interface {
	Queue(project, blockID string, patch domain.BlockPatch)
}

// Default geometry for blocks created from the toolbar.
const (
	NewBlockLeft   = 100
	NewBlockTop    = 100
	NewBlockWidth  = 200
	NewBlockHeight = 150
)

// Store is the editor's working copy of a project's blocks. Mutations
// apply locally first and are pushed to the persister; a failed push is
// logged but never rolls back the local state.
type Store struct {
	project   string
	blocks    map[string]*domain.Block
	order     []string
	persister Persister
	saver     Saver
	logger    *log.Logger
}

// NewStore builds a working copy backed by the persister. A nil saver
// makes updates push synchronously; with a saver, updates debounce.
func NewStore(project string, persister Persister, saver Saver, logger *log.Logger) *Store {
	return &Store{
		project:   project,
		blocks:    map[string]*domain.Block{},
		persister: persister,
		saver:     saver,
		logger:    logger,
	}
}

// Project returns the project this store edits.
func (s *Store) Project() string {
	return s.project
}

// Replace resets the working copy from a loaded layout.
func (s *Store) Replace(blocks []domain.Block) {
	s.blocks = map[string]*domain.Block{}
	s.order = s.order[:0]
	for i := range blocks {
		b := blocks[i]
		s.blocks[b.ID] = &b
		s.order = append(s.order, b.ID)
	}
}

// Get returns the block with the given id, or nil.
func (s *Store) Get(id string) *domain.Block {
	return s.blocks[id]
}

// List returns the blocks in layout order.
func (s *Store) List() []domain.Block {
	out := make([]domain.Block, 0, len(s.order))
	for _, id := range s.order {
		if b, ok := s.blocks[id]; ok {
			out = append(out, *b)
		}
	}
	return out
}

// Add creates a block of the given type, at pos when given or at the
// default spot for a zero position. Creation is the one synchronous
// mutation: the server assigns the id, so a failed request adds nothing
// locally.
func (s *Store) Add(ctx context.Context, blockType domain.BlockType, pos domain.Position) (*domain.Block, error) {
	if pos == (domain.Position{}) {
		pos = domain.Position{
			Left:   NewBlockLeft,
			Top:    NewBlockTop,
			Width:  NewBlockWidth,
			Height: NewBlockHeight,
		}
	}
	candidate := domain.NewBlock(blockType, pos)

	created, err := s.persister.CreateBlock(ctx, s.project, candidate)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}

	b := *created
	s.blocks[b.ID] = &b
	s.order = append(s.order, b.ID)
	return &b, nil
}

// Update merges a patch into a block locally, then schedules a debounced
// write through the saver, falling back to a synchronous push without
// one. A push failure is logged; the local change stands.
func (s *Store) Update(ctx context.Context, id string, patch domain.BlockPatch) *domain.Block {
	b, ok := s.blocks[id]
	if !ok {
		return nil
	}
	b.Apply(patch)

	if s.saver != nil {
		s.saver.Queue(s.project, id, patch)
		return b
	}
	if err := s.persister.UpdateBlock(ctx, s.project, id, patch); err != nil {
		s.logger.Warn("block update not persisted", "id", id, "err", err)
	}
	return b
}

// Remove deletes a block locally first, then tells the persister. A
// remote failure is logged and the local removal stands.
func (s *Store) Remove(ctx context.Context, id string) bool {
	if _, ok := s.blocks[id]; !ok {
		return false
	}
	delete(s.blocks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if err := s.persister.DeleteBlock(ctx, s.project, id); err != nil {
		s.logger.Warn("block delete not persisted", "id", id, "err", err)
	}
	return true
}
