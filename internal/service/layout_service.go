package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"fiona/internal/domain"
	"fiona/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Layout Service — business logic for project layouts
// ─────────────────────────────────────────────────────────────

// Events emitted to the frontend.
const (
	EventLayoutSaved  = "layout:saved"
	EventBlockCreated = "block:created"
	EventBlockUpdated = "block:updated"
	EventBlockDeleted = "block:deleted"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// LayoutService manages the lifecycle of project layouts and their blocks.
type LayoutService struct {
	store   *storage.LayoutStore
	db      *storage.DB
	emitter EventEmitter
	logger  *log.Logger
}

// NewLayoutService creates a LayoutService.
func NewLayoutService(store *storage.LayoutStore, db *storage.DB, emitter EventEmitter, logger *log.Logger) *LayoutService {
	return &LayoutService{store: store, db: db, emitter: emitter, logger: logger}
}

// GetLayout returns the layout for a project, or a fresh default layout
// when the project has never been saved.
func (s *LayoutService) GetLayout(project string) (*domain.Layout, error) {
	project = domain.SanitizeProject(project)
	l, err := s.store.LoadLayout(project)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultLayout(project), nil
		}
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return l, nil
}

// SaveLayout normalizes and persists a full layout.
func (s *LayoutService) SaveLayout(ctx context.Context, layout *domain.Layout) error {
	layout.Normalize()
	if err := s.store.SaveLayout(layout); err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	s.emitter.Emit(ctx, EventLayoutSaved, map[string]any{"project": layout.Project})
	return nil
}

// UpdateLayout applies a partial update to a project's page and grid
// settings, leaving blocks untouched.
func (s *LayoutService) UpdateLayout(ctx context.Context, project string, patch domain.LayoutPatch) (*domain.Layout, error) {
	l, err := s.GetLayout(project)
	if err != nil {
		return nil, err
	}
	l.Apply(patch)
	if err := s.store.SaveLayout(l); err != nil {
		return nil, fmt.Errorf("update layout: %w", err)
	}
	s.emitter.Emit(ctx, EventLayoutSaved, map[string]any{"project": l.Project})
	return l, nil
}

// AddBlock appends a sanitized block to a project's layout. A missing or
// colliding id is replaced with a generated one.
func (s *LayoutService) AddBlock(ctx context.Context, project string, block domain.Block) (*domain.Block, error) {
	l, err := s.GetLayout(project)
	if err != nil {
		return nil, err
	}
	block.ID = l.UniqueBlockID(block.ID)
	block.Sanitize()

	if err := s.store.CreateBlock(l.Project, &block); err != nil {
		return nil, fmt.Errorf("add block: %w", err)
	}
	s.emitter.Emit(ctx, EventBlockCreated, map[string]any{"project": l.Project, "id": block.ID})
	return &block, nil
}

// UpdateBlock merges a patch into an existing block and persists it.
func (s *LayoutService) UpdateBlock(ctx context.Context, project, blockID string, patch domain.BlockPatch) (*domain.Block, error) {
	l, err := s.GetLayout(project)
	if err != nil {
		return nil, err
	}
	b := l.FindBlock(blockID)
	if b == nil {
		return nil, fmt.Errorf("block %s: %w", blockID, domain.ErrNotFound)
	}
	b.Apply(patch)
	if err := s.store.UpdateBlock(l.Project, b); err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	s.emitter.Emit(ctx, EventBlockUpdated, map[string]any{"project": l.Project, "id": b.ID})
	return b, nil
}

// DeleteBlock removes a block from a project's layout.
func (s *LayoutService) DeleteBlock(ctx context.Context, project, blockID string) error {
	project = domain.SanitizeProject(project)
	if err := s.store.DeleteBlock(project, blockID); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	s.emitter.Emit(ctx, EventBlockDeleted, map[string]any{"project": project, "id": blockID})
	return nil
}

// ListProjects returns every known project name.
func (s *LayoutService) ListProjects() ([]string, error) {
	return s.store.ListProjects()
}

// SaveImage stores an uploaded file in the project's media directory under
// a collision-proof name and returns the URL path the frontend embeds.
func (s *LayoutService) SaveImage(project, filename string, r io.Reader) (string, error) {
	project = domain.SanitizeProject(project)

	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = domain.SanitizeProject(stem)
	name := fmt.Sprintf("%s-%s%s", stem, strings.ReplaceAll(uuid.New().String(), "-", "")[:10], ext)

	dir, err := s.db.MediaDir(project)
	if err != nil {
		return "", err
	}
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}

	s.logger.Info("image saved", "project", project, "file", name)
	return "/project-assets/" + project + "/" + name, nil
}

// MediaPath resolves an asset name inside the project's media directory,
// rejecting path traversal.
func (s *LayoutService) MediaPath(project, name string) (string, error) {
	project = domain.SanitizeProject(project)
	if name != filepath.Base(name) || name == "." || name == "" {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	dir, err := s.db.MediaDir(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Fingerprint returns a change token for a project's persisted state.
func (s *LayoutService) Fingerprint(project string) (string, error) {
	return s.store.Fingerprint(domain.SanitizeProject(project))
}
