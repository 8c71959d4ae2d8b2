package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"fiona/internal/domain"
)

// LayoutStore implements domain.LayoutStore using SQLite.
type LayoutStore struct {
	db *DB
}

func NewLayoutStore(db *DB) *LayoutStore {
	return &LayoutStore{db: db}
}

// LoadLayout reads a layout and its blocks in stored order. It returns
// domain.ErrNotFound when the project has never been saved.
func (s *LayoutStore) LoadLayout(project string) (*domain.Layout, error) {
	l := &domain.Layout{Project: project}
	var snap int
	err := s.db.Conn().QueryRow(
		`SELECT format, orientation, columns, baseline, gutter, snap, zoom FROM layouts WHERE project = ?`, project,
	).Scan(&l.Format, &l.Orientation, &l.Columns, &l.Baseline, &l.Gutter, &snap, &l.Zoom)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("layout %s: %w", project, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	l.Snap = snap != 0

	rows, err := s.db.Conn().Query(
		`SELECT id, type, content, image_url, x, y, width, height, background_color, text_color, border_radius
		 FROM blocks WHERE project = ? ORDER BY sort_order ASC`, project,
	)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	defer rows.Close()

	l.Blocks = []domain.Block{}
	for rows.Next() {
		var b domain.Block
		if err := rows.Scan(
			&b.ID, &b.Type, &b.Content, &b.ImageURL,
			&b.Position.Left, &b.Position.Top, &b.Position.Width, &b.Position.Height,
			&b.BackgroundColor, &b.TextColor, &b.BorderRadius,
		); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		l.Blocks = append(l.Blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	l.Normalize()
	return l, nil
}

// SaveLayout atomically replaces the stored layout and all of its blocks.
func (s *LayoutStore) SaveLayout(layout *domain.Layout) error {
	layout.Normalize()

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.Exec(
		`INSERT INTO layouts (project, format, orientation, columns, baseline, gutter, snap, zoom, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project) DO UPDATE SET
			format = excluded.format, orientation = excluded.orientation,
			columns = excluded.columns, baseline = excluded.baseline,
			gutter = excluded.gutter, snap = excluded.snap,
			zoom = excluded.zoom, updated_at = excluded.updated_at`,
		layout.Project, layout.Format, layout.Orientation,
		layout.Columns, layout.Baseline, layout.Gutter, boolInt(layout.Snap), layout.Zoom, now, now,
	)
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM blocks WHERE project = ?`, layout.Project); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}

	for i, b := range layout.Blocks {
		_, err := tx.Exec(
			`INSERT INTO blocks (id, project, type, content, image_url, x, y, width, height, background_color, text_color, border_radius, sort_order, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, layout.Project, b.Type, b.Content, b.ImageURL,
			b.Position.Left, b.Position.Top, b.Position.Width, b.Position.Height,
			b.BackgroundColor, b.TextColor, b.BorderRadius, i, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID, err)
		}
	}

	return tx.Commit()
}

// CreateBlock appends a block to a project's layout, creating the layout
// row first if the project has never been saved.
func (s *LayoutStore) CreateBlock(project string, block *domain.Block) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.Exec(
		`INSERT INTO layouts (project, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(project) DO UPDATE SET updated_at = excluded.updated_at`,
		project, now, now,
	); err != nil {
		return fmt.Errorf("ensure layout: %w", err)
	}

	var next int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(sort_order), -1) + 1 FROM blocks WHERE project = ?`, project,
	).Scan(&next); err != nil {
		return fmt.Errorf("next sort order: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO blocks (id, project, type, content, image_url, x, y, width, height, background_color, text_color, border_radius, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		block.ID, project, block.Type, block.Content, block.ImageURL,
		block.Position.Left, block.Position.Top, block.Position.Width, block.Position.Height,
		block.BackgroundColor, block.TextColor, block.BorderRadius, next, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}

	return tx.Commit()
}

// UpdateBlock rewrites a block row in place, keeping its sort order.
func (s *LayoutStore) UpdateBlock(project string, block *domain.Block) error {
	res, err := s.db.Conn().Exec(
		`UPDATE blocks SET type = ?, content = ?, image_url = ?, x = ?, y = ?, width = ?, height = ?,
			background_color = ?, text_color = ?, border_radius = ?, updated_at = ?
		 WHERE project = ? AND id = ?`,
		block.Type, block.Content, block.ImageURL,
		block.Position.Left, block.Position.Top, block.Position.Width, block.Position.Height,
		block.BackgroundColor, block.TextColor, block.BorderRadius, time.Now(),
		project, block.ID,
	)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("block %s: %w", block.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *LayoutStore) DeleteBlock(project, blockID string) error {
	res, err := s.db.Conn().Exec(`DELETE FROM blocks WHERE project = ? AND id = ?`, project, blockID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("block %s: %w", blockID, domain.ErrNotFound)
	}
	return nil
}

// ListProjects returns every saved project name. The default project is
// always present even before its first save.
func (s *LayoutStore) ListProjects() ([]string, error) {
	rows, err := s.db.Conn().Query(`SELECT project FROM layouts ORDER BY project ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []string{}
	hasDefault := false
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		if p == domain.DefaultProject {
			hasDefault = true
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !hasDefault {
		projects = append(projects, domain.DefaultProject)
		sort.Strings(projects)
	}
	return projects, nil
}

// Fingerprint summarizes a project's persisted state as a cheap change
// token: block count plus the latest update timestamps.
func (s *LayoutStore) Fingerprint(project string) (string, error) {
	var count int
	var layoutStamp, blockStamp sql.NullString
	err := s.db.Conn().QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM blocks WHERE project = ?),
			(SELECT MAX(updated_at) FROM layouts WHERE project = ?),
			(SELECT MAX(updated_at) FROM blocks WHERE project = ?)`,
		project, project, project,
	).Scan(&count, &layoutStamp, &blockStamp)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return fmt.Sprintf("%d|%s|%s", count, layoutStamp.String, blockStamp.String), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
