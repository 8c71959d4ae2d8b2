package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"fiona/internal/domain"
	"fiona/internal/storage"
)

func testService(t *testing.T) (*LayoutService, *MockEmitter) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "fiona.db"), filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emitter := &MockEmitter{}
	svc := NewLayoutService(storage.NewLayoutStore(db), db, emitter, log.New(io.Discard))
	return svc, emitter
}

func TestGetLayoutDefault(t *testing.T) {
	svc, _ := testService(t)

	l, err := svc.GetLayout("Fresh Project")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if l.Project != "fresh-project" {
		t.Fatalf("project = %q", l.Project)
	}
	if l.Format != domain.FormatA4 || len(l.Blocks) != 0 {
		t.Fatalf("expected empty default layout, got %+v", l)
	}
}

func TestSaveAndGetLayout(t *testing.T) {
	svc, emitter := testService(t)
	ctx := context.Background()

	l := domain.DefaultLayout("demo")
	l.Blocks = []domain.Block{{ID: "block-1", Type: domain.BlockTypeText, Content: "hi"}}
	if err := svc.SaveLayout(ctx, l); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := svc.GetLayout("demo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Blocks) != 1 || got.Blocks[0].Content != "hi" {
		t.Fatalf("blocks = %v", got.Blocks)
	}

	if len(emitter.Events) != 1 || emitter.Events[0].Event != EventLayoutSaved {
		t.Fatalf("events = %v", emitter.Events)
	}
}

func TestUpdateLayoutPatch(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	landscape := domain.OrientationLandscape
	l, err := svc.UpdateLayout(ctx, "demo", domain.LayoutPatch{Orientation: &landscape})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if l.Orientation != domain.OrientationLandscape {
		t.Fatalf("orientation = %q", l.Orientation)
	}
	if l.Dimensions.Width != 1123 || l.Dimensions.Height != 794 {
		t.Fatalf("dimensions = %+v", l.Dimensions)
	}

	got, err := svc.GetLayout("demo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Orientation != domain.OrientationLandscape {
		t.Fatalf("patch not persisted: %q", got.Orientation)
	}
}

func TestAddBlockGeneratesID(t *testing.T) {
	svc, emitter := testService(t)
	ctx := context.Background()

	b, err := svc.AddBlock(ctx, "demo", domain.Block{
		Type:     domain.BlockTypeText,
		Position: domain.Position{Left: 10, Top: 10, Width: 5, Height: 5},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.HasPrefix(b.ID, "block-") {
		t.Fatalf("id = %q", b.ID)
	}
	if b.Position.Width != domain.MinBlockSize {
		t.Fatalf("width not clamped: %d", b.Position.Width)
	}

	if len(emitter.Events) != 1 || emitter.Events[0].Event != EventBlockCreated {
		t.Fatalf("events = %v", emitter.Events)
	}
}

func TestAddBlockCollidingID(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	first, err := svc.AddBlock(ctx, "demo", domain.Block{ID: "block-x", Type: domain.BlockTypeText})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := svc.AddBlock(ctx, "demo", domain.Block{ID: "block-x", Type: domain.BlockTypeText})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.ID != "block-x" {
		t.Fatalf("first id = %q", first.ID)
	}
	if second.ID == "block-x" {
		t.Fatal("colliding id should be regenerated")
	}
}

func TestUpdateBlockPatch(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	b, err := svc.AddBlock(ctx, "demo", domain.Block{Type: domain.BlockTypeText})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	left := 300
	radius := 500
	got, err := svc.UpdateBlock(ctx, "demo", b.ID, domain.BlockPatch{
		Position:     &domain.PositionPatch{Left: &left},
		BorderRadius: &radius,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Position.Left != 300 {
		t.Fatalf("left = %d", got.Position.Left)
	}
	if got.BorderRadius != domain.MaxBorderRadius {
		t.Fatalf("borderRadius = %d", got.BorderRadius)
	}
}

func TestUpdateBlockMissing(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.UpdateBlock(context.Background(), "demo", "block-nope", domain.BlockPatch{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBlock(t *testing.T) {
	svc, emitter := testService(t)
	ctx := context.Background()

	b, err := svc.AddBlock(ctx, "demo", domain.Block{Type: domain.BlockTypeText})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.DeleteBlock(ctx, "demo", b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteBlock(ctx, "demo", b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	last := emitter.Events[len(emitter.Events)-1]
	if last.Event != EventBlockDeleted {
		t.Fatalf("last event = %q", last.Event)
	}
}

func TestSaveImage(t *testing.T) {
	svc, _ := testService(t)

	url, err := svc.SaveImage("My Project", "Site Photo.PNG", strings.NewReader("fake-png"))
	if err != nil {
		t.Fatalf("save image: %v", err)
	}
	if !strings.HasPrefix(url, "/project-assets/my-project/") {
		t.Fatalf("url = %q", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Fatalf("url = %q", url)
	}

	name := filepath.Base(url)
	path, err := svc.MediaPath("My Project", name)
	if err != nil {
		t.Fatalf("media path: %v", err)
	}
	if filepath.Base(path) != name {
		t.Fatalf("path = %q", path)
	}
}

func TestSaveImageRejectsNonImage(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.SaveImage("demo", "notes.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected rejection of non-image extension")
	}
}

func TestMediaPathRejectsTraversal(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.MediaPath("demo", "../../etc/passwd"); err == nil {
		t.Fatal("expected rejection of traversal")
	}
}
