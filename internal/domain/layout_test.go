package domain

import "testing"

func TestPageDimensions(t *testing.T) {
	d := PageDimensions(FormatA4, OrientationPortrait)
	if d.Width != 794 || d.Height != 1123 {
		t.Fatalf("A4 portrait = %+v", d)
	}

	d = PageDimensions(FormatA4, OrientationLandscape)
	if d.Width != 1123 || d.Height != 794 {
		t.Fatalf("A4 landscape = %+v", d)
	}

	d = PageDimensions("bogus", OrientationPortrait)
	if d.Width != 794 || d.Height != 1123 {
		t.Fatalf("unknown format should fall back to A4, got %+v", d)
	}
}

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout("My Project!")
	if l.Project != "my-project" {
		t.Fatalf("project = %q", l.Project)
	}
	if l.Format != FormatA4 || l.Orientation != OrientationPortrait {
		t.Fatalf("format/orientation = %q/%q", l.Format, l.Orientation)
	}
	if l.Columns != 3 || l.Baseline != 24 || l.Gutter != 32 {
		t.Fatalf("grid = %d/%d/%d", l.Columns, l.Baseline, l.Gutter)
	}
	if !l.Snap || l.Zoom != 1.0 {
		t.Fatalf("snap/zoom = %v/%v", l.Snap, l.Zoom)
	}
	if l.Blocks == nil || len(l.Blocks) != 0 {
		t.Fatalf("blocks = %v", l.Blocks)
	}
}

func TestLayoutNormalize(t *testing.T) {
	l := &Layout{
		Project:     "Weird Name",
		Format:      "B3",
		Orientation: "upside-down",
		Columns:     99,
		Baseline:    0,
		Gutter:      -5,
		Blocks: []Block{
			{Type: BlockTypeImage, Position: Position{Width: 300, Height: 10}},
		},
	}
	l.Normalize()

	if l.Project != "weird-name" {
		t.Fatalf("project = %q", l.Project)
	}
	if l.Format != FormatA4 || l.Orientation != OrientationPortrait {
		t.Fatalf("format/orientation = %q/%q", l.Format, l.Orientation)
	}
	if l.Dimensions.Width != 794 || l.Dimensions.Height != 1123 {
		t.Fatalf("dimensions = %+v", l.Dimensions)
	}
	if l.Columns != MaxColumns {
		t.Fatalf("columns = %d", l.Columns)
	}
	if l.Baseline != DefaultBaseline {
		t.Fatalf("baseline = %d", l.Baseline)
	}
	if l.Gutter != MinGutter {
		t.Fatalf("gutter = %d", l.Gutter)
	}
	if l.Zoom != 1.0 {
		t.Fatalf("zoom = %v", l.Zoom)
	}

	b := l.Blocks[0]
	if b.ID == "" {
		t.Fatal("block without id should be assigned one")
	}
	if b.Position.Height != MinBlockSize {
		t.Fatalf("block height = %d", b.Position.Height)
	}
}

func TestLayoutApply(t *testing.T) {
	l := DefaultLayout("p")
	landscape := OrientationLandscape
	letter := FormatLetter
	cols := 4
	l.Apply(LayoutPatch{Format: &letter, Orientation: &landscape, Columns: &cols})

	if l.Format != FormatLetter || l.Orientation != OrientationLandscape {
		t.Fatalf("format/orientation = %q/%q", l.Format, l.Orientation)
	}
	if l.Dimensions.Width != 1056 || l.Dimensions.Height != 816 {
		t.Fatalf("dimensions not recomputed: %+v", l.Dimensions)
	}
	if l.Columns != 4 {
		t.Fatalf("columns = %d", l.Columns)
	}
}

func TestFindAndRemoveBlock(t *testing.T) {
	l := DefaultLayout("p")
	l.Blocks = []Block{
		{ID: "block-a"},
		{ID: "block-b"},
	}

	if b := l.FindBlock("block-b"); b == nil || b.ID != "block-b" {
		t.Fatalf("FindBlock = %v", b)
	}
	if b := l.FindBlock("missing"); b != nil {
		t.Fatalf("FindBlock(missing) = %v", b)
	}

	if !l.RemoveBlock("block-a") {
		t.Fatal("expected removal")
	}
	if l.RemoveBlock("block-a") {
		t.Fatal("second removal should report false")
	}
	if len(l.Blocks) != 1 || l.Blocks[0].ID != "block-b" {
		t.Fatalf("blocks = %v", l.Blocks)
	}
}

func TestUniqueBlockID(t *testing.T) {
	l := DefaultLayout("p")
	l.Blocks = []Block{{ID: "block-taken"}}

	if id := l.UniqueBlockID("block-free"); id != "block-free" {
		t.Fatalf("free id should be kept, got %q", id)
	}
	if id := l.UniqueBlockID("block-taken"); id == "block-taken" || id == "" {
		t.Fatalf("collision should regenerate, got %q", id)
	}
	if id := l.UniqueBlockID(""); id == "" {
		t.Fatal("empty preferred should generate")
	}
}

func TestSanitizeProject(t *testing.T) {
	cases := []struct{ in, want string }{
		{"My Project", "my-project"},
		{"  ", "default"},
		{"___", "default"},
		{"notes.2026", "notes.2026"},
		{"Grafică șantier", "grafic-antier"},
	}
	for _, c := range cases {
		if got := SanitizeProject(c.in); got != c.want {
			t.Fatalf("SanitizeProject(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
