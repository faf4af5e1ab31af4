package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/logicfill/game/engine"
)

const sampleLevel = `{
	"name": "sample",
	"width": 3,
	"height": 2,
	"time_limit_seconds": 30,
	"require_fully_inside": true,
	"inventory_slots": 2,
	"target": ["##.", "..."],
	"shapes": [{"name": "domino", "rows": ["##"]}],
	"messages": {"welcome": "Hi", "victory": "Won", "time_up": "Late"}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// writePNG draws an opaque pixel wherever rows has '#'
func writePNG(t *testing.T, dir string, rows []string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, row := range rows {
		for x := range row {
			if row[x] == '#' {
				img.Set(x, y, color.NRGBA{A: 255})
			}
		}
	}
	path := filepath.Join(dir, "picture.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(), append([]string{"leveltool"}, args...))
	return out.String(), err
}

func TestAnalyze_Text(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sample.json", sampleLevel)

	out, err := run(t, "--dir", dir, "analyze")
	if err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, out)
	}

	for _, want := range []string{
		"=== Analyzing sample.json ===",
		"Board: 3 x 2",
		"Target Cells: 2",
		"Minimum Placements: 1",
		"Time Limit: 30s",
		"Every required cell can be covered",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestAnalyze_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sample.json", sampleLevel)

	out, err := run(t, "analyze", "--json", path)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	var reports []engine.LevelAnalysis
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if len(reports) != 1 || reports[0].Name != "sample" || reports[0].LargestShape != 2 {
		t.Errorf("Unexpected report: %+v", reports)
	}
}

func TestAnalyze_Warnings(t *testing.T) {
	dir := t.TempDir()
	level := strings.Replace(sampleLevel, `[{"name": "domino", "rows": ["##"]}]`,
		`[{"name": "line4", "rows": ["####"]}]`, 1)
	writeFile(t, dir, "wide.json", level)

	out, err := run(t, "--dir", dir, "analyze")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out, `Shape "line4" never fits`) {
		t.Errorf("Expected oversize warning:\n%s", out)
	}
	if !strings.Contains(out, "CRITICAL: 2 cells can never be covered") {
		t.Errorf("Expected unreachable warning:\n%s", out)
	}
}

func TestAnalyze_BadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", sampleLevel)
	writeFile(t, dir, "broken.yaml", "name: [")

	out, err := run(t, "--dir", dir, "analyze")
	if err == nil {
		t.Fatal("Expected error for broken level")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "Error in broken.yaml") || !strings.Contains(out, "Analyzing good.json") {
		t.Errorf("Expected both files reported:\n%s", out)
	}
}

func TestAnalyze_EmptyDir(t *testing.T) {
	if _, err := run(t, "--dir", t.TempDir(), "analyze"); err == nil {
		t.Error("Expected error for empty level directory")
	}
}

func TestImportImage(t *testing.T) {
	dir := t.TempDir()
	picture := writePNG(t, dir, []string{
		"#..",
		"##.",
	})

	level, err := importImage(picture, imageOptions{Name: "stairs", Width: 3, Height: 2, Threshold: defaultThreshold, Slots: 3})
	if err != nil {
		t.Fatalf("importImage failed: %v", err)
	}
	if got := strings.Join(level.Target, "/"); got != "#../##." {
		t.Errorf("Expected target #../##., got %s", got)
	}
	if level.FillAllTiles {
		t.Error("Imported levels fill target cells only")
	}
	if countTargets(level) != 3 {
		t.Errorf("Expected 3 targets, got %d", countTargets(level))
	}
}

func TestImportImage_SizeMismatch(t *testing.T) {
	picture := writePNG(t, t.TempDir(), []string{"##", "##"})
	if _, err := importImage(picture, imageOptions{Name: "x", Width: 3, Height: 3, Slots: 3}); err == nil {
		t.Error("Expected error when image size differs from board")
	}
}

func TestImportImage_Transparent(t *testing.T) {
	picture := writePNG(t, t.TempDir(), []string{"..", ".."})
	if _, err := importImage(picture, imageOptions{Name: "blank", Width: 2, Height: 2, Slots: 3}); err == nil {
		t.Error("Expected validation error for a level with no target cells")
	}
}

func TestImportImageCommand(t *testing.T) {
	levels := t.TempDir()
	picture := writePNG(t, t.TempDir(), []string{"###", "#.#", "###"})

	out, err := run(t, "--dir", levels, "import-image", "--name", "ring", "--width", "3", "--height", "3", picture)
	if err != nil {
		t.Fatalf("import-image failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Saved level ring (8 target cells)") {
		t.Errorf("Unexpected output: %s", out)
	}

	saved, err := engine.LoadLevelConfig(filepath.Join(levels, "ring.json"))
	if err != nil {
		t.Fatalf("Saved level does not load: %v", err)
	}
	if saved.Target[1] != "#.#" {
		t.Errorf("Expected ring target, got %v", saved.Target)
	}
}

func TestImportImageCommand_RequiresPath(t *testing.T) {
	if _, err := run(t, "--dir", t.TempDir(), "import-image", "--name", "x"); err == nil {
		t.Error("Expected error without an image path")
	}
}
