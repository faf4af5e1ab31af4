package engine

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidLevel() *LevelConfig {
	config := &LevelConfig{
		Name:               "Test Level",
		Description:        "A valid test level",
		Index:              2,
		Width:              4,
		Height:             3,
		TimeLimitSeconds:   90,
		FillAllTiles:       false,
		RequireFullyInside: true,
		InventorySlots:     3,
		Target: []string{
			"....",
			".##.",
			"....",
		},
		Shapes: []ShapeConfig{
			{Name: "dot", Rows: []string{"#"}},
			{Name: "pair", Rows: []string{"##"}},
		},
	}
	config.Messages.Welcome = "Welcome!"
	config.Messages.Placed = "Placed! %d cells filled"
	config.Messages.Rejected = "Nope"
	config.Messages.Victory = "Victory!"
	config.Messages.TimeUp = "Time's up!"
	return config
}

func TestValidateLevelConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*LevelConfig)
		wantErr string
	}{
		{"valid", func(c *LevelConfig) {}, ""},
		{"missing name", func(c *LevelConfig) { c.Name = "" }, "name is required"},
		{"zero width", func(c *LevelConfig) { c.Width = 0 }, "width must be between"},
		{"huge height", func(c *LevelConfig) { c.Height = MaxBoardSize + 1 }, "height must be between"},
		{"negative time", func(c *LevelConfig) { c.TimeLimitSeconds = -1 }, "time_limit_seconds"},
		{"no slots", func(c *LevelConfig) { c.InventorySlots = 0 }, "inventory_slots"},
		{"row count", func(c *LevelConfig) { c.Target = c.Target[:2] }, "target must have 3 rows"},
		{"row width", func(c *LevelConfig) { c.Target[1] = ".#" }, "target row 2"},
		{"bad char", func(c *LevelConfig) { c.Target[0] = "..?." }, "invalid character '?'"},
		{"no targets", func(c *LevelConfig) { c.Target[1] = "...." }, "at least one cell"},
		{"no targets fill all", func(c *LevelConfig) { c.Target[1] = "...."; c.FillAllTiles = true }, ""},
		{"unnamed shape", func(c *LevelConfig) { c.Shapes[0].Name = "" }, "name is required"},
		{"duplicate shape", func(c *LevelConfig) { c.Shapes[1].Name = "DOT" }, "duplicate shape"},
		{"empty shape", func(c *LevelConfig) { c.Shapes[0].Rows = []string{".."} }, "no occupied cells"},
		{"ragged shape", func(c *LevelConfig) { c.Shapes[0].Rows = []string{"##", "#"} }, "row 2"},
		{"oversize shape", func(c *LevelConfig) { c.Shapes[0].Rows = []string{strings.Repeat("#", MaxShapeSize+1)} }, "must be between"},
		{"no welcome", func(c *LevelConfig) { c.Messages.Welcome = "" }, "messages.welcome"},
		{"no victory", func(c *LevelConfig) { c.Messages.Victory = "" }, "messages.victory"},
		{"no time up", func(c *LevelConfig) { c.Messages.TimeUp = "" }, "messages.time_up"},
		{"untimed no time up", func(c *LevelConfig) { c.Messages.TimeUp = ""; c.TimeLimitSeconds = 0 }, ""},
		{"placed format", func(c *LevelConfig) { c.Messages.Placed = "Placed!" }, "%d"},
		{"placed extra verb", func(c *LevelConfig) { c.Messages.Placed = "Placed %s! %d cells" }, "%d"},
		{"placed two counts", func(c *LevelConfig) { c.Messages.Placed = "%d of %d" }, "%d"},
		{"placed trailing percent", func(c *LevelConfig) { c.Messages.Placed = "%d cells 100%" }, "%d"},
		{"placed literal percent", func(c *LevelConfig) { c.Messages.Placed = "%d cells, 50%% done" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidLevel()
			tt.modify(config)
			err := ValidateLevelConfig(config)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateDefaultLevel(t *testing.T) {
	if err := ValidateLevelConfig(DefaultLevelConfig()); err != nil {
		t.Fatalf("Default level is invalid: %v", err)
	}
}

const yamlLevel = `name: yaml-level
description: Loaded from YAML
index: 3
width: 3
height: 2
time_limit_seconds: 0
fill_all_tiles: false
require_fully_inside: false
inventory_slots: 2
target:
  - "#.."
  - "..#"
shapes:
  - name: bar
    rows: ["##"]
messages:
  welcome: Hi
  victory: Done
`

const jsonLevel = `{
  "name": "json-level",
  "description": "Loaded from JSON",
  "index": 4,
  "width": 2,
  "height": 2,
  "time_limit_seconds": 30,
  "fill_all_tiles": true,
  "require_fully_inside": true,
  "inventory_slots": 3,
  "target": ["##", "##"],
  "messages": {"welcome": "Hi", "victory": "Done", "time_up": "Late"}
}`

func TestLoadLevelConfigFormats(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "a.yaml")
	jsonPath := filepath.Join(dir, "b.json")
	if err := os.WriteFile(yamlPath, []byte(yamlLevel), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonPath, []byte(jsonLevel), 0644); err != nil {
		t.Fatal(err)
	}

	y, err := LoadLevelConfig(yamlPath)
	if err != nil {
		t.Fatalf("Failed to load YAML level: %v", err)
	}
	if y.Name != "yaml-level" || y.Index != 3 || y.RequireFullyInside || y.InventorySlots != 2 {
		t.Errorf("YAML level decoded incorrectly: %+v", y)
	}
	m, _ := y.TargetMap()
	if !m[0][0] || !m[2][1] || m[1][0] {
		t.Errorf("YAML target decoded incorrectly: %v", y.Target)
	}

	j, err := LoadLevelConfig(jsonPath)
	if err != nil {
		t.Fatalf("Failed to load JSON level: %v", err)
	}
	if j.Name != "json-level" || j.TimeLimitSeconds != 30 || len(j.Shapes) != 0 {
		t.Errorf("JSON level decoded incorrectly: %+v", j)
	}
	shapes, err := j.BuildShapes()
	if err != nil || len(shapes) != len(DefaultShapes()) {
		t.Errorf("Expected default shapes, got %d (%v)", len(shapes), err)
	}
}

func TestLoadLevelConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLevelConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	txt := filepath.Join(dir, "level.txt")
	os.WriteFile(txt, []byte(jsonLevel), 0644)
	if _, err := LoadLevelConfig(txt); err == nil {
		t.Error("Expected error for unsupported extension")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"name": "x"}`), 0644)
	if _, err := LoadLevelConfig(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestTargetFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{A: 20}) // ~0.078, below threshold
	img.SetNRGBA(2, 1, color.NRGBA{A: 40}) // ~0.157, above threshold

	m, err := TargetFromImage(img, 3, 2, TargetAlphaThreshold)
	if err != nil {
		t.Fatalf("TargetFromImage failed: %v", err)
	}
	rows := TargetRows(m)
	if rows[0] != "#.." || rows[1] != "..#" {
		t.Errorf("Unexpected target rows %v", rows)
	}

	if _, err := TargetFromImage(img, 15, 15, TargetAlphaThreshold); err == nil {
		t.Error("Expected size mismatch error")
	}
}

func TestLevelConfigTargetEditing(t *testing.T) {
	config := createValidLevel()
	if err := config.InvertAll(); err != nil {
		t.Fatal(err)
	}
	if config.Target[1] != "#..#" {
		t.Errorf("InvertAll produced %v", config.Target)
	}
	config.ClearAll()
	if config.Target[0] != "...." {
		t.Errorf("ClearAll produced %v", config.Target)
	}
	config.FillAll()
	if config.Target[2] != "####" {
		t.Errorf("FillAll produced %v", config.Target)
	}
}
