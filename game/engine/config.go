package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config validation")

// ShapeConfig declares a piece shape as text rows
type ShapeConfig struct {
	Name string   `json:"name" yaml:"name"`
	Rows []string `json:"rows" yaml:"rows"`
}

// LevelMessages holds the text shown to the player at each milestone
type LevelMessages struct {
	Welcome  string `json:"welcome" yaml:"welcome"`
	Placed   string `json:"placed" yaml:"placed"`
	Rejected string `json:"rejected" yaml:"rejected"`
	Victory  string `json:"victory" yaml:"victory"`
	TimeUp   string `json:"time_up" yaml:"time_up"`
}

// LevelConfig describes one level as stored in a JSON or YAML file
type LevelConfig struct {
	Name               string        `json:"name" yaml:"name"`
	Description        string        `json:"description" yaml:"description"`
	Index              int           `json:"index" yaml:"index"`
	Width              int           `json:"width" yaml:"width"`
	Height             int           `json:"height" yaml:"height"`
	TimeLimitSeconds   float64       `json:"time_limit_seconds" yaml:"time_limit_seconds"`
	FillAllTiles       bool          `json:"fill_all_tiles" yaml:"fill_all_tiles"`
	RequireFullyInside bool          `json:"require_fully_inside" yaml:"require_fully_inside"`
	InventorySlots     int           `json:"inventory_slots" yaml:"inventory_slots"`
	Target             []string      `json:"target" yaml:"target"`
	Shapes             []ShapeConfig `json:"shapes,omitempty" yaml:"shapes,omitempty"`
	Operations         []Operation   `json:"operations,omitempty" yaml:"operations,omitempty"`
	Messages           LevelMessages `json:"messages" yaml:"messages"`
}

// Rule returns the level's placement rule
func (c *LevelConfig) Rule() PlacementRule {
	return PlacementRule{RequireFullyInside: c.RequireFullyInside, FillAllTiles: c.FillAllTiles}
}

// TargetMap parses the target rows into an [x][y] map
func (c *LevelConfig) TargetMap() ([][]bool, error) {
	return RowsToMap(c.Target, c.Width, c.Height)
}

// BuildShapes returns the level's shapes, or the defaults when none are declared
func (c *LevelConfig) BuildShapes() ([]*Shape, error) {
	if len(c.Shapes) == 0 {
		return DefaultShapes(), nil
	}
	shapes := make([]*Shape, 0, len(c.Shapes))
	for _, sc := range c.Shapes {
		s, err := ShapeFromRows(sc.Name, sc.Rows)
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

// BuildOperations returns the operations pieces may carry; empty means all
func (c *LevelConfig) BuildOperations() []Operation {
	if len(c.Operations) == 0 {
		return AllOperations
	}
	ops := make([]Operation, 0, len(c.Operations))
	for _, op := range c.Operations {
		if parsed, err := ParseOperation(string(op)); err == nil {
			ops = append(ops, parsed)
		}
	}
	return ops
}

// FillAll marks every cell as target
func (c *LevelConfig) FillAll() {
	c.Target = TargetRows(uniformMap(c.Width, c.Height, true))
}

// ClearAll removes every target cell
func (c *LevelConfig) ClearAll() {
	c.Target = TargetRows(uniformMap(c.Width, c.Height, false))
}

// InvertAll flips every target cell
func (c *LevelConfig) InvertAll() error {
	m, err := c.TargetMap()
	if err != nil {
		return err
	}
	for x := range m {
		for y := range m[x] {
			m[x][y] = !m[x][y]
		}
	}
	c.Target = TargetRows(m)
	return nil
}

func uniformMap(width, height int, value bool) [][]bool {
	m := newBoolMap(width, height)
	for x := range m {
		for y := range m[x] {
			m[x][y] = value
		}
	}
	return m
}

// TargetRows renders an [x][y] map as rows
func TargetRows(m [][]bool) []string {
	width := len(m)
	height := 0
	if width > 0 {
		height = len(m[0])
	}
	return mapToRows(m, width, height)
}

// TargetFromImage marks a cell as target when the matching pixel's alpha,
// normalized to [0,1], exceeds threshold. Image row 0 maps to y 0.
func TargetFromImage(img image.Image, width, height int, threshold float64) ([][]bool, error) {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("target image must be exactly %dx%d pixels, got %dx%d", width, height, b.Dx(), b.Dy())
	}
	m := newBoolMap(width, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			m[x][y] = float64(a)/0xffff > threshold
		}
	}
	return m, nil
}

// ValidateLevelConfig validates a level configuration for correctness and playability
func ValidateLevelConfig(config *LevelConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	if config.Width < MinBoardSize || config.Width > MaxBoardSize {
		return fmt.Errorf("%w: width must be between %d and %d, got %d", ErrInvalidConfig, MinBoardSize, MaxBoardSize, config.Width)
	}
	if config.Height < MinBoardSize || config.Height > MaxBoardSize {
		return fmt.Errorf("%w: height must be between %d and %d, got %d", ErrInvalidConfig, MinBoardSize, MaxBoardSize, config.Height)
	}

	if config.TimeLimitSeconds < 0 {
		return fmt.Errorf("%w: time_limit_seconds must not be negative, got %g", ErrInvalidConfig, config.TimeLimitSeconds)
	}
	if config.InventorySlots < 1 || config.InventorySlots > MaxInventorySlots {
		return fmt.Errorf("%w: inventory_slots must be between 1 and %d, got %d", ErrInvalidConfig, MaxInventorySlots, config.InventorySlots)
	}

	// Validate target
	if len(config.Target) != config.Height {
		return fmt.Errorf("%w: target must have %d rows to match height, got %d", ErrInvalidConfig, config.Height, len(config.Target))
	}
	targets := 0
	for i, row := range config.Target {
		if len(row) != config.Width {
			return fmt.Errorf("%w: target row %d must have %d characters to match width, got %d",
				ErrInvalidConfig, i+1, config.Width, len(row))
		}
		for j := 0; j < len(row); j++ {
			set, ok := parseCellChar(row[j])
			if !ok {
				return fmt.Errorf("%w: invalid character '%c' at row %d, col %d", ErrInvalidConfig, row[j], i+1, j+1)
			}
			if set {
				targets++
			}
		}
	}
	if !config.FillAllTiles && targets == 0 {
		return fmt.Errorf("%w: target must contain at least one cell when fill_all_tiles is false", ErrInvalidConfig)
	}

	// Validate shapes
	seen := make(map[string]bool)
	for i, sc := range config.Shapes {
		if sc.Name == "" {
			return fmt.Errorf("%w: shapes[%d] name is required", ErrInvalidConfig, i)
		}
		key := strings.ToLower(sc.Name)
		if seen[key] {
			return fmt.Errorf("%w: duplicate shape name %q", ErrInvalidConfig, sc.Name)
		}
		seen[key] = true
		if len(sc.Rows) == 0 || len(sc.Rows) > MaxShapeSize || len(sc.Rows[0]) == 0 || len(sc.Rows[0]) > MaxShapeSize {
			return fmt.Errorf("%w: shape %q must be between 1x1 and %dx%d", ErrInvalidConfig, sc.Name, MaxShapeSize, MaxShapeSize)
		}
		s, err := ShapeFromRows(sc.Name, sc.Rows)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if s.CellCount() == 0 {
			return fmt.Errorf("%w: shape %q has no occupied cells", ErrInvalidConfig, sc.Name)
		}
	}

	for i, op := range config.Operations {
		if _, err := ParseOperation(string(op)); err != nil {
			return fmt.Errorf("%w: operations[%d]: %v", ErrInvalidConfig, i, err)
		}
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("%w: messages.welcome is required", ErrInvalidConfig)
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("%w: messages.victory is required", ErrInvalidConfig)
	}
	if config.TimeLimitSeconds > 0 && config.Messages.TimeUp == "" {
		return fmt.Errorf("%w: messages.time_up is required when time_limit_seconds is set", ErrInvalidConfig)
	}
	if config.Messages.Placed != "" && !validPlacedFormat(config.Messages.Placed) {
		return fmt.Errorf("%w: messages.placed must contain exactly one %%d for filled cells and no other verbs", ErrInvalidConfig)
	}

	return nil
}

// validPlacedFormat reports whether msg holds exactly one %d verb. "%%" is
// a literal percent sign; any other verb is rejected.
func validPlacedFormat(msg string) bool {
	verbs := 0
	for i := 0; i < len(msg); i++ {
		if msg[i] != '%' {
			continue
		}
		if i+1 >= len(msg) {
			return false
		}
		i++
		switch msg[i] {
		case '%':
		case 'd':
			verbs++
		default:
			return false
		}
	}
	return verbs == 1
}

// ParseLevelConfig decodes a level from data. format is "json", "yaml" or "yml".
func ParseLevelConfig(data []byte, format string) (*LevelConfig, error) {
	var config LevelConfig
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported level format %q", format)
	}

	if err := ValidateLevelConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadLevelConfig loads a level from a .json, .yaml or .yml file
func LoadLevelConfig(filename string) (*LevelConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseLevelConfig(data, filepath.Ext(filename))
}

// DefaultShapes is the built-in shape pool used when a level declares none
func DefaultShapes() []*Shape {
	defs := []ShapeConfig{
		{Name: "dot", Rows: []string{"#"}},
		{Name: "domino", Rows: []string{"##"}},
		{Name: "line3", Rows: []string{"###"}},
		{Name: "line4", Rows: []string{"####"}},
		{Name: "square", Rows: []string{"##", "##"}},
		{Name: "ell", Rows: []string{"#.", "#.", "##"}},
		{Name: "tee", Rows: []string{"###", ".#."}},
		{Name: "ess", Rows: []string{".##", "##."}},
		{Name: "corner", Rows: []string{"##", "#."}},
		{Name: "plus", Rows: []string{".#.", "###", ".#."}},
	}
	shapes := make([]*Shape, 0, len(defs))
	for _, d := range defs {
		s, err := ShapeFromRows(d.Name, d.Rows)
		if err != nil {
			panic(fmt.Sprintf("default shape %q: %v", d.Name, err))
		}
		shapes = append(shapes, s)
	}
	return shapes
}

// DefaultLevelConfig returns the built-in 15x15 fill-all level
func DefaultLevelConfig() *LevelConfig {
	config := &LevelConfig{
		Name:               "default",
		Description:        "Fill every tile of the 15x15 board before time runs out",
		Index:              1,
		Width:              DefaultBoardSize,
		Height:             DefaultBoardSize,
		TimeLimitSeconds:   300,
		FillAllTiles:       true,
		RequireFullyInside: true,
		InventorySlots:     DefaultInventorySlots,
	}
	config.FillAll()
	config.Messages = LevelMessages{
		Welcome:  "Welcome! Place pieces to fill the board.",
		Placed:   "Placed! %d cells filled",
		Rejected: "That piece does not fit there",
		Victory:  "Victory! The board is complete!",
		TimeUp:   "Time's up! Game Over!",
	}
	return config
}
