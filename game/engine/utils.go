package engine

// CellsRemaining counts the cells that still block completion under rule
func CellsRemaining(grid *Grid, rule PlacementRule) int {
	if rule.FillAllTiles {
		return grid.Width()*grid.Height() - grid.FilledCount()
	}
	return grid.TargetCount() - grid.FilledTargetCount()
}

// Rotations returns the distinct clockwise rotations of shape, starting at 0
func Rotations(shape *Shape) []*Shape {
	out := []*Shape{shape}
	current := shape
	for i := 1; i < 4; i++ {
		current = current.RotateClockwise()
		dup := false
		for _, s := range out {
			if s.Equal(current) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, current)
		}
	}
	return out
}

// CoverableCells marks every board cell some shape can cover with at least
// one legal placement under rule
func CoverableCells(shapes []*Shape, width, height int, rule PlacementRule) [][]bool {
	m := newBoolMap(width, height)
	for _, base := range shapes {
		for _, s := range Rotations(base) {
			cells := s.OccupiedCells()
			for ox := -s.Width() + 1; ox < width; ox++ {
				for oy := -s.Height() + 1; oy < height; oy++ {
					pos := Position{X: ox, Y: oy}
					if !rule.CanPlace(cells, pos, width, height) {
						continue
					}
					for _, c := range cells {
						c = c.Add(pos)
						if c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height {
							m[c.X][c.Y] = true
						}
					}
				}
			}
		}
	}
	return m
}

// LevelAnalysis summarizes a level's difficulty heuristics
type LevelAnalysis struct {
	Name           string     `json:"name"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	TargetCells    int        `json:"target_cells"`
	CellsToFill    int        `json:"cells_to_fill"`
	ShapeCount     int        `json:"shape_count"`
	SmallestShape  int        `json:"smallest_shape"`
	LargestShape   int        `json:"largest_shape"`
	MinPlacements  int        `json:"min_placements"`
	OversizeShapes []string   `json:"oversize_shapes,omitempty"`
	Unreachable    []Position `json:"unreachable,omitempty"`
	TimeLimit      float64    `json:"time_limit_seconds"`
}

// AnalyzeLevel computes heuristics for config. MinPlacements is a lower bound
// assuming every placement is an OR of the largest shape.
func AnalyzeLevel(config *LevelConfig) (*LevelAnalysis, error) {
	target, err := config.TargetMap()
	if err != nil {
		return nil, err
	}
	shapes, err := config.BuildShapes()
	if err != nil {
		return nil, err
	}

	a := &LevelAnalysis{
		Name:       config.Name,
		Width:      config.Width,
		Height:     config.Height,
		ShapeCount: len(shapes),
		TimeLimit:  config.TimeLimitSeconds,
	}
	for x := range target {
		for y := range target[x] {
			if target[x][y] {
				a.TargetCells++
			}
		}
	}
	a.CellsToFill = a.TargetCells
	if config.FillAllTiles {
		a.CellsToFill = config.Width * config.Height
	}

	rule := config.Rule()
	for i, s := range shapes {
		n := s.CellCount()
		if i == 0 || n < a.SmallestShape {
			a.SmallestShape = n
		}
		if n > a.LargestShape {
			a.LargestShape = n
		}
		if rule.RequireFullyInside {
			fits := false
			for _, r := range Rotations(s) {
				if r.Width() <= config.Width && r.Height() <= config.Height {
					fits = true
					break
				}
			}
			if !fits {
				a.OversizeShapes = append(a.OversizeShapes, s.Name())
			}
		}
	}
	if a.LargestShape > 0 {
		a.MinPlacements = (a.CellsToFill + a.LargestShape - 1) / a.LargestShape
	}

	coverable := CoverableCells(shapes, config.Width, config.Height, rule)
	for x := 0; x < config.Width; x++ {
		for y := 0; y < config.Height; y++ {
			needed := config.FillAllTiles || target[x][y]
			if needed && !coverable[x][y] {
				a.Unreachable = append(a.Unreachable, Position{X: x, Y: y})
			}
		}
	}
	return a, nil
}
