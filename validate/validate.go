// Command validate checks every level file (*.json, *.yaml, *.yml) in a
// directory. It reports:
//   - parse errors and structural problems (size, target rows, shapes, messages)
//   - shapes that can never fit on the board when pieces must stay inside
//   - cells that must be filled but no shape can reach
//
// Usage: validate [levels-dir]   (default ../levels)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/logicfill/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Messages holds informational lines; otherwise it
// accumulates the problems that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Messages []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// validateLevel loads one level file and runs the structural and reachability checks.
func validateLevel(filePath string) ValidationResult {
	result := ValidationResult{
		File:     filepath.Base(filePath),
		Valid:    true,
		Messages: []string{},
	}

	level, err := engine.LoadLevelConfig(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	analysis, err := engine.AnalyzeLevel(level)
	if err != nil {
		result.fail("Analysis failed: %v", err)
		return result
	}

	for _, name := range analysis.OversizeShapes {
		result.fail("Shape %q does not fit a %dx%d board in any rotation", name, level.Width, level.Height)
	}

	if n := len(analysis.Unreachable); n > 0 {
		result.fail("Reachability failure: %d/%d required cells cannot be covered by any shape", n, analysis.CellsToFill)
		for i, p := range analysis.Unreachable {
			if i == 5 {
				result.fail("... and %d more", n-5)
				break
			}
			result.fail("Unreachable: (%d,%d)", p.X, p.Y)
		}
	}

	if result.Valid {
		result.Messages = append(result.Messages, summarize(level, analysis)...)
	}
	return result
}

func summarize(level *engine.LevelConfig, a *engine.LevelAnalysis) []string {
	mode := "target only"
	if level.FillAllTiles {
		mode = "fill all tiles"
	}
	timeLimit := "none"
	if a.TimeLimit > 0 {
		timeLimit = fmt.Sprintf("%gs", a.TimeLimit)
	}
	return []string{
		fmt.Sprintf("✓ Name: %s", level.Name),
		fmt.Sprintf("✓ Board: %dx%d (%s)", a.Width, a.Height, mode),
		fmt.Sprintf("✓ Cells to fill: %d", a.CellsToFill),
		fmt.Sprintf("✓ Shapes: %d (sizes %d-%d)", a.ShapeCount, a.SmallestShape, a.LargestShape),
		fmt.Sprintf("✓ Minimum placements: %d", a.MinPlacements),
		fmt.Sprintf("✓ Time limit: %s", timeLimit),
		fmt.Sprintf("✓ Reachability: all %d required cells coverable", a.CellsToFill),
	}
}

// levelFiles lists the level files in dir in name order.
func levelFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates each level file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	levelDir := "../levels"
	if len(os.Args) > 1 {
		levelDir = os.Args[1]
	}

	files, err := levelFiles(levelDir)
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No level files found in %s\n", levelDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateLevel(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Messages {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, msg := range result.Messages {
				fmt.Println("  ❌ " + msg)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
