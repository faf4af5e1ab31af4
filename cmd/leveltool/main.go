// Command leveltool inspects and builds level files.
//
//	leveltool analyze [--json] [files...]      print difficulty heuristics
//	leveltool import-image --width W --height H --name N image.png
//	                                             build a level whose target is the image's opaque pixels
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/logicfill/game/config"
	"github.com/wricardo/logicfill/game/engine"
)

const defaultThreshold = 0.1

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "leveltool",
		Usage:     "inspect and build Logic Fill levels",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   "levels",
				Usage:   "level directory",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "print heuristics for level files (all levels in --dir when none given)",
				ArgsUsage: "[files...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files := cmd.Args().Slice()
					if len(files) == 0 {
						var err error
						if files, err = levelFiles(cmd.String("dir")); err != nil {
							return err
						}
					}
					if len(files) == 0 {
						return fmt.Errorf("no level files in %s", cmd.String("dir"))
					}
					return analyzeFiles(out, files, cmd.Bool("json"))
				},
			},
			{
				Name:      "import-image",
				Usage:     "create a level whose target cells are the image's opaque pixels",
				ArgsUsage: "<image.png>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "level name and file ID", Required: true},
					&cli.IntFlag{Name: "width", Value: engine.DefaultBoardSize, Usage: "board width; must match the image"},
					&cli.IntFlag{Name: "height", Value: engine.DefaultBoardSize, Usage: "board height; must match the image"},
					&cli.FloatFlag{Name: "threshold", Value: defaultThreshold, Usage: "alpha above which a pixel is a target cell"},
					&cli.FloatFlag{Name: "time-limit", Value: 300, Usage: "time limit in seconds; 0 disables the clock"},
					&cli.IntFlag{Name: "slots", Value: engine.DefaultInventorySlots, Usage: "inventory slots"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("import-image needs exactly one image path")
					}
					level, err := importImage(cmd.Args().First(), imageOptions{
						Name:      cmd.String("name"),
						Width:     cmd.Int("width"),
						Height:    cmd.Int("height"),
						Threshold: cmd.Float("threshold"),
						TimeLimit: cmd.Float("time-limit"),
						Slots:     cmd.Int("slots"),
					})
					if err != nil {
						return err
					}

					levels, err := config.NewManager(cmd.String("dir"))
					if err != nil {
						return err
					}
					if err := levels.SaveLevel(level.Name, level); err != nil {
						return err
					}
					fmt.Fprintf(out, "Saved level %s (%d target cells) to %s\n",
						level.Name, countTargets(level), cmd.String("dir"))
					return nil
				},
			},
		},
	}
}

// levelFiles lists the level files in dir in name order
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

// analyzeFiles prints one report per file. A file that fails to load is
// reported and counted; the returned error names how many failed.
func analyzeFiles(w io.Writer, files []string, asJSON bool) error {
	failed := 0
	var reports []*engine.LevelAnalysis
	for _, path := range files {
		level, err := engine.LoadLevelConfig(path)
		if err == nil {
			var a *engine.LevelAnalysis
			if a, err = engine.AnalyzeLevel(level); err == nil {
				if asJSON {
					reports = append(reports, a)
				} else {
					fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filepath.Base(path))
					printAnalysis(w, a)
				}
				continue
			}
		}
		failed++
		fmt.Fprintf(w, "Error in %s: %v\n", filepath.Base(path), err)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d levels failed to load", failed, len(files))
	}
	return nil
}

func printAnalysis(w io.Writer, a *engine.LevelAnalysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Board: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(w, "Target Cells: %d\n", a.TargetCells)
	fmt.Fprintf(w, "Cells To Fill: %d\n", a.CellsToFill)
	fmt.Fprintf(w, "Shapes: %d (smallest %d, largest %d)\n", a.ShapeCount, a.SmallestShape, a.LargestShape)
	fmt.Fprintf(w, "Minimum Placements: %d\n", a.MinPlacements)
	if a.TimeLimit > 0 {
		fmt.Fprintf(w, "Time Limit: %gs (%.1fs per placement)\n", a.TimeLimit, a.TimeLimit/float64(max(a.MinPlacements, 1)))
	} else {
		fmt.Fprintf(w, "Time Limit: none\n")
	}

	for _, name := range a.OversizeShapes {
		fmt.Fprintf(w, "⚠️  Shape %q never fits on the board\n", name)
	}

	if len(a.Unreachable) > 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: %d cells can never be covered!\n", len(a.Unreachable))
		for i, p := range a.Unreachable {
			if i < 5 { // Show first 5
				fmt.Fprintf(w, "   Unreachable: (%d, %d)\n", p.X, p.Y)
			}
		}
		if len(a.Unreachable) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(a.Unreachable)-5)
		}
	} else {
		fmt.Fprintf(w, "✅ Every required cell can be covered\n")
	}
}

type imageOptions struct {
	Name      string
	Width     int
	Height    int
	Threshold float64
	TimeLimit float64
	Slots     int
}

// importImage builds a target-only level from a PNG whose size matches the board
func importImage(path string, opts imageOptions) (*engine.LevelConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	target, err := engine.TargetFromImage(img, opts.Width, opts.Height, opts.Threshold)
	if err != nil {
		return nil, err
	}

	level := &engine.LevelConfig{
		Name:               opts.Name,
		Description:        fmt.Sprintf("Imported from %s", filepath.Base(path)),
		Width:              opts.Width,
		Height:             opts.Height,
		TimeLimitSeconds:   opts.TimeLimit,
		RequireFullyInside: true,
		InventorySlots:     opts.Slots,
		Target:             engine.TargetRows(target),
		Messages: engine.LevelMessages{
			Welcome:  "Fill the highlighted cells.",
			Placed:   "Placed! %d cells filled",
			Rejected: "That piece does not fit there",
			Victory:  "Victory! The picture is complete!",
			TimeUp:   "Time's up! Game Over!",
		},
	}
	if err := engine.ValidateLevelConfig(level); err != nil {
		return nil, err
	}
	return level, nil
}

func countTargets(level *engine.LevelConfig) int {
	m, err := level.TargetMap()
	if err != nil {
		return 0
	}
	n := 0
	for x := range m {
		for y := range m[x] {
			if m[x][y] {
				n++
			}
		}
	}
	return n
}
