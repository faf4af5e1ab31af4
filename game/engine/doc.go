// Package engine provides the core game logic for the Logic Fill puzzle.
//
// The engine package implements the game mechanics including:
//   - A fixed-size occupancy grid with a parallel target map
//   - Piece shapes, clockwise rotation and logic-gate operations (AND, OR, NOT)
//   - Placement validation and completion checks
//   - A random piece factory and a self-refilling inventory
//   - Level countdown and win/lose outcome tracking
//   - Level configuration loading (JSON or YAML) and validation
//
// Core Types:
//
// Board owns a Grid and applies Pieces to it under a PlacementRule. The
// Engine interface, implemented by GameEngine, ties a Board to an Inventory,
// a Countdown and an Outcome for one playable level. GameState is the
// serializable snapshot of a GameEngine.
//
// Usage:
//
//	config, err := engine.LoadLevelConfig("levels/default.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Rotate the first piece and place it at (3, 4)
//	_ = gameEngine.Rotate(0)
//	ok, err := gameEngine.Place(0, 3, 4)
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Each placement applies the piece's operation to every covered board cell:
// OR fills the cell, NOT flips it and AND leaves it unchanged. A placement
// that breaks the level's containment rule is rejected without touching the
// board. The level is won once every cell (fill-all levels) or every target
// cell is filled, and lost when the countdown reaches zero first.
package engine
