// Package config manages the level files for Logic Fill.
//
// Levels live in a single directory as .json, .yaml or .yml files. The file
// name without its extension is the level ID used when creating sessions.
// Each level declares its board size, target pattern, timer, placement rule,
// inventory size, shape pool and player messages.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("tutorial")
//	id, defaultLevel := manager.GetDefault()
//	levels, err := manager.ListLevels()
//
// The default level is "default" when such a file exists, otherwise the level
// with the lowest index, otherwise the built-in 15x15 fill-all level. Levels
// are ordered by their index field and NextLevel walks that order.
package config
