// Package service provides the business logic layer for Logic Fill.
//
// The service package implements:
//   - Multi-session game management
//   - Level selection through the level manager and stored preferences
//   - Placement, preview and rotation of inventory pieces
//   - Wall-clock driven level timers
//   - Placement history with pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads, lists and saves level files.
// PreferenceStore keeps small settings such as the selected level.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance. Before every
// operation the session clock is advanced by the wall time since its last
// tick, so a level can be won or lost between requests; AdvanceClocks does the
// same for every session and is driven by a ticker in the server.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	levelMgr := config.NewManager("levels")
//	gameService := service.NewGameService(sessionMgr, levelMgr, prefsStore)
//
//	info, err := gameService.CreateSession(ctx, "")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Place(ctx, info.ID, 0, 3, 4)
package service
