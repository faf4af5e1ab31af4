// Package websocket pushes Logic Fill game state to browser and agent clients.
//
// A central Hub owns every connection. Clients attach to one session with
// /ws?session=<id>; the hub goroutine handles registration and fans each
// broadcast out to the clients of that session only.
//
// Every outgoing message has the shape
//
//	{"session_id": "ab12", "game_state": {...}, "event": "place", "data": ...}
//
// where event is one of state_update, place, victory, time_up or level_change.
// Incoming client messages are read and discarded so pings and close frames
// are handled; play itself goes through the REST API or MCP tools.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.BroadcastToSession(sessionID, state)
package websocket
