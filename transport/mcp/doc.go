// Package mcp exposes Logic Fill to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, so agents and browser clients share sessions and WebSocket
// updates. Tool results are plain text built for reading, with the board
// drawn in a four-character legend (# o + .).
//
// Tools:
//   - create_session, list_sessions, get_session
//   - get_state, preview_placement, place_piece
//   - rotate_piece, set_rotation
//   - restart, pause, resume, next_level
//   - placement_history, list_levels
//   - get_preference, set_preference
//   - game_instructions
//
// The same server is reachable two ways: POST /mcp on the HTTP server, or
// stdio when the binary runs in mcp mode.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
