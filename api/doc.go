// Package api provides HTTP REST API handlers for Logic Fill.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"level_id": "..."}, optional)
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session and its file
//
// Play:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/place - Place a piece ({"slot", "x", "y"})
//   - POST /api/sessions/{id}/preview - Cell changes a placement would make
//   - POST /api/sessions/{id}/rotate - Rotate a slot ({"slot"}, or {"slot", "rotation"} to set)
//   - POST /api/sessions/{id}/restart - Restart the level
//   - POST /api/sessions/{id}/pause and /resume - Stop and restart the clock
//   - POST /api/sessions/{id}/next-level - Move on to the next level
//   - GET /api/sessions/{id}/history - Paginated placements (page, limit, order)
//
// Levels and preferences:
//   - GET /api/levels, GET /api/levels/{name}, POST /api/levels[?id=name.yaml]
//   - GET /api/prefs/{key}, PUT /api/prefs/{key} ({"value": "..."})
//
// Live updates are served on /ws?session=<id>; see package websocket.
//
// Errors are returned as {"error": "..."} with 404 for unknown sessions and
// levels, 400 for bad input, 409 for moves the game state forbids and 500
// otherwise.
package api
