// Package session provides session management for Logic Fill.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Optional JSON file persistence, one file per session
//   - Session cleanup and expiration
//
// Session Identifiers:
//
// Generated IDs are 4 lowercase hex characters. Callers may choose their own
// IDs made of letters, digits, '-' and '_'. Lookups are case-insensitive.
//
// Persistence:
//
// Each session file holds the level ID, a copy of the level configuration and
// the engine's GameState. On load the current level file is used when it still
// has the saved board size; otherwise the embedded copy is. The level clock
// resumes from the moment the session is loaded.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", levelManager)
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	sess, err := manager.Create("", "tutorial", level)
//
// Expired sessions are dropped from memory by CleanupExpiredSessions; their
// files stay on disk and are reloaded on the next Get.
package session
