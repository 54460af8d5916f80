// Package session provides session management for Dotto.
//
// The session package implements:
//   - Thread-safe storage of hosted games
//   - Unique session ID generation
//   - JSON file persistence so an unfinished game can be resumed later
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// FilePersistence writes each session to <sessions dir>/<id>.json as an
// engine snapshot plus session metadata; loading restores and validates the
// snapshot.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Caller supplied IDs
// may use letters, digits, '-' and '_' and are matched case-insensitively.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence(sessionsDir)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", game, "classic")
package session
