// Package api serves a read-only HTTP view of hosted Dotto games.
//
// Games are played at the console. The API only lets spectators and tools
// look at them, so every route is a GET.
//
// Endpoints:
//
// Sessions:
//   - GET /api/sessions - List hosted games (?sort=created|accessed, ?order=asc|desc, ?status=playing|finished, ?limit=N)
//   - GET /api/sessions/{id} - Session summary with its snapshot
//   - GET /api/sessions/{id}/board - Snapshot plus row and column labels and the console rendering
//   - GET /api/sessions/{id}/moves - Legal moves for the player to move (?step=2 for a double jump)
//
// Settings and scores:
//   - GET /api/settings - Current settings, density label and dot limit
//   - GET /api/presets - Available presets
//   - GET /api/presets/{name} - A single preset
//   - GET /api/scores - Recorded victories
//
// Spectating:
//   - GET /ws?session={id} - WebSocket stream of snapshots and game events
//
// Coordinates in responses use the same notation players type: column
// number then row letters, so "3B" is column 3 of row B.
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
//
// Errors are returned as JSON with an appropriate status code:
//
//	{"error": "session not found: session not found"}
package api
