// Package websocket streams hosted Dotto games to spectators.
//
// The package uses a hub-and-spoke model where a central Hub owns every
// connection. Each client connection has a read goroutine, which only keeps
// the connection alive, and a write goroutine that delivers queued messages
// and pings.
//
// Message Protocol:
//
// Messages are JSON objects, one per frame:
//
//	{"session_id": "ab12", "event": "state_update", "snapshot": {...}}
//	{"session_id": "ab12", "event": "pickup", "data": {"message": "Player 1 picked up a Portal!", ...}}
//
// Spectators subscribe with ?session=<id> and receive the current snapshot
// first. The hub never accepts moves; play happens at the console.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	gameService := service.NewGameService(sessions, configs, ledger, hub)
//
// Broadcasting never blocks the caller. When the queue is full the message
// is dropped and spectators catch up on the next state update.
package websocket
