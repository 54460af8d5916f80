// Package mcp exposes hosted Dotto games to AI agents over the Model Context
// Protocol.
//
// The client is a thin proxy: every tool calls the spectator REST API of a
// running host and formats the answer as text. Like the API it is read-only.
//
// MCP Tools:
//   - list_sessions: Hosted games with their turn and status
//   - board_state: The board as the console shows it, plus both inventories
//   - legal_moves: Destinations of every dot of the player to move
//   - describe_cell: What a cell holds, addressed the way players type it (3B)
//   - list_scores: Recorded victories
//   - game_rules: The rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
