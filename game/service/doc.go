// Package service provides the business logic layer for Dotto.
//
// The service package implements:
//   - Hosted games addressed by session ID
//   - Current settings and named presets
//   - Action processing with human readable events
//   - The score ledger
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager stores hosted games. ConfigManager owns the current settings
// and presets. ScoreLedger stores finished results. Notifier is told about
// every change so spectators can follow along.
//
// Architecture:
//
// The service layer sits between the front ends (console, HTTP, WebSocket,
// MCP) and the game engine. Engine games are not safe for concurrent use, so
// every call that touches a game holds the service lock.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs", settingsFile)
//	ledger := scores.NewLedger(scoresFile)
//	gameService := service.NewGameService(sessionMgr, configMgr, ledger, nil)
//
//	info, err := gameService.CreateSession(ctx, service.CreateOptions{Preset: "classic"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Apply(ctx, info.ID, engine.MoveAction(engine.Coord{}, engine.Right))
package service
