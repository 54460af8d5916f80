// Package engine provides the core game logic for Dotto.
//
// The engine package implements the game mechanics including:
//   - Board generation from Settings (dots, powerups, barriers, crumblies)
//   - Move resolution through void cells, captures, pickups and portals
//   - Turn sequencing, per-player budgets and inventories
//   - Win detection and concession
//   - Snapshots for display and persistence
//
// Core Types:
//
// Board owns the grid and its coordinate indices. Game owns a Board plus the
// two players and the turn counter, and is the only thing that mutates the
// board once play has started. Every player intent is expressed as an Action
// and dispatched through Game.Apply.
//
// Usage:
//
//	rng := rand.New(rand.NewPCG(seed, seed))
//	game, err := engine.NewGame(engine.DefaultSettings(), rng)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game.BeginTurn()
//	result, err := game.Apply(engine.MoveAction(dot, engine.Up))
//	if errors.Is(err, engine.ErrIllegalDirection) {
//		// re-prompt, nothing changed
//	}
//
// Game Rules:
//
// Players take turns moving one of their dots orthogonally. Void cells are
// transparent and a dot falls through them until it reaches a cell it can
// land on. Landing on an opposing dot captures it. A player wins once the
// opponent has no dots left on the grid.
package engine
