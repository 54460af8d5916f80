package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"
)

// Client is a thin MCP client that proxies to the spectator REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Dotto",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Dotto - MCP Interface

Dotto is a two-player grid game played at a shared console. This interface
lets you watch hosted games and reason about them. It cannot make moves.

AVAILABLE TOOLS:
- list_sessions: List hosted games
- board_state: Board, inventories and whose turn it is
- legal_moves: Where each of the current player's dots can go
- describe_cell: What a single cell holds, by coordinate (e.g. 3B)
- list_scores: Recorded victories
- game_rules: The full rules

Coordinates are written column number first, then row letters.`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID of the hosted game",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List hosted games, most recently active first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"playing", "finished"},
					"description": "Only list games in this state (optional)",
				},
			},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get the board of a hosted game with both players' inventories",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "legal_moves",
		Description: "List the legal moves of the player whose turn it is",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"step": map[string]interface{}{
					"type":        "integer",
					"enum":        []int{1, 2},
					"description": "1 for a normal move, 2 for a Double-Jump (default 1)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleLegalMoves)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe a single cell of a hosted game's board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"coord": map[string]interface{}{
					"type":        "string",
					"description": "Cell coordinate, column number then row letters (e.g. 3B)",
				},
			},
			Required: []string{"session_id", "coord"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scores",
		Description: "List recorded victories",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScores)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the complete rules of Dotto",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func requireString(args map[string]interface{}, key string) (string, error) {
	value, _ := args[key].(string)
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return strings.TrimSpace(value), nil
}

// Tool handlers

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	query := url.Values{}
	if status, _ := args["status"].(string); status != "" {
		query.Set("status", status)
	}

	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	path := "/api/sessions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hosted games (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		b.WriteString("- " + formatSessionLine(s) + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := requireString(arguments(request), "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var board struct {
		Snapshot *engine.Snapshot `json:"snapshot"`
		Text     string           `json:"text"`
	}
	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID)+"/board", nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if board.Snapshot == nil {
		return mcp.NewToolResultError("the server returned no board"), nil
	}
	return mcp.NewToolResultText(formatBoard(board.Snapshot, board.Text)), nil
}

func (c *Client) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	step := 1
	if raw, ok := args["step"]; ok {
		n, err := cast.ToIntE(raw)
		if err != nil || n < 1 || n > 2 {
			return mcp.NewToolResultError("step must be 1 or 2"), nil
		}
		step = n
	}

	var response struct {
		Player engine.PlayerID `json:"player"`
		Turn   int             `json:"turn"`
		Moves  []struct {
			Dot          string            `json:"dot"`
			Destinations map[string]string `json:"destinations"`
		} `json:"moves"`
	}
	path := fmt.Sprintf("/api/sessions/%s/moves?step=%d", url.PathEscape(sessionID), step)
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s to move (turn %d)", response.Player, response.Turn)
	if step == 2 {
		b.WriteString(", Double-Jump")
	}
	b.WriteString(":\n")
	if len(response.Moves) == 0 {
		b.WriteString("No dot can move.\n")
	}
	for _, m := range response.Moves {
		names := make([]string, 0, len(m.Destinations))
		for name := range m.Destinations {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s -> %s", name, m.Destinations[name]))
		}
		fmt.Fprintf(&b, "- %s: %s\n", m.Dot, strings.Join(parts, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := requireString(args, "coord")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var board struct {
		Snapshot *engine.Snapshot `json:"snapshot"`
	}
	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID)+"/board", nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap := board.Snapshot
	if snap == nil {
		return mcp.NewToolResultError("the server returned no board"), nil
	}

	coord, err := engine.ParseCoord(raw, snap.Length, snap.Width)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v (the board is %d rows by %d columns)", err, snap.Length, snap.Width)), nil
	}
	cell, _ := snap.Cell(coord)
	return mcp.NewToolResultText(describeCell(snap, coord, cell)), nil
}

func (c *Client) handleListScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var records []service.ScoreRecord
	if err := c.apiCall(ctx, http.MethodGet, "/api/scores", nil, &records); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatScores(records)), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(rules), nil
}

const rules = `Dotto - Rules

OBJECTIVE:
Capture every one of your opponent's dots. Player 1 plays O and starts in
the top-left corner, Player 2 plays X and starts in the bottom-right.

BOARD LEGEND:
  /  Open space
     Void (blank). Dots pass over voids but never stop on one
  #  Barrier, blocks movement
  ?  Powerup, picked up by moving onto it
  ~  Crumbly space, turns to void when a dot leaves it
  @  Portal, sends the dot to the linked portal
  O  Player 1 dot
  X  Player 2 dot

COORDINATES:
Column number first, then row letters: 3B is column 3 of row B. On boards
wider than 9 columns the number is zero padded (03B) but the padding is
optional when typing.

A TURN:
Each turn the player picks exactly one of:
  Move        Move one of your dots one space with W, A, S or D. A move
              carries on over voids until it reaches a space it can stop
              on. Moving onto an opponent's dot captures it.
  Delete      Turn an open space into a void (limited per player).
  Create      Turn a void into an open space (limited per player).
  Powerup     Use a powerup from your inventory.
  Concede     Give the game to your opponent.

POWERUPS:
  Portal       Place two linked portals on open spaces.
  Double-Jump  Move a dot two spaces in one go, jumping over whatever is
               between.
  Destroyer    Turn a barrier into an open space.

Every few turns a new powerup appears on a random open space.`

// Formatting helpers

func formatSessionLine(s *service.SessionInfo) string {
	line := fmt.Sprintf("%s (%dx%d, turn %d", s.ID, s.Settings.Length, s.Settings.Width, s.TurnNumber)
	if s.Preset != "" {
		line += ", preset " + s.Preset
	}
	if s.Status == engine.StatusFinished {
		line += fmt.Sprintf(", won by %s", s.Winner)
	} else {
		line += fmt.Sprintf(", %s to move", s.Turn)
	}
	return line + ")"
}

func formatBoard(snap *engine.Snapshot, text string) string {
	var b strings.Builder
	if snap.Status == engine.StatusFinished {
		fmt.Fprintf(&b, "GAME OVER: %s won after %d turns (%s)\n\n", snap.Winner, snap.TurnNumber, snap.Reason)
	} else {
		fmt.Fprintf(&b, "Turn %d, %s (%s) to move\n\n", snap.TurnNumber, snap.Turn, snap.Turn.Dot())
	}
	b.WriteString(text)
	b.WriteString("\n")

	for _, p := range snap.Players {
		inventory := "none"
		if len(p.Inventory) > 0 {
			names := make([]string, 0, len(p.Inventory))
			for _, k := range p.Inventory {
				names = append(names, string(k))
			}
			inventory = strings.Join(names, ", ")
		}
		fmt.Fprintf(&b, "%s (%s): %d dots, %d deletes, %d creates, powerups: %s\n",
			p.ID, p.Symbol, len(p.Dots), p.Deletes, p.Creates, inventory)
	}

	if len(snap.Portals) > 0 {
		pairs := make([]string, 0, len(snap.Portals))
		for _, portal := range snap.Portals {
			pairs = append(pairs, engine.FormatCoord(portal.A, snap.Width)+"<->"+engine.FormatCoord(portal.B, snap.Width))
		}
		fmt.Fprintf(&b, "Portals: %s\n", strings.Join(pairs, ", "))
	}
	return b.String()
}

func describeCell(snap *engine.Snapshot, c engine.Coord, cell engine.Cell) string {
	label := engine.FormatCoord(c, snap.Width)
	var description string
	switch cell {
	case engine.Open:
		description = "Open space. Dots can stop here and it can be deleted."
	case engine.Void:
		description = "Void. Dots pass over it. It can be turned back into an open space with a create."
	case engine.Barrier:
		description = "Barrier. Blocks movement until a Destroyer removes it."
	case engine.Powerup:
		description = "Powerup. The first dot to land here collects a random powerup."
	case engine.Crumbly:
		description = "Crumbly space. It collapses into a void when a dot leaves it."
	case engine.PortalMarker:
		description = "Portal. A dot entering it comes out at the linked portal"
		for _, portal := range snap.Portals {
			if portal.Has(c) {
				description += " at " + engine.FormatCoord(portal.Other(c), snap.Width)
			}
		}
		description += "."
	case engine.Player1Dot, engine.Player2Dot:
		owner := engine.Player1
		if cell == engine.Player2Dot {
			owner = engine.Player2
		}
		description = fmt.Sprintf("A dot belonging to %s.", owner)
	default:
		description = "Unknown."
	}

	for _, crumbly := range snap.Crumblies {
		if crumbly == c && cell.IsDot() {
			description += " It stands on a crumbly space."
		}
	}
	return fmt.Sprintf("Cell %s shows %q (%s)\n%s", label, cell.String(), cell.Name(), description)
}

func formatScores(records []service.ScoreRecord) string {
	if len(records) == 0 {
		return "No victories recorded yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recorded victories (%d):\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "- %s won a %dx%d game with %d dots in %d turns\n", r.Name, r.Length, r.Width, r.Dots, r.Turns)
	}
	return b.String()
}
