package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/logicfill/game/engine"
	"github.com/wricardo/logicfill/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
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
		"Logic Fill",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Logic Fill - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Fill the board so it matches the target before the timer runs out. Each
inventory slot holds a shape with a logic operation:
  OR  sets every covered cell
  NOT toggles every covered cell
  AND leaves the board unchanged

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage sessions
- get_state: board, target, inventory and timer
- preview_placement: see which cells a placement would change
- place_piece: place the piece in a slot with its top-left at (x,y)
- rotate_piece / set_rotation: turn a piece (0-3 quarter turns clockwise)
- restart / pause / resume / next_level: level lifecycle
- placement_history: past placements
- list_levels: available levels
- get_preference / set_preference: stored settings
- game_instructions: full rules

Coordinates are (x,y) with x the column and y the row, both from 0.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session, optionally on a specific level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Level to play (optional, defaults to the selected level)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_state",
		Description: "Get the board, target, inventory and remaining time",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetState)

	placement := map[string]interface{}{
		"session_id": sessionProperty(),
		"slot":       intProperty("Inventory slot (0-based)"),
		"x":          intProperty("Column of the piece's top-left corner"),
		"y":          intProperty("Row of the piece's top-left corner"),
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_piece",
		Description: "Place the piece in a slot on the board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: placement,
			Required:   []string{"session_id", "slot", "x", "y"},
		},
	}, c.handlePlace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "preview_placement",
		Description: "Show which cells a placement would change without applying it",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: placement,
			Required:   []string{"session_id", "slot", "x", "y"},
		},
	}, c.handlePreview)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rotate_piece",
		Description: "Rotate the piece in a slot a quarter turn clockwise",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"slot":       intProperty("Inventory slot (0-based)"),
			},
			Required: []string{"session_id", "slot"},
		},
	}, c.handleRotate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_rotation",
		Description: "Set the rotation of the piece in a slot (clamped to 0-3)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"slot":       intProperty("Inventory slot (0-based)"),
				"rotation":   intProperty("Quarter turns clockwise, 0-3"),
			},
			Required: []string{"session_id", "slot", "rotation"},
		},
	}, c.handleSetRotation)

	for _, lifecycle := range []struct {
		name, description, path string
	}{
		{"restart", "Restart the current level", "restart"},
		{"pause", "Pause the level clock", "pause"},
		{"resume", "Resume a paused level", "resume"},
		{"next_level", "Move the session on to the next level", "next-level"},
	} {
		c.mcpServer.AddTool(mcp.Tool{
			Name:        lifecycle.name,
			Description: lifecycle.description,
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"session_id": sessionProperty()},
				Required:   []string{"session_id"},
			},
		}, c.lifecycleHandler(lifecycle.path))
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "placement_history",
		Description: "Get paginated placement history",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page":       intProperty("Page number (default 1)"),
				"limit":      intProperty("Placements per page (default 20)"),
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc, default)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleHistory)

	// Levels and preferences
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_preference",
		Description: "Read a stored preference such as selected_level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"key": map[string]interface{}{"type": "string", "description": "Preference key"},
			},
			Required: []string{"key"},
		},
	}, c.handleGetPreference)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_preference",
		Description: "Store a preference",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"key":   map[string]interface{}{"type": "string", "description": "Preference key"},
				"value": map[string]interface{}{"type": "string", "description": "Preference value"},
			},
			Required: []string{"key", "value"},
		},
	}, c.handleSetPreference)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the full game rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
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

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// placementArgs reads the required session_id, slot, x and y arguments
func placementArgs(request mcp.CallToolRequest) (string, map[string]int, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return "", nil, err
	}
	body := map[string]int{}
	for _, key := range []string{"slot", "x", "y"} {
		v, err := request.RequireInt(key)
		if err != nil {
			return "", nil, err
		}
		body[key] = v
	}
	return sessionID, body, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if levelID := request.GetString("level_id", ""); levelID != "" {
		body["level_id"] = levelID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s",
		session.ID, session.LevelID, formatGameState(session.GameState))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := ""
		if s.GameState != nil {
			status = string(s.GameState.Status)
		}
		fmt.Fprintf(&b, "- %s (Level: %s, Status: %s, Created: %s)\n",
			s.ID, s.LevelID, status, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handlePlace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, body, err := placementArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.PlaceResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/place"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPlaceResult(&result)), nil
}

func (c *Client) handlePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, body, err := placementArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.PreviewResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/preview"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPreview(&result)), nil
}

func (c *Client) handleRotate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slot, err := request.RequireInt("slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/rotate"), map[string]int{"slot": slot}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatInventory(&state)), nil
}

func (c *Client) handleSetRotation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slot, err := request.RequireInt("slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rotation, err := request.RequireInt("rotation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]int{"slot": slot, "rotation": rotation}
	var state engine.GameState
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/rotate"), body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatInventory(&state)), nil
}

// lifecycleHandler posts to a session action that takes no body
func (c *Client) lifecycleHandler(action string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var raw json.RawMessage
		if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/"+action), nil, &raw); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		// restart wraps the state, next-level returns session info, pause and resume the bare state
		var wrapped struct {
			Message   string            `json:"message"`
			State     *engine.GameState `json:"state"`
			GameState *engine.GameState `json:"game_state"`
			LevelID   string            `json:"level_id"`
		}
		json.Unmarshal(raw, &wrapped)
		switch {
		case wrapped.State != nil:
			return mcp.NewToolResultText(wrapped.Message + "\n\n" + formatGameState(wrapped.State)), nil
		case wrapped.GameState != nil:
			return mcp.NewToolResultText(fmt.Sprintf("Now playing level %s\n\n%s", wrapped.LevelID, formatGameState(wrapped.GameState))), nil
		}
		var state engine.GameState
		if err := json.Unmarshal(raw, &state); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatGameState(&state)), nil
	}
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		params.Set("order", order)
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, level := range levels {
		mode := "fill target"
		if level.FillAllTiles {
			mode = "fill all"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Board: %dx%d, Time: %gs, Mode: %s\n\n",
			level.LevelID, level.Name, level.Description, level.Width, level.Height, level.TimeLimitSeconds, mode)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetPreference(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var resp map[string]string
	if err := c.apiCall(ctx, "GET", "/api/prefs/"+url.PathEscape(key), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s = %s", key, resp["value"])), nil
}

func (c *Client) handleSetPreference(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := c.apiCall(ctx, "PUT", "/api/prefs/"+url.PathEscape(key), map[string]string{"value": value}, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %s = %s", key, value)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `LOGIC FILL - RULES

BOARD
  The board is a grid of cells, each filled or empty. Row 0 is the top, column
  0 the left. Coordinates are given as (x,y).

TARGET
  Levels either require every cell filled (fill all) or exactly the cells of
  a target map. In target mode a cell outside the target must end up empty.

INVENTORY
  Each slot holds one piece: a shape plus an operation.
    OR  fills every covered cell
    NOT flips every covered cell
    AND changes nothing
  A placed piece is replaced by a fresh random piece in the same slot.

PLACING
  A placement puts the piece's top-left corner at (x,y). Most levels require
  the whole piece to lie on the board; otherwise the part that hangs off is
  ignored. A placement that would change no cell is rejected.

ROTATION
  rotate_piece turns a piece a quarter turn clockwise. set_rotation sets 0-3
  directly; larger values are clamped to 3 and negative ones to 0.

TIMER
  When the time limit runs out before the board matches, the level is lost.
  pause and resume stop and restart the clock. restart resets the board, the
  inventory and the clock.

BOARD LEGEND (get_state)
  #  filled target cell      +  filled cell outside the target
  o  empty target cell       .  empty cell outside the target

TIPS
  Use preview_placement to check a move first. NOT is the only way to clear
  a wrongly filled cell.`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s (%s)\nCreated: %s\n\n%s",
		session.ID, session.LevelID, session.LevelName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// boardCellChar combines the board and target into one legend character
func boardCellChar(filled, target bool) byte {
	switch {
	case filled && target:
		return '#'
	case filled:
		return '+'
	case target:
		return 'o'
	default:
		return '.'
	}
}

func formatBoard(state *engine.GameState) string {
	var b strings.Builder
	b.WriteString("   ")
	for x := 0; x < state.Width; x++ {
		b.WriteByte(byte('0' + x%10))
	}
	b.WriteString("\n")
	for y := 0; y < state.Height && y < len(state.Board); y++ {
		fmt.Fprintf(&b, "%2d ", y)
		row := state.Board[y]
		for x := 0; x < state.Width && x < len(row); x++ {
			filled := row[x] == '#'
			target := state.FillAllTiles
			if !target && y < len(state.Target) && x < len(state.Target[y]) {
				target = state.Target[y][x] == '#'
			}
			b.WriteByte(boardCellChar(filled, target))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatInventory(state *engine.GameState) string {
	var b strings.Builder
	b.WriteString("Inventory:\n")
	for _, piece := range state.Inventory {
		fmt.Fprintf(&b, "  [%d] %s %s rot=%d (%dx%d)\n", piece.Slot, piece.ShapeName, piece.Operation, piece.Rotation, piece.Width, piece.Height)
		for _, row := range piece.Rows {
			b.WriteString("      " + row + "\n")
		}
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	mode := "fill target"
	if state.FillAllTiles {
		mode = "fill all"
	}
	fmt.Fprintf(&b, "Level: %s | Status: %s | Mode: %s | Placements: %d\n",
		state.LevelName, state.Status, mode, state.TotalPlacements)
	if state.TimeLimit > 0 {
		fmt.Fprintf(&b, "Time: %.1fs / %.0fs\n", state.Remaining, state.TimeLimit)
	}
	fmt.Fprintf(&b, "Filled: %d cells, target cells filled: %d/%d\n\n", state.FilledCells, state.FilledTargets, state.TargetCells)

	b.WriteString(formatBoard(state))
	b.WriteString("\n")
	b.WriteString(formatInventory(state))

	if state.GameOver {
		if state.Victory {
			b.WriteString("\n🎉 VICTORY!")
		} else {
			b.WriteString("\n💀 TIME'S UP")
		}
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func formatPlaceResult(result *service.PlaceResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Placed")
		if p := result.Placement; p != nil {
			fmt.Fprintf(&b, " %s %s at (%d,%d), %d cells changed", p.ShapeName, p.Operation, p.Position.X, p.Position.Y, len(p.Changes))
		}
	} else {
		b.WriteString("✗ Rejected")
	}
	fmt.Fprintf(&b, "\nCells remaining: %d\n", result.Remaining)
	for _, ev := range result.Events {
		if ev.Type == "victory" || ev.Type == "time_up" {
			fmt.Fprintf(&b, "Event: %s - %s\n", ev.Type, ev.Message)
		}
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatPreview(result *service.PreviewResult) string {
	var b strings.Builder
	verdict := "valid"
	if !result.Valid {
		verdict = "would be rejected"
	}
	fmt.Fprintf(&b, "Preview slot %d (%s %s rot=%d) at (%d,%d): %s\n",
		result.Slot, result.Piece.ShapeName, result.Piece.Operation, result.Piece.Rotation, result.X, result.Y, verdict)
	for _, ch := range result.Changes {
		note := ""
		if ch.Target {
			note = " (target)"
		}
		fmt.Fprintf(&b, "  (%d,%d) %s -> %s%s\n", ch.X, ch.Y, cellWord(ch.Before), cellWord(ch.After), note)
	}
	if len(result.Changes) == 0 {
		b.WriteString("  no cells would change\n")
	}
	return b.String()
}

func cellWord(filled bool) string {
	if filled {
		return "filled"
	}
	return "empty"
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Placement History (Page %d/%d), Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalPlacements)

	for _, p := range history.Placements {
		status := "✓"
		if !p.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. slot %d %s %s rot=%d at (%d,%d) %s\n",
			p.MoveNumber, p.Slot, p.ShapeName, p.Operation, p.Rotation, p.Position.X, p.Position.Y, status)
	}
	if len(history.Placements) == 0 {
		b.WriteString("(no placements)\n")
	}
	return b.String()
}
