// Command autoplay plays Logic Fill against a running server through the
// REST API, choosing each placement with a greedy strategy. It restarts the
// level after a loss until it wins or runs out of attempts.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/wricardo/logicfill/game/engine"
	"github.com/wricardo/logicfill/game/service"
)

// Client talks to one session on a Logic Fill server
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends body as JSON and decodes a 2xx response into result
func (c *Client) do(method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}

func (c *Client) CreateSession(levelID string) (*engine.GameState, error) {
	var info service.SessionInfo
	if err := c.do(http.MethodPost, "/api/sessions", map[string]string{"level_id": levelID}, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return info.GameState, nil
}

func (c *Client) GetState() (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) SetRotation(slot, rotation int) (*engine.GameState, error) {
	var state engine.GameState
	body := map[string]int{"slot": slot, "rotation": rotation}
	if err := c.do(http.MethodPost, c.sessionPath("/rotate"), body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Place(slot, x, y int) (*service.PlaceResult, error) {
	var result service.PlaceResult
	body := map[string]int{"slot": slot, "x": x, "y": y}
	if err := c.do(http.MethodPost, c.sessionPath("/place"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Restart() (*engine.GameState, error) {
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do(http.MethodPost, c.sessionPath("/restart"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) Resume() (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(http.MethodPost, c.sessionPath("/resume"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

var errStuck = errors.New("no legal placement")

type playOptions struct {
	MaxPlacements int
	Delay         time.Duration
	Verbose       bool
}

// playAttempt places pieces until the level ends, the placement budget is
// spent, or no piece fits anywhere.
func playAttempt(c *Client, strategy *GreedyStrategy, state *engine.GameState, opts playOptions) (*engine.GameState, int, error) {
	placements := 0
	for !state.GameOver && placements < opts.MaxPlacements {
		move, ok := strategy.NextMove(state)
		if !ok {
			return state, placements, errStuck
		}

		if piece := findSlot(state, move.Slot); piece != nil && piece.Rotation != move.Rotation {
			newState, err := c.SetRotation(move.Slot, move.Rotation)
			if err != nil {
				return state, placements, err
			}
			state = newState
		}

		result, err := c.Place(move.Slot, move.X, move.Y)
		if err != nil {
			return state, placements, err
		}
		state = result.GameState
		placements++

		if opts.Verbose {
			log.Printf("Placed slot %d rot %d at (%d,%d) score=%d remaining=%d",
				move.Slot, move.Rotation, move.X, move.Y, move.Score, result.Remaining)
		}
		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}
	return state, placements, nil
}

func findSlot(state *engine.GameState, slot int) *engine.PieceView {
	for i := range state.Inventory {
		if state.Inventory[i].Slot == slot {
			return &state.Inventory[i]
		}
	}
	return nil
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	levelID := flag.String("level", "", "Level ID (default: the server's default level)")
	continueSession := flag.String("continue", "", "Resume playing an existing session by ID")
	maxPlacements := flag.Int("max-placements", 500, "Maximum placements per attempt")
	maxAttempts := flag.Int("max-attempts", 20, "Maximum attempts before giving up")
	verbose := flag.Bool("v", false, "Verbose output")
	delayMs := flag.Int("delay", 0, "Delay between placements in milliseconds (0 = no delay)")
	flag.Parse()

	log.Printf("Connecting to game server at %s", *serverURL)
	client := NewClient(*serverURL)

	var state *engine.GameState
	var err error

	// Check for saved session ID
	sessionFile := ".session"
	savedSessionID := *continueSession
	if savedSessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	if savedSessionID != "" {
		client.sessionID = savedSessionID
		log.Printf("🔄 Resuming session: %s", client.sessionID)
		if state, err = client.GetState(); err != nil {
			log.Printf("⚠️  Failed to resume session (may be expired): %v", err)
			savedSessionID = ""
		}
	}

	if savedSessionID == "" {
		if state, err = client.CreateSession(*levelID); err != nil {
			log.Fatalf("Failed to create session: %v", err)
		}
		log.Printf("✨ Session created: %s", client.sessionID)
		if err := os.WriteFile(sessionFile, []byte(client.sessionID), 0644); err != nil {
			log.Printf("Warning: Failed to save session ID: %v", err)
		}
	}
	log.Printf("Level %s: %dx%d, fill all: %v, time limit: %gs",
		state.LevelName, state.Width, state.Height, state.FillAllTiles, state.TimeLimit)

	strategy := NewGreedyStrategy()
	opts := playOptions{
		MaxPlacements: *maxPlacements,
		Delay:         time.Duration(*delayMs) * time.Millisecond,
		Verbose:       *verbose,
	}

	for attempt := 1; attempt <= *maxAttempts; attempt++ {
		// Start every attempt from a fresh board
		if state, err = client.Restart(); err != nil {
			log.Fatalf("Failed to restart level: %v", err)
		}
		if state.Status == engine.StatusPaused {
			if state, err = client.Resume(); err != nil {
				log.Fatalf("Failed to resume level: %v", err)
			}
		}

		log.Printf("\n=== 🎮 Attempt %d/%d ===", attempt, *maxAttempts)
		var placements int
		state, placements, err = playAttempt(client, strategy, state, opts)
		if err != nil {
			log.Printf("Attempt %d stopped: %v", attempt, err)
		}
		log.Printf("Attempt %d: placements=%d filled=%d status=%s",
			attempt, placements, state.FilledCells, state.Status)

		if state.Victory {
			log.Printf("\n🎉 VICTORY! Level won in attempt %d with %d placements!", attempt, placements)
			log.Printf("Session: %s", client.sessionID)
			os.Exit(0)
		}
	}

	log.Printf("\n❌ Failed to win after %d attempts", *maxAttempts)
	log.Printf("Session: %s", client.sessionID)
	os.Exit(1)
}
