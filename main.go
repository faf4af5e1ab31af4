// Command logicfill runs the Logic Fill game server.
//
// With no mode argument, or "server", it serves the REST API, the session
// WebSocket feed and an MCP endpoint over HTTP, optionally through ngrok.
// The "stdio-mcp" mode speaks MCP on stdin/stdout and forwards tool calls
// to a running API, starting an internal one when none answers.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/logicfill/api"
	"github.com/wricardo/logicfill/game/config"
	"github.com/wricardo/logicfill/game/prefs"
	"github.com/wricardo/logicfill/game/service"
	"github.com/wricardo/logicfill/game/session"
	"github.com/wricardo/logicfill/transport/mcp"
	"github.com/wricardo/logicfill/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Logic Fill Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	levelsDir    = flag.String("levels-dir", "levels", "Directory containing level files (env LEVELS_DIR)")
	sessionsDir  = flag.String("sessions-dir", "sessions", "Directory for saved sessions (env SESSIONS_DIR)")
	prefsFile    = flag.String("prefs-file", filepath.Join("data", "prefs.yaml"), "Preferences file (env PREFS_FILE)")
	sessionTTL   = flag.Duration("session-ttl", 24*time.Hour, "Unload sessions idle for longer than this")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// Background routine periods
const (
	clockInterval   = time.Second
	cleanupInterval = time.Hour
	syncInterval    = 5 * time.Second
)

func init() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(out, "Usage: %s [OPTIONS] [server|stdio-mcp]\n\n", os.Args[0])
		fmt.Fprintln(out, "Modes:")
		fmt.Fprintln(out, "  server, http          HTTP API, WebSocket feed and /mcp endpoint (default)")
		fmt.Fprintln(out, "  stdio-mcp, mcp-stdio  MCP over stdin/stdout, backed by an internal API if needed")
		fmt.Fprintln(out, "  mcp                   Alias for stdio-mcp")
		fmt.Fprintln(out, "\nOptions:")
		flag.PrintDefaults()
		fmt.Fprintln(out, "\nExamples:")
		fmt.Fprintf(out, "  %s -port 9000\n", os.Args[0])
		fmt.Fprintf(out, "  %s -levels-dir ./my-levels\n", os.Args[0])
		fmt.Fprintf(out, "  %s stdio-mcp\n", os.Args[0])
	}
}

// options is the resolved process configuration
type options struct {
	Host        string
	Port        int
	LevelsDir   string
	SessionsDir string
	PrefsFile   string
	SessionTTL  time.Duration
}

// envOverrides maps flag names to the environment variables that can set them
var envOverrides = map[string]string{
	"levels-dir":   "LEVELS_DIR",
	"sessions-dir": "SESSIONS_DIR",
	"prefs-file":   "PREFS_FILE",
}

// resolveOptions builds options from flags. An environment variable applies
// only when its flag was not given on the command line.
func resolveOptions(explicit map[string]bool, getenv func(string) string) options {
	opts := options{
		Host:        *host,
		Port:        *port,
		LevelsDir:   *levelsDir,
		SessionsDir: *sessionsDir,
		PrefsFile:   *prefsFile,
		SessionTTL:  *sessionTTL,
	}
	targets := map[string]*string{
		"levels-dir":   &opts.LevelsDir,
		"sessions-dir": &opts.SessionsDir,
		"prefs-file":   &opts.PrefsFile,
	}
	for name, env := range envOverrides {
		if explicit[name] {
			continue
		}
		if v := getenv(env); v != "" {
			*targets[name] = v
		}
	}
	return opts
}

func main() {
	switch err := godotenv.Load(); {
	case err == nil:
		log.Println("Loaded environment from .env")
	case !errors.Is(err, fs.ErrNotExist):
		log.Printf("Warning: could not read .env: %v", err)
	}

	flag.Parse()
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		return
	}

	logFlags := log.LstdFlags
	if *debug {
		logFlags |= log.Lshortfile
	}
	log.SetFlags(logFlags)

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	opts := resolveOptions(explicit, os.Getenv)

	mode := "server"
	if flag.NArg() > 0 {
		mode = flag.Arg(0)
	}
	log.Printf("Starting %s v%s in %s mode", AppName, Version, mode)

	a, err := initializeServices(opts)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	switch mode {
	case "server", "http":
		runHTTPServer(a, opts)
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(a, opts)
	default:
		log.Fatalf("Unknown mode %q (want server or stdio-mcp)", mode)
	}
}

// app holds the wired services of one process
type app struct {
	service     service.GameService
	levels      *config.Manager
	sessions    *session.Manager
	persistence session.SessionPersistence
	prefs       *prefs.Store
}

// initializeServices wires the level manager, session store, preferences and game service.
func initializeServices(opts options) (*app, error) {
	levelManager, err := config.NewManager(opts.LevelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(opts.SessionsDir, levelManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	store, err := prefs.NewStore(opts.PrefsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	log.Printf("[Prefs] loaded %d preferences from %s", len(store.Keys()), opts.PrefsFile)

	return &app{
		service:     service.NewGameService(sessionManager, levelManager, store),
		levels:      levelManager,
		sessions:    sessionManager,
		persistence: persistence,
		prefs:       store,
	}, nil
}

// startBackground runs the clock, cleanup and filesystem sync routines until ctx is done
func (a *app) startBackground(ctx context.Context, hub *websocket.Hub, ttl time.Duration) {
	go runClock(ctx, a.service, hub, clockInterval)
	go sessionCleanupRoutine(ctx, a.sessions, cleanupInterval, ttl)
	go filesystemSyncRoutine(ctx, a.sessions, a.persistence, syncInterval)
}

// newHandler mounts the REST API and WebSocket routes at / and the MCP
// JSON-RPC endpoint at /mcp
func newHandler(apiServer *api.Server, mcpClient *mcp.Client) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		reply, err := json.Marshal(mcpClient.GetMCPServer().HandleMessage(r.Context(), raw))
		if err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(reply)
	})
	return mux
}

// runClock advances every session clock on each tick and pushes outcome changes to WebSocket clients
func runClock(ctx context.Context, svc service.GameService, hub *websocket.Hub, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			broadcastClockUpdates(hub, svc.AdvanceClocks(ctx, now))
		}
	}
}

func broadcastClockUpdates(hub *websocket.Hub, updates []service.ClockUpdate) {
	for _, u := range updates {
		event := websocket.EventTimeUp
		if u.Event.Type == "victory" {
			event = websocket.EventVictory
		}
		log.Printf("[Clock] session=%s %s", u.SessionID, u.Event.Type)
		if hub != nil {
			hub.BroadcastEvent(u.SessionID, event, u.GameState, u.Event)
		}
	}
}

// runHTTPServer serves the API, WebSocket and /mcp endpoints until SIGINT or
// SIGTERM, optionally mirrored through an ngrok tunnel, then saves every session.
func runHTTPServer(a *app, opts options) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)
	a.startBackground(ctx, hub, opts.SessionTTL)

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	handler := newHandler(api.NewServer(a.service, hub), mcp.NewClient("http://"+addr))
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP server listening on %s (api: /api, websocket: /ws?session=<id>, mcp: /mcp)", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if tunnel := resolveTunnel(*ngrokEnabled, *ngrokAuth, *ngrokDomain, os.Getenv); tunnel.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, tunnel, handler)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	if err := a.sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: failed to save sessions on shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// tunnelSettings is the ngrok configuration merged from flags and environment
type tunnelSettings struct {
	Enabled   bool
	AuthToken string
	Domain    string
}

// resolveTunnel prefers flag values and falls back to NGROK_ENABLED,
// NGROK_AUTHTOKEN (or NGROK_AUTH_TOKEN) and NGROK_DOMAIN.
func resolveTunnel(enabled bool, token, domain string, getenv func(string) string) tunnelSettings {
	if !enabled {
		switch getenv("NGROK_ENABLED") {
		case "true", "1":
			enabled = true
		}
	}
	for _, key := range []string{"NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"} {
		if token != "" {
			break
		}
		token = getenv(key)
	}
	if domain == "" {
		domain = getenv("NGROK_DOMAIN")
	}
	return tunnelSettings{Enabled: enabled, AuthToken: token, Domain: domain}
}

func (t tunnelSettings) endpoint() ngrokConfig.Tunnel {
	if t.Domain != "" {
		return ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(t.Domain))
	}
	return ngrokConfig.HTTPEndpoint()
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done
func runNgrokTunnel(ctx context.Context, tunnel tunnelSettings, handler http.Handler) {
	if tunnel.AuthToken == "" {
		log.Println("WARNING: ngrok enabled without an auth token (set --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	listener, err := ngrok.Listen(ctx, tunnel.endpoint(), ngrok.WithAuthtoken(tunnel.AuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	log.Printf("🚀 Public URL %s (api: /api, websocket: /ws?session=<id>, mcp: /mcp)", listener.URL())
	if err := http.Serve(listener, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically unloads sessions that have not been accessed
// within maxAge. Their files stay on disk.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine periodically removes sessions from memory whose files were deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration) {
	if persistence == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncWithFilesystem(manager)
		}
	}
}

// syncWithFilesystem returns how many sessions were pruned
func syncWithFilesystem(manager *session.Manager) int {
	pruned := manager.PruneOrphans()
	for _, id := range pruned {
		log.Printf("Pruned session %s from memory (file deleted)", id)
	}
	if len(pruned) > 0 {
		log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", len(pruned))
	}
	return len(pruned)
}

// apiReachable reports whether a Logic Fill API answers at baseURL
func apiReachable(baseURL string) bool {
	probe := &http.Client{Timeout: 2 * time.Second}
	resp, err := probe.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// startInternalAPI serves the REST API on a random loopback port until ctx
// is done and returns its base URL.
func (a *app) startInternalAPI(ctx context.Context, ttl time.Duration) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to reserve a loopback port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)
	a.startBackground(ctx, hub, ttl)

	srv := &http.Server{Handler: api.NewServer(a.service, hub)}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	return "http://" + listener.Addr().String(), nil
}

// runStdioMCPWithInternalServer speaks MCP over stdin/stdout. Tool calls go
// to an API already running on the configured address, or to an internal
// one started for this process.
func runStdioMCPWithInternalServer(a *app, opts options) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	baseURL := "http://" + net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	if apiReachable(baseURL) {
		log.Printf("Using external API server at %s", baseURL)
	} else {
		internal, err := a.startInternalAPI(ctx, opts.SessionTTL)
		if err != nil {
			log.Fatalf("Failed to start internal API: %v", err)
		}
		log.Printf("No API at %s, started internal API at %s", baseURL, internal)
		baseURL = internal
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
