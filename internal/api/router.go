package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ernie/courtside/internal/scoreboard"
	"github.com/ernie/courtside/internal/storage"
)

// Router holds the HTTP routes and dependencies
type Router struct {
	mux        *http.ServeMux
	store      *storage.Store
	controller *scoreboard.Controller
	wsHub      *WebSocketHub
	staticDir  string
}

// NewRouter creates a new HTTP router
func NewRouter(store *storage.Store, controller *scoreboard.Controller, staticDir string) *Router {
	r := &Router{
		mux:        http.NewServeMux(),
		store:      store,
		controller: controller,
		wsHub:      NewWebSocketHub(),
		staticDir:  staticDir,
	}

	// Live match
	r.mux.HandleFunc("GET /api/match", r.handleGetMatch)
	r.mux.HandleFunc("POST /api/match/point", r.handlePoint)
	r.mux.HandleFunc("POST /api/match/undo", r.handleUndo)
	r.mux.HandleFunc("POST /api/match/reset-game", r.handleResetGame)
	r.mux.HandleFunc("POST /api/match/reset", r.handleResetMatch)
	r.mux.HandleFunc("POST /api/match/swap-ends", r.handleSwapEnds)
	r.mux.HandleFunc("POST /api/match/server", r.handleServer)
	r.mux.HandleFunc("POST /api/match/name", r.handleName)
	r.mux.HandleFunc("POST /api/match/teammate-name", r.handleTeammateName)
	r.mux.HandleFunc("POST /api/match/scores", r.handleSetScores)
	r.mux.HandleFunc("POST /api/match/swap-teammates", r.handleSwapTeammates)
	r.mux.HandleFunc("POST /api/match/settings", r.handleSettings)
	r.mux.HandleFunc("POST /api/match/clock", r.handleClock)
	r.mux.HandleFunc("POST /api/match/clear-games", r.handleClearGames)

	// Saved-name profiles
	r.mux.HandleFunc("POST /api/profiles/save", r.handleSaveProfile)
	r.mux.HandleFunc("POST /api/profiles/apply", r.handleApplyProfile)

	// Completed-match history and statistics
	r.mux.HandleFunc("GET /api/history", r.handleGetHistory)
	r.mux.HandleFunc("DELETE /api/history", r.handleClearHistory)
	r.mux.HandleFunc("GET /api/stats", r.handleGetStats)
	r.mux.HandleFunc("GET /api/stats/head-to-head", r.handleHeadToHead)
	r.mux.HandleFunc("GET /api/stats/momentum", r.handleMomentum)

	// Backup
	r.mux.HandleFunc("GET /api/export", r.handleExport)
	r.mux.HandleFunc("POST /api/import", r.handleImport)

	// WebSocket endpoint
	r.mux.HandleFunc("GET /ws", r.handleWebSocket)

	// Health check
	r.mux.HandleFunc("GET /health", r.handleHealth)

	// Static files - only serve if staticDir is configured
	if staticDir != "" {
		r.mux.HandleFunc("GET /", r.handleStatic)
	}

	return r
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// CORS headers for API
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// StartWebSocketHub starts broadcasting controller events to WebSocket clients
func (r *Router) StartWebSocketHub() {
	go r.wsHub.Run()

	// Forward events from the controller to the WebSocket hub
	go func() {
		for event := range r.controller.Events() {
			r.wsHub.Broadcast(event)
		}
	}()
}

// handleStatic serves static files from the configured directory
// For SPA support, serves index.html for any path that doesn't match a file
func (r *Router) handleStatic(w http.ResponseWriter, req *http.Request) {
	// Clean the path
	path := filepath.Clean(req.URL.Path)
	if path == "/" {
		path = "/index.html"
	}

	// Construct full file path
	fullPath := filepath.Join(r.staticDir, path)

	// Security: ensure the path is within staticDir
	absStaticDir, _ := filepath.Abs(r.staticDir)
	absPath, _ := filepath.Abs(fullPath)
	if !strings.HasPrefix(absPath, absStaticDir) {
		http.NotFound(w, req)
		return
	}

	// Check if file exists
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		// SPA fallback: serve index.html for unknown paths
		fullPath = filepath.Join(r.staticDir, "index.html")
		info, err = os.Stat(fullPath)
		if err != nil {
			http.NotFound(w, req)
			return
		}
	}

	// Set content type based on extension
	contentType := getContentType(fullPath)
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	// Serve the file
	http.ServeFile(w, req, fullPath)
}

// getContentType returns the content type for a file based on extension
func getContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".html":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".ico":
		return "image/x-icon"
	default:
		return ""
	}
}
