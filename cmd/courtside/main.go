// courtside - badminton scoreboard service and tools
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ernie/courtside/internal/api"
	"github.com/ernie/courtside/internal/config"
	"github.com/ernie/courtside/internal/domain"
	"github.com/ernie/courtside/internal/scoreboard"
	"github.com/ernie/courtside/internal/storage"
	flag "github.com/spf13/pflag"
)

var version = "dev"

const defaultConfigPath = "/etc/courtside/config.yml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		cmdInit(os.Args[2:])
	case "serve":
		cmdServe(os.Args[2:])
	case "show":
		cmdShow(os.Args[2:])
	case "history":
		cmdHistory(os.Args[2:])
	case "stats":
		cmdStats(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "version":
		fmt.Printf("courtside %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: courtside <command> [options] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Write a default configuration file")
	fmt.Println("  serve       Run the scoreboard service")
	fmt.Println("  show        Show the live match")
	fmt.Println("  history     List completed matches")
	fmt.Println("  stats       Show aggregated player statistics")
	fmt.Println("  export      Export a backup of the match state and history")
	fmt.Println("  import      Import a backup")
	fmt.Println("  version     Print version")
	fmt.Println("  help        Show this help")
}

const defaultConfigTemplate = `# courtside configuration
server:
  listen_addr: 127.0.0.1
  http_port: 8080
  # static_dir: /var/lib/courtside/web

database:
  path: /var/lib/courtside/courtside.db

match:
  race_to: 21
  best_of: 3
  win_by_two: true
  doubles_mode: false
  persist_debounce: 150ms
`

func cmdInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to write the config file")
	force := fs.Bool("force", false, "overwrite an existing config file")
	fs.Parse(args)

	if _, err := os.Stat(*configPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Config file already exists at %s (use --force to overwrite)\n", *configPath)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*configPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*configPath, []byte(defaultConfigTemplate), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", *configPath)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	// Determine config path
	cfgPath := *configPath
	if cfgPath == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			cfgPath = defaultConfigPath
		} else {
			log.Fatalf("No config file found at %s. Use --config to specify a config file.", defaultConfigPath)
		}
	}

	// Load configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Courtside %s starting...", version)

	// Initialize storage
	store, err := storage.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()
	log.Printf("Database initialized at %s", cfg.Database.Path)

	// Load or create the live match document
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller, err := scoreboard.New(ctx, store, scoreboard.Defaults{
		RaceTo:      cfg.Match.RaceTo,
		BestOf:      cfg.Match.BestOf,
		WinByTwo:    cfg.Match.WinByTwo,
		DoublesMode: cfg.Match.DoublesMode,
	}, cfg.Match.PersistDebounce)
	if err != nil {
		log.Fatalf("Failed to initialize match controller: %v", err)
	}
	log.Printf("Match controller ready (race to %d, best of %d)", cfg.Match.RaceTo, cfg.Match.BestOf)

	// Create HTTP router
	router := api.NewRouter(store, controller, cfg.Server.StaticDir)
	router.StartWebSocketHub()
	if cfg.Server.StaticDir != "" {
		log.Printf("Serving static files from %s", cfg.Server.StaticDir)
	}

	// Start HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.ListenAddr, cfg.Server.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Set up signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for signal or error
	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		log.Fatalf("HTTP server error: %v", err)
	}

	// Sequential shutdown
	log.Println("Shutting down HTTP server...")
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := server.Shutdown(httpCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Flushing match state...")
	controller.Close()

	cancel()
	log.Println("Shutdown complete")
}

// CLI helper variables
var baseURL = "http://localhost:8080"

// loadCLIConfigFromFlags derives the server URL from config and flags
func loadCLIConfigFromFlags(configPath, url string) {
	if url != "" {
		baseURL = url
		return
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		// No config is fine for CLI use, fall back to the default URL
		return
	}
	baseURL = fmt.Sprintf("http://%s:%d", cfg.Server.ListenAddr, cfg.Server.HTTPPort)
}

// getJSON fetches a JSON document from the running service
func getJSON(path string, v interface{}) error {
	resp, err := http.Get(baseURL + path)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// formatDuration renders milliseconds as m:ss
func formatDuration(ms int64) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func cmdShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the courtside server")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	var state struct {
		Match     *domain.MatchDocument `json:"match"`
		ElapsedMs int64                 `json:"elapsed_ms"`
	}
	if err := getJSON("/api/match", &state); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m := state.Match

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tPOINTS\tGAMES\tSERVING")
	fmt.Fprintln(w, "------\t------\t-----\t-------")
	for _, p := range m.Players {
		serving := ""
		if p.ID == m.Server {
			serving = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", p.Name, p.Points, p.Games, serving)
	}
	w.Flush()

	fmt.Printf("\nRace to %d, best of %d", m.RaceTo, m.BestOf)
	if m.WinByTwo {
		fmt.Print(", win by two")
	}
	if m.DoublesMode {
		fmt.Print(", doubles")
	}
	fmt.Printf("  |  clock %s", formatDuration(state.ElapsedMs))
	if !m.ClockRunning {
		fmt.Print(" (paused)")
	}
	fmt.Println()

	if m.MatchWinner != nil {
		if winner := m.Slot(*m.MatchWinner); winner != nil {
			fmt.Printf("Match finished: %s wins\n", winner.Name)
		}
	}
}

func cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the courtside server")
	limit := fs.Int("limit", 20, "number of matches to show")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	var matches []domain.CompletedMatchSummary
	if err := getJSON(fmt.Sprintf("/api/history?limit=%d", *limit), &matches); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(matches) == 0 {
		fmt.Println("No completed matches yet")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tWINNER\tSCORE\tGAMES\tRALLIES\tDURATION\tCONFIG")
	fmt.Fprintln(w, "----\t------\t-----\t-----\t-------\t--------\t------")
	for _, m := range matches {
		score := ""
		for i, p := range m.Players {
			if i > 0 {
				score += "-"
			}
			score += fmt.Sprintf("%d", p.Games)
		}
		cfg := fmt.Sprintf("to %d, bo%d", m.RaceTo, m.BestOf)
		if m.DoublesMode {
			cfg += ", doubles"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			m.CompletedAt.Local().Format("2006-01-02 15:04"),
			m.WinnerName, score, m.GamesPlayed, m.TotalRallies,
			formatDuration(m.DurationMs), cfg)
	}
	w.Flush()
}

func cmdStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the courtside server")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	var report scoreboard.StatsReport
	if err := getJSON("/api/stats", &report); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if report.SampleSize < scoreboard.StatsMinSample {
		fmt.Printf("Not enough completed matches for statistics (%d of %d needed)\n",
			report.SampleSize, scoreboard.StatsMinSample)
		return
	}

	if report.Recent != nil {
		fmt.Printf("Last match pace: %.1f rallies/min, avg rally %s, avg game %s\n\n",
			report.Recent.RalliesPerMinute,
			formatDuration(report.Recent.AvgRallyMs),
			formatDuration(report.Recent.AvgGameMs))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tMATCHES\tWINS\tWIN%\tPTS/GAME\tAVG DURATION")
	fmt.Fprintln(w, "------\t-------\t----\t----\t--------\t------------")
	for _, p := range report.Players {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.0f%%\t%.1f\t%s\n",
			p.Name, p.Matches, p.Wins, p.WinRate*100, p.AvgPointsPerGame,
			formatDuration(p.AvgMatchDurationMs))
	}
	w.Flush()
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the courtside server")
	output := fs.String("output", "courtside-backup.json", "output file (.gz for compressed)")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	exportURL := baseURL + "/api/export"
	if strings.HasSuffix(*output, ".gz") {
		exportURL += "?gzip=true"
	}

	resp, err := http.Get(exportURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Error: server returned %s\n", resp.Status)
		os.Exit(1)
	}

	out, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *output, err)
		os.Exit(1)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing backup: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote backup to %s (%d bytes)\n", *output, n)
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the courtside server")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: courtside import <backup-file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	resp, err := http.Post(baseURL+"/api/import", "application/octet-stream", f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Import rejected: %s\n", strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	fmt.Println("Backup imported")
}
