package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/danielmagalmeida/smartscan/internal/extract"
	"github.com/danielmagalmeida/smartscan/internal/review"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("smartscan")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "smartscan.db", "Database file path")
		storagePath   = fs.StringLong("storage", "./uploads", "Storage directory path")
		extractorType = fs.StringLong("extractor", "smartscan", "Extraction backend: 'smartscan' or 'gemini'")
		apiURL        = fs.StringLong("api-url", "", "SmartScan transactions API URL (e.g. https://api.example.com/v1/transactions)")
		apiToken      = fs.StringLong("api-token", "", "SmartScan API bearer token (or set SMARTSCAN_API_TOKEN env var)")
		pollInterval  = fs.DurationLong("poll-interval", 15*time.Second, "SmartScan transaction status poll interval")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SMARTSCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := review.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize extraction backend
	var extractor extract.Extractor
	var sink extract.FeedbackSink
	switch *extractorType {
	case "smartscan":
		token := *apiToken
		if token == "" {
			token = os.Getenv("SMARTSCAN_API_TOKEN")
		}
		if *apiURL == "" {
			slog.Error("SmartScan API URL is required. Set --api-url flag or SMARTSCAN_API_URL environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing SmartScan client...", "url", *apiURL, "poll_interval", *pollInterval)
		client, err := extract.NewSmartScan(*apiURL, token, *pollInterval)
		if err != nil {
			slog.Error("Failed to initialize SmartScan client", "error", err)
			os.Exit(1)
		}
		extractor = client
		sink = client
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		gemini, err := extract.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
		extractor = gemini
		slog.Warn("Gemini backend has no feedback endpoint; corrections cannot be submitted")
	default:
		slog.Error("Invalid extractor type", "type", *extractorType, "valid", "smartscan or gemini")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := review.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	reviewService := review.NewService(db, extractor, sink, store)

	// Initialize server
	basicAuth := review.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := review.NewServer(reviewService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
