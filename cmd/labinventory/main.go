package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/labinventory/internal/auth"
	"github.com/erazemk/labinventory/internal/config"
	"github.com/erazemk/labinventory/internal/db"
	"github.com/erazemk/labinventory/internal/store"
	"github.com/erazemk/labinventory/internal/upstream"
	"github.com/erazemk/labinventory/internal/web"
)

// pruneInterval is how often browser storage older than the cookie lifetime is removed.
const pruneInterval = time.Hour

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string, debug bool) (func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		min:    level,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("labinventory", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var dbPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var authAPI, inventoryAPI string
	fs.StringVar(&authAPI, "auth-api", "", "")
	fs.StringVar(&inventoryAPI, "inventory-api", "", "")

	var debug bool
	fs.BoolVar(&debug, "debug", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: labinventory [flags]

Flags override LABINV_* environment variables, .env and labinventory.yaml.

Flags:
  -c, -config <path>       config file (default: ./labinventory.yaml if present)
  -d, -db <path>           browser storage database (default: labinventory.sqlite3)
  -a, -addr <host:port>    listen address (default: :8080)
  -l, -log <path>          log file path (default: no file, stdout/stderr only)
  -auth-api <url>          authentication service used by the login screen
  -inventory-api <url>     service used by the dashboard (default: same as -auth-api)
  -debug                   enable debug logging
  -h, -help                show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, dbPath, addr, logPath, authAPI, inventoryAPI)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogFile, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	ctx := context.Background()
	cookieSecret, err := store.GetSecret(ctx, database, store.SettingCookieSecret)
	if err != nil {
		slog.Error("failed to get cookie secret", "error", err)
		os.Exit(1)
	}
	storageKey, err := store.GetStorageKey(ctx, database)
	if err != nil {
		slog.Error("failed to get storage key", "error", err)
		os.Exit(1)
	}
	storage := store.NewStorage(database, storageKey)

	if cfg.AuthAPIURL != cfg.InventoryAPIURL {
		slog.Info("login and dashboard use different upstreams",
			"auth_api", cfg.AuthAPIURL, "inventory_api", cfg.InventoryAPIURL)
	}

	router, err := web.NewRouter(web.Options{
		Storage:         storage,
		CookieSecret:    cookieSecret,
		AuthAPI:         upstream.New(cfg.AuthAPIURL, cfg.UpstreamTimeout),
		InventoryAPI:    upstream.New(cfg.InventoryAPIURL, cfg.UpstreamTimeout),
		DashboardEmail:  cfg.DashboardEmail,
		DefaultEmail:    cfg.DefaultEmail,
		DefaultPassword: cfg.DefaultPassword,
		SecureCookies:   cfg.SecureCookies,
	})
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           web.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout*2 + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go pruneStorage(pruneCtx, storage)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.ListenAddr, "auth_api", cfg.AuthAPIURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// applyFlags overrides loaded configuration with flags that were set.
func applyFlags(cfg *config.Config, dbPath, addr, logPath, authAPI, inventoryAPI string) {
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}
	if logPath != "" {
		cfg.LogFile = logPath
	}
	if authAPI != "" {
		// The dashboard follows the login screen unless told otherwise.
		if cfg.InventoryAPIURL == cfg.AuthAPIURL && inventoryAPI == "" {
			cfg.InventoryAPIURL = authAPI
		}
		cfg.AuthAPIURL = authAPI
	}
	if inventoryAPI != "" {
		cfg.InventoryAPIURL = inventoryAPI
	}
}

// pruneStorage periodically removes browser storage whose cookie has expired.
func pruneStorage(ctx context.Context, storage *store.Storage) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := storage.Prune(ctx, time.Now().Add(-auth.CookieExpiry))
			if err != nil {
				slog.Error("failed to prune browser storage", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("pruned browser storage", "rows", n)
			}
		}
	}
}
