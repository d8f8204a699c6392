package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/inventar/internal/api"
	"github.com/erazemk/inventar/internal/attach"
	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/config"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/i18n"
	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/sample"
	"github.com/erazemk/inventar/internal/session"
	"github.com/erazemk/inventar/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. If logPath is non-empty, all
// levels are also written to that file. The returned function closes it.
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	cleanup := func() {}
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
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// parseFlags loads the config file named by -config and applies the flags
// that were set explicitly on top of it.
func parseFlags(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("inventar", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var flags config.Config
	fs.StringVar(&flags.DB, "db", "", "")
	fs.StringVar(&flags.DB, "d", "", "")
	fs.StringVar(&flags.Addr, "addr", "", "")
	fs.StringVar(&flags.Addr, "a", "", "")
	fs.StringVar(&flags.User, "user", "", "")
	fs.StringVar(&flags.User, "u", "", "")
	fs.StringVar(&flags.Log, "log", "", "")
	fs.StringVar(&flags.Log, "l", "", "")
	fs.StringVar(&flags.Language, "lang", "", "")
	fs.StringVar(&flags.Currency, "currency", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: inventar [flags]

Flags:
  -c, -config <path>      YAML config file (default: none)
  -d, -db <path>          SQLite database path (default: inventar.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        owner username on first run (default: Owner)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
      -lang <tag>         display language: en, de, sl (default: en)
      -currency <symbol>  currency shown next to prices (default: €)
  -h, -help               show this help and exit

Settings are read from defaults, the config file, INVENTAR_* environment
variables and flags, each overriding the previous.
`)
	}

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return config.Config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db", "d":
			cfg.DB = flags.DB
		case "addr", "a":
			cfg.Addr = flags.Addr
		case "user", "u":
			cfg.User = flags.User
		case "log", "l":
			cfg.Log = flags.Log
		case "lang":
			cfg.Language = flags.Language
		case "currency":
			cfg.Currency = flags.Currency
		}
	})
	return cfg, cfg.Validate()
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DB)

	st := store.New(database)
	ctx := context.Background()

	if err := ensureOwner(ctx, st, cfg.User); err != nil {
		return err
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := st.GetJWTSecret(ctx)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	thumbs, err := imaging.NewThumbnails(cfg.ThumbnailCache)
	if err != nil {
		return err
	}
	seed, err := sample.Default()
	if err != nil {
		return err
	}

	m := metrics.New()
	sess := session.New(st, i18n.New(cfg.Language),
		session.WithMetrics(m),
		session.WithImporter(attach.NewImporter()),
	)

	sessCtx, stopSession := context.WithCancel(ctx)
	sessDone := make(chan struct{})
	go func() {
		defer close(sessDone)
		sess.Run(sessCtx)
	}()
	defer func() {
		stopSession()
		<-sessDone
	}()

	handler := api.NewRouter(api.Deps{
		Store:              st,
		Session:            sess,
		Tokens:             auth.NewTokens(jwtSecret, auth.TokenExpiry),
		Thumbnails:         thumbs,
		Metrics:            m,
		Seed:               seed,
		Currency:           cfg.Currency,
		Language:           cfg.Language,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "language", cfg.Language)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// ensureOwner creates the owner account on first run and prints its
// generated password.
func ensureOwner(ctx context.Context, st *store.Store, username string) error {
	n, err := st.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := st.CreateUser(ctx, username, hash); err != nil {
		return fmt.Errorf("creating owner account: %w", err)
	}

	printInitResult(username, password)
	return nil
}

// printInitResult prints the first-run account details to stdout.
func printInitResult(username, password string) {
	fmt.Println("Owner account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("It can be changed after logging in.")
	fmt.Println()
}
