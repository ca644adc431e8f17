package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/danielhkuo/quickly-meet/cliparse"
	"github.com/danielhkuo/quickly-meet/db"
	"github.com/danielhkuo/quickly-meet/middleware"
	"github.com/danielhkuo/quickly-meet/realtime"
	"github.com/danielhkuo/quickly-meet/router"
	"github.com/danielhkuo/quickly-meet/scheduling"
	"github.com/danielhkuo/quickly-meet/store"
)

// How often the server removes expired events
const reapInterval = time.Hour

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "quickly-meet",
		Usage: "Find a time that works for everyone.",
		Commands: []*cli.Command{
			serveCommand(),
			reapCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:            "serve",
		Usage:           "Run the HTTP API server. Flags: -p, -d, -t, --base-url, --redis, --ttl, --timeout, --log-level, --secure-cookies",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			cfg, err := cliparse.ParseFlags(c.Args().Slice())
			if err != nil {
				return fmt.Errorf("error parsing flags: %w", err)
			}
			slog.SetDefault(setupLogger(cfg.LogLevel))

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			dbConn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer dbConn.Close()

			feed, closeFeed, err := openFeed(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFeed()

			st := store.New(dbConn, feed)
			svc := scheduling.NewService(st, cfg)
			mux := router.NewRouter(svc, realtime.NewProjector(svc), cfg)

			server := http.Server{
				Handler: middleware.CORS(mux),
				Addr:    ":" + strconv.Itoa(cfg.Port),
			}

			go reapLoop(ctx, st)

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Warn("graceful shutdown failed, closing", "error", err)
					server.Close()
				}
			}()

			slog.Info("Listening", "port", cfg.Port, "database", cfg.DatabaseType)
			err = server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			slog.Info("Server closed")
			return nil
		},
	}
}

func reapCommand() *cli.Command {
	return &cli.Command{
		Name:            "reap",
		Usage:           "Delete events past their TTL once and exit. Accepts the same flags as serve.",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			cfg, err := cliparse.ParseFlags(c.Args().Slice())
			if err != nil {
				return fmt.Errorf("error parsing flags: %w", err)
			}
			slog.SetDefault(setupLogger(cfg.LogLevel))

			dbConn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer dbConn.Close()

			n, err := store.New(dbConn, nil).DeleteExpiredEvents(c.Context, time.Now())
			if err != nil {
				return fmt.Errorf("failed to delete expired events: %w", err)
			}
			slog.Info("Expired events deleted", "count", n)
			return nil
		},
	}
}

func openDatabase(cfg cliparse.Config) (*sqlx.DB, error) {
	dbConn, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)
	return dbConn, nil
}

// openFeed picks Redis when configured so several server instances share
// vote changes. Otherwise changes stay in process.
func openFeed(ctx context.Context, cfg cliparse.Config) (store.Feed, func(), error) {
	if cfg.RedisURL == "" {
		slog.Info("Using in-process vote change feed")
		return realtime.NewLocalFeed(), func() {}, nil
	}

	client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	slog.Info("Using redis vote change feed", "channel", realtime.DefaultChannel)
	return realtime.NewRedisFeed(client, realtime.DefaultChannel), func() { client.Close() }, nil
}

func reapLoop(ctx context.Context, st *store.SQLStore) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.DeleteExpiredEvents(ctx, time.Now())
			if err != nil {
				slog.Error("failed to delete expired events", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Expired events deleted", "count", n)
			}
		}
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
