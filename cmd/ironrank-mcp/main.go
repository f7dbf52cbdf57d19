package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/config"
	"github.com/claude/ironrank/internal/events"
	"github.com/claude/ironrank/internal/mcp"
	"github.com/claude/ironrank/internal/session"
	"github.com/claude/ironrank/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	remote := flag.String("remote", "", "IronRank server URL; tools query its REST API instead of the database")
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	userID := flag.Int("user", 1, "user id to answer for (local mode)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("ironrank-mcp", Version)
		return
	}

	// stdout carries the protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	if *remote != "" {
		ds = mcp.NewHTTPClient(*remote)
		log.Info("remote mode", "server", *remote)
	} else {
		local, closeDB, err := openLocal(*configPath, log)
		if err != nil {
			log.Error("local mode unavailable", "error", err)
			os.Exit(1)
		}
		defer closeDB()
		ds = local
		log.Info("local mode", "user", *userID)
	}

	srv := mcp.New(ds, Version, log)
	err := mcpserver.ServeStdio(srv, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, *userID)
	}))
	if err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}

// openLocal wires a read-side session service over the configured database.
// Nothing here finalizes sessions, so events are dropped.
func openLocal(configPath string, log *slog.Logger) (*mcp.Local, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.Progression.Location()
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}
	db, err := storage.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting database: %w", err)
	}
	svc := session.NewService(db, cat, events.Nop{}, loc, log)
	return mcp.NewLocal(svc, db), db.Close, nil
}
