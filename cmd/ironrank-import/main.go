package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "IronRank server URL (e.g. https://ironrank.tail1234.ts.net)")
	exportPath := flag.String("path", "", "directory containing Alpha Progression CSV exports")
	apiKey := flag.String("api-key", os.Getenv("IRONRANK_AUTH_API_KEY"), "API key (defaults to $IRONRANK_AUTH_API_KEY)")
	dryRun := flag.Bool("dry-run", false, "parse exports and report unknown exercises without sending")
	stateDir := flag.String("state-dir", "", "where to remember imported files (default ~/.ironrank-import)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("ironrank-import", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: ironrank-import -server <URL> -path <export dir> [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !*dryRun && (*serverURL == "" || *apiKey == "") {
		fmt.Fprintf(os.Stderr, "Error: -server and -api-key are required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	if *stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(homeDir, ".ironrank-import")
	}
	state, err := upload.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	cat, err := catalog.Load()
	if err != nil {
		log.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	var client upload.Sender
	if *dryRun {
		log.Info("DRY RUN mode: exports are parsed but not sent")
	} else {
		client = upload.NewClient(strings.TrimRight(*serverURL, "/"), *apiKey)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := upload.New(client, state, *exportPath, *dryRun, cat, log).Run(ctx)
	printStats(stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("  Files total:        %d\n", stats.FilesTotal)
	fmt.Printf("  Files imported:     %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:      %d (already imported)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:      %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions sent:      %d\n", stats.SessionsSent)
	fmt.Printf("  Sessions finalized: %d\n", stats.SessionsFinalized)
	fmt.Printf("  Sessions skipped:   %d (already recorded)\n", stats.SessionsSkipped)
	fmt.Printf("  Sessions rejected:  %d\n", stats.SessionsRejected)
	fmt.Printf("  EXP awarded:        %d\n", stats.ExpAwarded)

	if len(stats.TitlesUnlocked) > 0 {
		fmt.Printf("\n  Titles unlocked:\n")
		for _, t := range stats.TitlesUnlocked {
			fmt.Printf("    - %s\n", t)
		}
	}
	if len(stats.UnknownExercises) > 0 {
		fmt.Printf("\n  Unknown exercises (not scored):\n")
		for _, e := range stats.UnknownExercises {
			fmt.Printf("    - %s\n", e)
		}
	}
	fmt.Println()
}
