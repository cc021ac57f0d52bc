package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/claude/repsight/internal/importer"
	"github.com/claude/repsight/internal/localstore"
	"github.com/claude/repsight/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "RepSight server URL (e.g. https://repsight.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("REPSIGHT_API_KEY"), "ingest API key (defaults to $REPSIGHT_API_KEY)")
	path := flag.String("path", "", "export file or directory to upload")
	tz := flag.String("tz", "", "IANA timezone for zone-less timestamps (defaults to UTC)")
	stateDir := flag.String("state", "", "directory for upload state (defaults to ~/.repsight-upload)")
	dryRun := flag.Bool("dry-run", false, "decode files but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repsight-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: repsight-upload -server <URL> -api-key <key> -path <file or dir> [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	loc := time.UTC
	if *tz != "" {
		l, err := time.LoadLocation(*tz)
		if err != nil {
			log.Error("invalid timezone", "tz", *tz, "error", err)
			os.Exit(1)
		}
		loc = l
	}

	dir := *stateDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(home, ".repsight-upload")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Error("failed to create state directory", "path", dir, "error", err)
		os.Exit(1)
	}

	// Uploaded files are tracked by hash so reruns only send new exports.
	state, err := localstore.Open(filepath.Join(dir, "state.db"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		log.Info("DRY RUN mode, files will be decoded but not sent")
	}

	client := upload.NewClient(*serverURL, *apiKey)
	stats, err := importer.New(client, state, loc, log, *dryRun).Import(ctx, *path, 0)

	log.Info("upload stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_sent", stats.SessionsReceived,
		"sessions_inserted", stats.SessionsInserted,
		"sets_inserted", stats.SetsInserted,
	)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}
