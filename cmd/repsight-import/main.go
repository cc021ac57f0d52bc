package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/claude/repsight/internal/config"
	"github.com/claude/repsight/internal/importer"
	"github.com/claude/repsight/internal/localstore"
	"github.com/claude/repsight/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (Postgres mode)")
	path := flag.String("path", "", "export file or directory to import (required)")
	sqlitePath := flag.String("sqlite", "", "import into this SQLite file instead of Postgres")
	tz := flag.String("tz", "", "IANA timezone for zone-less timestamps (defaults to the config, or UTC)")
	login := flag.String("login", "local", "user login to import for (Postgres mode)")
	replace := flag.String("replace", "", "delete this source's sessions before importing (Postgres mode)")
	dryRun := flag.Bool("dry-run", false, "decode and report counts without writing")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: repsight-import -path <file or dir> [-sqlite repsight.db | -config config.yaml] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if _, err := os.Stat(*path); err != nil {
		log.Error("import path not found", "path", *path, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if *dryRun {
		log.Info("DRY RUN mode, nothing will be written")
	}

	if *sqlitePath != "" {
		loc, err := location(*tz, "")
		if err != nil {
			log.Error("invalid timezone", "error", err)
			os.Exit(1)
		}
		store, err := localstore.Open(*sqlitePath)
		if err != nil {
			log.Error("failed to open local store", "error", err)
			os.Exit(1)
		}
		defer store.Close()

		stats, err := importer.New(store, store, loc, log, *dryRun).Import(ctx, *path, storage.LocalUserID)
		finish(log, stats, err)
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	loc, err := location(*tz, cfg.Analytics.Timezone)
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	schemaVersion, err := storage.RunMigrations(dsn, cfg.Server.MigrationsPath)
	if err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "schema_version", schemaVersion)

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	uid, err := db.GetOrCreateUser(ctx, *login, *login)
	if err != nil {
		log.Error("failed to resolve user", "login", *login, "error", err)
		os.Exit(1)
	}

	if *replace != "" && !*dryRun {
		n, err := db.DeleteSessionsBySource(ctx, *replace, uid)
		if err != nil {
			log.Error("failed to clear source", "source", *replace, "error", err)
			os.Exit(1)
		}
		log.Info("cleared previous import", "source", *replace, "sessions", n)
	}

	started := time.Now()
	stats, err := importer.New(db, nil, loc, log, *dryRun).Import(ctx, *path, uid)
	if !*dryRun {
		recordImport(ctx, log, db, uid, stats, err, time.Since(started))
	}
	finish(log, stats, err)
}

// location resolves the -tz flag, falling back to the configured zone.
func location(flagTZ, configTZ string) (*time.Location, error) {
	tz := flagTZ
	if tz == "" {
		tz = configTZ
	}
	if tz == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}

// recordImport writes one import_logs row for the whole run.
func recordImport(ctx context.Context, log *slog.Logger, db *storage.DB, uid int, stats *importer.Stats, importErr error, elapsed time.Duration) {
	entry := storage.ImportLog{
		UserID:           uid,
		Source:           "import",
		SessionsReceived: stats.SessionsReceived,
		SessionsInserted: stats.SessionsInserted,
		SetsReceived:     stats.SetsReceived,
		SetsInserted:     stats.SetsInserted,
	}
	entry.Finish(importErr, elapsed)
	if err := entry.SetMetadata(map[string]any{
		"files_processed":    stats.FilesProcessed,
		"files_errored":      stats.FilesErrored,
		"sessions_by_source": stats.SessionsBySource,
	}); err != nil {
		log.Warn("failed to encode import metadata", "error", err)
	}
	if _, err := db.InsertImportLog(ctx, entry); err != nil {
		log.Warn("failed to log import", "error", err)
	}
}

func finish(log *slog.Logger, stats *importer.Stats, err error) {
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_received", stats.SessionsReceived,
		"sessions_inserted", stats.SessionsInserted,
		"sets_received", stats.SetsReceived,
		"sets_inserted", stats.SetsInserted,
	)
	for source, n := range stats.SessionsBySource {
		log.Info("sessions by source", "source", source, "sessions", n)
	}
}
