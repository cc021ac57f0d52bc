package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/claude/repsight/internal/analytics"
	"github.com/claude/repsight/internal/importer"
	"github.com/claude/repsight/internal/localstore"
	"github.com/claude/repsight/internal/models"
)

func main() {
	input := flag.String("input", "", "export file to analyze (.json, .csv or .fit, optionally .gz)")
	sqlitePath := flag.String("sqlite", "", "analyze sessions stored in this SQLite file")
	tz := flag.String("tz", "Local", "IANA timezone for calendar days and weeks")
	weeks := flag.Int("weeks", 10, "weekly buckets to keep (0 keeps all)")
	limit := flag.Int("limit", 10, "lift records to keep (0 keeps all)")
	start := flag.String("start", "", "only sessions from this date (YYYY-MM-DD, SQLite mode)")
	end := flag.String("end", "", "only sessions before this date (YYYY-MM-DD, SQLite mode)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if (*input == "") == (*sqlitePath == "") {
		fmt.Fprintf(os.Stderr, "Usage: repsight-report (-input export.json | -sqlite repsight.db) [-tz Europe/Madrid] [-weeks N] [-limit N]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Error("invalid timezone", "tz", *tz, "error", err)
		os.Exit(1)
	}
	if *weeks < 0 || *limit < 0 {
		log.Error("weeks and limit must not be negative")
		os.Exit(1)
	}
	opts := analytics.Options{Location: loc, TrendWeeks: *weeks, TopLifts: *limit}

	var sessions []models.Session
	if *input != "" {
		_, sessions, err = importer.DecodeFile(*input, loc)
		if err != nil {
			log.Error("failed to decode input", "file", *input, "error", err)
			os.Exit(1)
		}
	} else {
		sessions, err = fromStore(*sqlitePath, *start, *end, loc)
		if err != nil {
			log.Error("failed to read local store", "error", err)
			os.Exit(1)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analytics.Analyze(sessions, opts)); err != nil {
		log.Error("failed to write report", "error", err)
		os.Exit(1)
	}
}

func fromStore(path, startStr, endStr string, loc *time.Location) ([]models.Session, error) {
	var start, end time.Time
	var err error
	if startStr != "" {
		if start, err = time.ParseInLocation("2006-01-02", startStr, loc); err != nil {
			return nil, fmt.Errorf("invalid start %q", startStr)
		}
	}
	if endStr != "" {
		if end, err = time.ParseInLocation("2006-01-02", endStr, loc); err != nil {
			return nil, fmt.Errorf("invalid end %q", endStr)
		}
	}

	store, err := localstore.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.QuerySessions(context.Background(), start, end, 1)
}
