package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/repsight/internal/analytics"
	"github.com/claude/repsight/internal/localstore"
	"github.com/claude/repsight/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "RepSight server URL (e.g. https://repsight.tail1234.ts.net)")
	sqlitePath := flag.String("sqlite", "", "serve sessions from this SQLite file instead of a server")
	tz := flag.String("tz", "Local", "IANA timezone for calendar days and weeks")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repsight-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*serverURL == "") == (*sqlitePath == "") {
		fmt.Fprintf(os.Stderr, "Usage: repsight-mcp (-server <URL> | -sqlite repsight.db) [-tz Europe/Madrid]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Error("invalid timezone", "tz", *tz, "error", err)
		os.Exit(1)
	}
	opts := analytics.DefaultOptions()
	opts.Location = loc

	var ds mcp.DataSource
	if *serverURL != "" {
		ds = mcp.NewHTTPClient(*serverURL)
		log.Info("serving MCP over stdio", "server", *serverURL)
	} else {
		store, err := localstore.Open(*sqlitePath)
		if err != nil {
			log.Error("failed to open local store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		ds = store
		log.Info("serving MCP over stdio", "sqlite", *sqlitePath)
	}

	if err := server.ServeStdio(mcp.New(ds, opts, nil, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
