// Package importer loads workout export files from disk: Alpha Progression
// CSVs, FIT activities and JSON session exports, optionally gzipped.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/repsight/internal/ingest"
	"github.com/claude/repsight/internal/ingest/alpha"
	"github.com/claude/repsight/internal/ingest/export"
	"github.com/claude/repsight/internal/ingest/fitfile"
	"github.com/claude/repsight/internal/models"
)

// ErrUnsupported is returned by DecodeFile for files of an unknown format.
var ErrUnsupported = errors.New("unsupported file type")

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsReceived int
	SessionsInserted int
	SetsReceived     int
	SetsInserted     int64

	// SessionsBySource counts decoded sessions per ingest source.
	SessionsBySource map[string]int
}

// Tracker remembers which files were imported. *localstore.Store satisfies it.
type Tracker interface {
	IsImported(relPath string, size int64, hash string) (bool, error)
	MarkImported(relPath string, size int64, hash string) error
}

// Importer walks a directory of exports and stores every session it finds.
type Importer struct {
	w       ingest.SessionWriter
	tracker Tracker
	loc     *time.Location
	log     *slog.Logger
	dryRun  bool
	stats   Stats
}

// New creates a new Importer. tracker may be nil, in which case every file
// is imported on each run.
func New(w ingest.SessionWriter, tracker Tracker, loc *time.Location, log *slog.Logger, dryRun bool) *Importer {
	if loc == nil {
		loc = time.UTC
	}
	return &Importer{
		w:       w,
		tracker: tracker,
		loc:     loc,
		log:     log,
		dryRun:  dryRun,
		stats:   Stats{SessionsBySource: map[string]int{}},
	}
}

// Import processes root, which may be a single file or a directory walked
// recursively. Files that fail to decode are counted and skipped; a failed
// write aborts the import.
func (imp *Importer) Import(ctx context.Context, root string, userID int) (*Stats, error) {
	files, err := collectFiles(root)
	if err != nil {
		return &imp.stats, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, root, path, userID); err != nil {
			return &imp.stats, fmt.Errorf("importing %s: %w", path, err)
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, root, path string, userID int) error {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		rel = filepath.Base(path)
	}

	if !supported(path) {
		imp.stats.FilesSkipped++
		return nil
	}

	var size int64
	var hash string
	if imp.tracker != nil {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		size = info.Size()
		if hash, err = HashFile(path); err != nil {
			return err
		}
		done, err := imp.tracker.IsImported(rel, size, hash)
		if err != nil {
			return fmt.Errorf("checking import state: %w", err)
		}
		if done {
			imp.log.Debug("skipping unchanged file", "file", rel)
			imp.stats.FilesSkipped++
			return nil
		}
	}

	source, sessions, err := DecodeFile(path, imp.loc)
	if err != nil {
		imp.log.Warn("decode failed", "file", rel, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	imp.stats.FilesProcessed++
	imp.stats.SessionsBySource[source] += len(sessions)
	imp.stats.SessionsReceived += len(sessions)
	for _, s := range sessions {
		imp.stats.SetsReceived += len(s.Sets)
	}
	if imp.dryRun {
		imp.log.Info("decoded", "file", rel, "source", source, "sessions", len(sessions))
		return nil
	}

	result, err := ingest.Store(ctx, imp.w, source, sessions, userID)
	if err != nil {
		return err
	}
	imp.stats.SessionsInserted += result.SessionsInserted
	imp.stats.SetsInserted += result.SetsInserted
	imp.log.Info("imported", "file", rel, "source", source,
		"sessions", result.SessionsInserted, "sets", result.SetsInserted)

	if imp.tracker != nil {
		if err := imp.tracker.MarkImported(rel, size, hash); err != nil {
			return fmt.Errorf("recording import state: %w", err)
		}
	}
	return nil
}

// DecodeFile decodes one export file by extension: .csv (Alpha Progression),
// .fit (FIT activity) or .json (session export), each optionally gzipped.
// It returns the ingest source name alongside the sessions.
func DecodeFile(path string, loc *time.Location) (string, []models.Session, error) {
	if !supported(path) {
		return "", nil, ErrUnsupported
	}
	rc, ext, err := openFile(path)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()
	return decode(rc, ext, loc)
}

func decode(r io.Reader, ext string, loc *time.Location) (string, []models.Session, error) {
	switch ext {
	case ".csv":
		parsed, err := alpha.Parse(r, loc)
		if err != nil {
			return "", nil, err
		}
		return alpha.SourceName, alpha.ToSessions(parsed), nil
	case ".fit":
		sessions, err := fitfile.Decode(r)
		return fitfile.SourceName, sessions, err
	case ".json":
		sessions, err := export.Decode(r, loc)
		return export.SourceName, sessions, err
	default:
		return "", nil, ErrUnsupported
	}
}

func supported(path string) bool {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".gz") {
		ext = filepath.Ext(strings.TrimSuffix(path, ext))
	}
	switch strings.ToLower(ext) {
	case ".csv", ".fit", ".json":
		return true
	}
	return false
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// collectFiles returns root itself when it is a file, or every regular file
// below it in lexical order. Hidden directories are skipped.
func collectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
