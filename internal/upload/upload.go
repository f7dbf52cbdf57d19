// Package upload sends Alpha Progression exports from a local directory to
// an IronRank server, remembering which files were already imported.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/ingest"
	"github.com/claude/ironrank/internal/ingest/alpha"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsSent      int
	SessionsFinalized int
	SessionsSkipped   int
	SessionsRejected  int
	ExpAwarded        int

	TitlesUnlocked   []string
	UnknownExercises []string
}

// Sender delivers one export to the server. *Client satisfies it.
type Sender interface {
	SendAlpha(ctx context.Context, data []byte) (*ingest.Result, error)
}

// Uploader walks a directory of CSV exports and imports each new or changed
// file, oldest sessions first.
type Uploader struct {
	client  Sender
	state   *StateDB
	root    string
	dryRun  bool
	catalog *catalog.Catalog
	log     *slog.Logger
	stats   Stats
}

// New creates a new Uploader. client may be nil in dry-run mode; cat is
// used to report exercises the server would not recognize.
func New(client Sender, state *StateDB, root string, dryRun bool, cat *catalog.Catalog, log *slog.Logger) *Uploader {
	return &Uploader{
		client:  client,
		state:   state,
		root:    root,
		dryRun:  dryRun,
		catalog: cat,
		log:     log,
	}
}

// export is a parsed file waiting to be sent.
type export struct {
	relPath  string
	hash     string
	data     []byte
	sessions []alpha.Session
	earliest time.Time
}

// Run executes the upload pipeline. A server that stays unreachable aborts
// the run; a file the server rejects is counted and skipped.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	paths, err := findExports(u.root)
	if err != nil {
		return &u.stats, err
	}

	pending := make([]export, 0, len(paths))
	for _, p := range paths {
		u.stats.FilesTotal++
		exp, ok := u.load(p)
		if ok {
			pending = append(pending, exp)
		}
	}

	// Files are imported in session order so streaks replay forward.
	slices.SortStableFunc(pending, func(a, b export) int {
		return a.earliest.Compare(b.earliest)
	})

	unknown := map[string]bool{}
	for _, exp := range pending {
		u.noteUnknown(exp.sessions, unknown)

		if u.dryRun {
			u.log.Info("dry-run: would import", "file", exp.relPath, "sessions", len(exp.sessions))
			u.stats.SessionsSent += len(exp.sessions)
			continue
		}

		result, err := u.client.SendAlpha(ctx, exp.data)
		if errors.Is(err, errPermanent) {
			u.log.Warn("import rejected", "file", exp.relPath, "error", err)
			u.stats.FilesErrored++
			continue
		}
		if err != nil {
			return &u.stats, fmt.Errorf("importing %s: %w", exp.relPath, err)
		}

		u.stats.FilesUploaded++
		u.stats.SessionsSent += result.SessionsReceived
		u.stats.SessionsFinalized += result.SessionsFinalized
		u.stats.SessionsSkipped += result.SessionsSkipped
		u.stats.SessionsRejected += result.SessionsRejected
		u.stats.ExpAwarded += result.ExpAwarded
		u.stats.TitlesUnlocked = append(u.stats.TitlesUnlocked, result.TitlesUnlocked...)

		if err := u.state.MarkImported(exp.relPath, exp.hash, result.SessionsFinalized, result.ExpAwarded); err != nil {
			u.log.Warn("failed to mark imported", "file", exp.relPath, "error", err)
		}
		u.log.Info("imported export",
			"file", exp.relPath,
			"finalized", result.SessionsFinalized,
			"skipped", result.SessionsSkipped,
			"exp", result.ExpAwarded,
		)
	}

	return &u.stats, nil
}

// load reads, hashes and parses one file. Files already imported with the
// same content are skipped.
func (u *Uploader) load(path string) (export, bool) {
	relPath, err := filepath.Rel(u.root, path)
	if err != nil {
		relPath = path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		u.log.Warn("read failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return export{}, false
	}
	hash := digest(data)

	imported, err := u.state.IsImported(relPath, hash)
	if err != nil {
		u.log.Warn("state check failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return export{}, false
	}
	if imported {
		u.stats.FilesSkipped++
		return export{}, false
	}

	sessions, err := alpha.Parse(bytes.NewReader(data))
	if err != nil {
		u.log.Warn("parse failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return export{}, false
	}
	if len(sessions) == 0 {
		u.stats.FilesSkipped++
		// Remember empty exports so they are not re-read every run.
		_ = u.state.MarkImported(relPath, hash, 0, 0)
		return export{}, false
	}

	earliest := sessions[0].Date
	for _, s := range sessions[1:] {
		if s.Date.Before(earliest) {
			earliest = s.Date
		}
	}
	return export{
		relPath:  relPath,
		hash:     hash,
		data:     data,
		sessions: sessions,
		earliest: earliest,
	}, true
}

func (u *Uploader) noteUnknown(sessions []alpha.Session, seen map[string]bool) {
	if u.catalog == nil {
		return
	}
	for _, s := range sessions {
		_, names, _ := alpha.Request(u.catalog, s)
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				u.stats.UnknownExercises = append(u.stats.UnknownExercises, n)
			}
		}
	}
}

// findExports returns every .csv file under root, sorted by path.
func findExports(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	slices.Sort(paths)
	return paths, nil
}
