package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/liftplan/internal/engine"
	"github.com/claude/liftplan/internal/intake"
	"github.com/claude/liftplan/internal/models"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int
	FilesReplaced int

	ProgramsSent int
	TotalNL      int
}

// Uploader walks a directory of program files (.json documents and .csv
// sheets) and stores each one on the LiftPlan server.
type Uploader struct {
	client *Client
	state  *StateDB
	calc   *engine.Calculator
	dir    string
	block  string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. block is applied to files that do not name
// one themselves. In dry-run mode programs are calculated locally and
// nothing is sent.
func New(client *Client, state *StateDB, calc *engine.Calculator, dir, block string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		calc:   calc,
		dir:    dir,
		block:  block,
		dryRun: dryRun,
		log:    log,
	}
}

// fileInfo tracks a file's metadata for state DB operations.
type fileInfo struct {
	path    string
	relPath string
	size    int64
	hash    string
}

// Run executes the upload pipeline. Files the server rejects are counted
// and skipped; any other send failure stops the run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	var files []string
	err := filepath.WalkDir(u.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != u.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".csv":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &u.stats, fmt.Errorf("walking %s: %w", u.dir, err)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++

		fi, ok := u.checkFile(f)
		if !ok {
			continue
		}

		if err := u.processFile(ctx, fi); err != nil {
			var rejected *RejectedError
			var ee *engine.Error
			switch {
			case errors.As(err, &rejected), errors.As(err, &ee):
				u.log.Warn("program rejected", "file", fi.relPath, "error", err)
				u.stats.FilesErrored++
				continue
			case errors.Is(err, errParse):
				u.log.Warn("parse failed", "file", fi.relPath, "error", err)
				u.stats.FilesErrored++
				continue
			}
			return &u.stats, fmt.Errorf("uploading %s: %w", fi.relPath, err)
		}
	}

	return &u.stats, nil
}

// checkFile hashes a file and reports whether it still needs uploading.
func (u *Uploader) checkFile(path string) (fileInfo, bool) {
	relPath, _ := filepath.Rel(u.dir, path)
	info, err := os.Stat(path)
	if err != nil {
		u.log.Warn("stat failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return fileInfo{}, false
	}

	hash, err := HashFile(path)
	if err != nil {
		u.log.Warn("hash failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return fileInfo{}, false
	}

	uploaded, err := u.state.IsUploaded(relPath, info.Size(), hash)
	if err != nil {
		u.log.Warn("state check failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return fileInfo{}, false
	}
	if uploaded {
		u.stats.FilesSkipped++
		return fileInfo{}, false
	}

	return fileInfo{path: path, relPath: relPath, size: info.Size(), hash: hash}, true
}

var errParse = errors.New("unreadable program file")

func (u *Uploader) processFile(ctx context.Context, fi fileInfo) error {
	data, err := os.ReadFile(fi.path)
	if err != nil {
		return fmt.Errorf("%w: %v", errParse, err)
	}

	var req intake.Request
	isCSV := strings.EqualFold(filepath.Ext(fi.path), ".csv")
	if isCSV {
		req = intake.Request{ClientName: clientFromFilename(fi.path), Block: u.block}
	} else {
		req, err = decodeRequest(data)
		if err != nil {
			return fmt.Errorf("%w: %v", errParse, err)
		}
		if req.ClientName == "" {
			req.ClientName = clientFromFilename(fi.path)
		}
		if req.Block == "" {
			req.Block = u.block
		}
	}

	if u.dryRun {
		return u.dryRunFile(ctx, fi, req, data, isCSV)
	}

	previous, err := u.state.ProgramID(fi.relPath)
	if err != nil {
		u.log.Warn("failed to read upload state", "file", fi.relPath, "error", err)
	}

	var row *models.ProgramRow
	if isCSV {
		row, err = u.client.ImportCSV(ctx, req.ClientName, req.Block, data)
	} else {
		row, err = u.client.PostProgram(ctx, req)
	}
	if err != nil {
		return err
	}

	u.stats.ProgramsSent++
	u.stats.TotalNL += row.TotalNL
	if err := u.state.MarkUploaded(fi.relPath, fi.size, fi.hash, row.ID.String()); err != nil {
		u.log.Warn("failed to mark uploaded", "file", fi.relPath, "error", err)
	}
	u.stats.FilesUploaded++
	if previous != "" {
		u.stats.FilesReplaced++
		u.log.Info("file changed since last upload", "file", fi.relPath, "previous", previous)
	}

	u.log.Info("uploaded program",
		"file", fi.relPath,
		"client", row.ClientName,
		"id", row.ID,
		"total_nl", row.TotalNL,
	)
	return nil
}

// dryRunFile calculates the program locally instead of sending it.
func (u *Uploader) dryRunFile(ctx context.Context, fi fileInfo, req intake.Request, data []byte, isCSV bool) error {
	in := req.Input
	if isCSV {
		var err error
		in, err = intake.Parse(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%w: %w", errParse, err)
		}
	}
	if req.Block != "" {
		in.Block = req.Block
	}

	out, err := u.calc.Calculate(ctx, in)
	if err != nil {
		return err
	}

	u.stats.ProgramsSent++
	u.stats.TotalNL += out.TotalNL()
	u.log.Info("dry-run: would upload",
		"file", fi.relPath,
		"client", req.ClientName,
		"lifts", out.Lifts(),
		"total_nl", out.TotalNL(),
	)
	return nil
}

// decodeRequest accepts either a full request document or a bare input
// document holding only lifts.
func decodeRequest(data []byte) (intake.Request, error) {
	var req intake.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return intake.Request{}, err
	}
	if len(req.Input.Lifts) > 0 {
		return req, nil
	}

	var in engine.Input
	if err := json.Unmarshal(data, &in); err != nil {
		return intake.Request{}, err
	}
	if len(in.Lifts) == 0 {
		return intake.Request{}, errors.New("no lifts in document")
	}
	return intake.Request{Block: in.Block, Input: in}, nil
}

// clientFromFilename turns "anna_smith.csv" into "anna smith".
func clientFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimSpace(strings.ReplaceAll(stem, "_", " "))
}
