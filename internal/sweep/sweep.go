// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sweep walks the source folder once and pushes every new scan
// through extraction: list, filter, download, render if PDF, extract,
// upload markdown plus image, move the original aside. One sequential
// pass, no retries; a failing file is logged and skipped so the rest of
// the batch still lands.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/pdiddy/note-engine/internal/drive"
	"github.com/pdiddy/note-engine/internal/msauth"
	"github.com/pdiddy/note-engine/internal/pdf"
	"github.com/pdiddy/note-engine/pkg/types"
)

// Drive is the slice of the remote store the sweep needs.
type Drive interface {
	ListFiles(ctx context.Context, folderPath string) ([]drive.Item, error)
	Download(ctx context.Context, filePath string) ([]byte, error)
	Upload(ctx context.Context, filePath string, content []byte, contentType string) error
	Move(ctx context.Context, sourcePath, destPath string) error
	Exists(ctx context.Context, p string) (bool, error)
}

// Extractor turns one image into a titled markdown note.
type Extractor interface {
	ProcessImage(ctx context.Context, image []byte) (types.ExtractionResult, error)
}

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".pdf":  true,
}

// Sweep runs one ingestion pass over the source folder.
type Sweep struct {
	drive     Drive
	extractor Extractor
	render    func([]byte) ([]byte, error)
	cfg       types.SweepConfig
	log       *slog.Logger
	now       func() time.Time
}

// New wires a sweep. The render hook and logger default to
// pdf.RenderFirstPage and slog.Default when nil.
func New(d Drive, e Extractor, cfg types.SweepConfig, logger *slog.Logger) (*Sweep, error) {
	if d == nil {
		return nil, fmt.Errorf("drive client is required")
	}
	if e == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweep{
		drive:     d,
		extractor: e,
		render:    pdf.RenderFirstPage,
		cfg:       cfg,
		log:       logger,
		now:       time.Now,
	}, nil
}

// workItem carries the per-file paths for one iteration of the pass.
// Destination paths depend on the extracted title and are computed
// after extraction.
type workItem struct {
	name          string
	ext           string
	sourcePath    string
	processedPath string
}

// Run lists the source folder and processes every eligible file,
// returning the number processed successfully. A listing failure is
// fatal; everything after that is isolated per file.
func (s *Sweep) Run(ctx context.Context) (int, error) {
	items, err := s.drive.ListFiles(ctx, s.cfg.SourceFolder)
	if err != nil {
		return 0, fmt.Errorf("listing %q: %w", s.cfg.SourceFolder, err)
	}
	s.log.Info("source folder listed", "folder", s.cfg.SourceFolder, "entries", len(items))

	prefix := processedPrefix(s.cfg.SourceFolder, s.cfg.ProcessedFolder)

	processed := 0
	for _, item := range items {
		if item.IsFolder() {
			continue
		}
		if prefix != "" && strings.HasPrefix(item.Name, prefix) {
			continue
		}
		ext := strings.ToLower(path.Ext(item.Name))
		if !supportedExtensions[ext] {
			s.log.Debug("skipping unsupported file", "file", item.Name)
			continue
		}

		it := workItem{
			name:          item.Name,
			ext:           ext,
			sourcePath:    path.Join(s.cfg.SourceFolder, item.Name),
			processedPath: path.Join(s.cfg.ProcessedFolder, item.Name),
		}

		// A failed probe is treated as "not yet processed": uploads
		// overwrite by path, so reprocessing is safe while a silent
		// skip would lose the note.
		done, err := s.drive.Exists(ctx, it.processedPath)
		if err != nil {
			if isAuthError(err) {
				return processed, fmt.Errorf("probing %q: %w", it.processedPath, err)
			}
			s.log.Warn("processed probe failed, reprocessing", "file", it.name, "error", err)
		}
		if done {
			s.log.Info("already processed", "file", it.name)
			continue
		}

		if err := s.processFile(ctx, it); err != nil {
			// A credential failure dooms every remaining remote call.
			if isAuthError(err) {
				return processed, fmt.Errorf("processing %q: %w", it.name, err)
			}
			s.log.Error("processing failed", "file", it.name, "error", err)
			continue
		}
		processed++
	}

	s.log.Info("sweep complete", "processed", processed)
	return processed, nil
}

func (s *Sweep) processFile(ctx context.Context, it workItem) error {
	content, err := s.drive.Download(ctx, it.sourcePath)
	if err != nil {
		return fmt.Errorf("downloading: %w", err)
	}

	image := content
	imageExt := it.ext
	if it.ext == ".pdf" {
		if image, err = s.render(content); err != nil {
			return fmt.Errorf("rendering first page: %w", err)
		}
		imageExt = ".jpg"
	}

	result, err := s.extractor.ProcessImage(ctx, image)
	if err != nil {
		return fmt.Errorf("extracting note: %w", err)
	}

	imageName := result.Title + imageExt
	markdown, err := renderMarkdown(result, imageName, s.now())
	if err != nil {
		return err
	}

	markdownPath := path.Join(s.cfg.DestFolder, result.Title+".md")
	if err := s.drive.Upload(ctx, markdownPath, []byte(markdown), "text/markdown"); err != nil {
		return fmt.Errorf("uploading markdown: %w", err)
	}
	imagePath := path.Join(s.cfg.DestFolder, imageName)
	if err := s.drive.Upload(ctx, imagePath, image, contentTypeFor(imageExt)); err != nil {
		return fmt.Errorf("uploading image: %w", err)
	}

	if err := s.drive.Move(ctx, it.sourcePath, it.processedPath); err != nil {
		return fmt.Errorf("moving to processed folder: %w", err)
	}

	s.log.Info("note ingested", "file", it.name, "title", result.Title, "type", result.NoteType)
	return nil
}

// processedPrefix returns the processed folder's path relative to the
// source folder, slash-qualified, or "" when it is not nested inside
// it. Listings yield direct children only, but a provider that
// flattens descendants into the listing would expose already-filed
// notes as "processed/...", which the sweep must not re-ingest. The
// trailing slash keeps ordinary files whose bare name merely starts
// with the folder name (e.g. "processedscan.jpg") eligible.
func processedPrefix(source, processed string) string {
	if processed == "" {
		return ""
	}
	if source == "" {
		return processed + "/"
	}
	if rest, ok := strings.CutPrefix(processed, source+"/"); ok {
		return rest + "/"
	}
	return ""
}

func isAuthError(err error) bool {
	var authErr *msauth.AuthError
	return errors.As(err, &authErr)
}

func contentTypeFor(ext string) string {
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
