package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lectern-app/lectern/internal/course"
)

// Ingestor is the slice of the store the loader writes to.
type Ingestor interface {
	AddCourse(ctx context.Context, c course.Course) error
	AddChunks(ctx context.Context, chunks []course.Chunk) error
	ListCourseTitles(ctx context.Context) ([]string, error)
	DeleteCourse(ctx context.Context, title string) error
}

// Loader ingests transcript files into the store.
type Loader struct {
	store     Ingestor
	logger    *slog.Logger
	chunkSize int
	overlap   int
}

// NewLoader creates a Loader with the given chunking parameters.
func NewLoader(store Ingestor, chunkSize, overlap int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		store:     store,
		logger:    logger,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Stats summarizes one ingestion run.
type Stats struct {
	Courses int // courses added
	Chunks  int // chunks added
	Skipped int // files skipped because the course already exists
}

// LoadFile ingests a single transcript file. When replace is true an
// existing course with the same title is deleted first; otherwise the
// file is skipped.
func (l *Loader) LoadFile(ctx context.Context, path string, replace bool) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return Stats{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	existing, err := l.store.ListCourseTitles(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("listing existing courses: %w", err)
	}
	if slices.Contains(existing, doc.Course.Title) {
		if !replace {
			l.logger.Info("course already exists, skipping",
				"course", doc.Course.Title, "file", filepath.Base(path))
			return Stats{Skipped: 1}, nil
		}
		if err := l.store.DeleteCourse(ctx, doc.Course.Title); err != nil {
			return Stats{}, fmt.Errorf("replacing course %q: %w", doc.Course.Title, err)
		}
	}

	if err := l.store.AddCourse(ctx, doc.Course); err != nil {
		return Stats{}, err
	}

	chunks := doc.Chunks(l.chunkSize, l.overlap)
	if err := l.store.AddChunks(ctx, chunks); err != nil {
		return Stats{}, err
	}

	l.logger.Info("ingested course",
		"course", doc.Course.Title,
		"lessons", len(doc.Course.Lessons),
		"chunks", len(chunks))
	return Stats{Courses: 1, Chunks: len(chunks)}, nil
}

// LoadFolder ingests every .txt transcript in dir, skipping courses that
// already exist. When clearExisting is true the whole catalog is dropped
// first and every transcript re-ingested. Files that fail to parse are
// logged and skipped rather than aborting the run.
func (l *Loader) LoadFolder(ctx context.Context, dir string, clearExisting bool) (Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Stats{}, fmt.Errorf("reading docs directory: %w", err)
	}

	if clearExisting {
		titles, err := l.store.ListCourseTitles(ctx)
		if err != nil {
			return Stats{}, fmt.Errorf("listing courses to clear: %w", err)
		}
		for _, title := range titles {
			if err := l.store.DeleteCourse(ctx, title); err != nil {
				return Stats{}, fmt.Errorf("clearing course %q: %w", title, err)
			}
		}
		if len(titles) > 0 {
			l.logger.Info("cleared existing catalog", "courses", len(titles))
		}
	}

	var total Stats
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		stats, err := l.LoadFile(ctx, filepath.Join(dir, entry.Name()), false)
		if err != nil {
			l.logger.Error("failed to ingest transcript",
				"file", entry.Name(), "error", err)
			continue
		}
		total.Courses += stats.Courses
		total.Chunks += stats.Chunks
		total.Skipped += stats.Skipped
	}

	return total, nil
}
