package cmd

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

	"github.com/lectern-app/lectern/internal/app"
	"github.com/lectern-app/lectern/internal/config"
)

// runIngest loads course transcripts into the catalog.
// Accepts a directory or a single .txt file; defaults to the configured
// docs directory.
func runIngest() error {
	ingestFlags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	ingestFlags.SetOutput(os.Stderr)
	replace := ingestFlags.Bool("replace", false, "re-ingest courses that already exist")
	clear := ingestFlags.Bool("clear", false, "drop the whole catalog before ingesting a folder")

	var args []string
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	path := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		path = args[0]
		args = args[1:]
	}

	if err := ingestFlags.Parse(args); err != nil {
		return fmt.Errorf("parsing ingest flags: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if path == "" {
		path = cfg.DocsDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if info.IsDir() {
		stats, err := a.Loader.LoadFolder(ctx, path, *clear)
		if err != nil {
			return fmt.Errorf("loading folder %s: %w", path, err)
		}
		fmt.Printf("Loaded %d courses (%d chunks, %d skipped) from %s\n",
			stats.Courses, stats.Chunks, stats.Skipped, path)
		return nil
	}

	if ext := filepath.Ext(path); ext != ".txt" {
		return fmt.Errorf("unsupported file type %q: only .txt transcripts are supported", ext)
	}

	stats, err := a.Loader.LoadFile(ctx, path, *replace)
	if err != nil {
		return fmt.Errorf("loading file %s: %w", path, err)
	}
	if stats.Skipped > 0 {
		fmt.Printf("Skipped %s: course already exists (use -replace to re-ingest)\n", path)
		return nil
	}
	fmt.Printf("Loaded %d course (%d chunks) from %s\n", stats.Courses, stats.Chunks, path)
	return nil
}
