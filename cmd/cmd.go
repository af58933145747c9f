// Package cmd provides CLI commands for Lectern.
//
// Commands:
//   - serve: HTTP API server
//   - ingest: load course transcripts into the catalog
//   - ask: one-shot question from the command line
//
// Signal handling and graceful shutdown are implemented
// for all commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lectern-app/lectern/internal/log"
)

// Execute is the main entry point for the Lectern CLI application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{
		Level: level,
		JSON:  os.Getenv("LECTERN_LOG_JSON") != "",
	}))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "ingest":
		return runIngest()
	case "ask":
		return runAsk()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Lectern - Course materials assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lectern serve [addr]        Start HTTP API server (default: 127.0.0.1:8000)")
	fmt.Println("  lectern ingest [dir|file]   Load course transcripts (default dir: docs)")
	fmt.Println("  lectern ask <question>      Ask a one-shot question")
	fmt.Println("  lectern --version           Show version information")
	fmt.Println("  lectern --help              Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required with the gemini provider")
	fmt.Println("  LECTERN_PROVIDER   Optional: \"gemini\" (default) or \"ollama\"")
	fmt.Println("  DEBUG              Optional: Enable debug logging")
	fmt.Println("  LECTERN_LOG_JSON   Optional: JSON log output")
}
