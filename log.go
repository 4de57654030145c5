package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "soundboard").CacheDir()
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return filepath.Join(dir, "soundboard.log"), nil
}

// setupLog sends the default logger to a file, since the TUI owns the
// terminal. SOUNDBOARD_LOG_LEVEL picks the level.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	// Log to file, if set
	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		// log disabled
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		// log disabled
		return func() error { return nil }, nil
	}
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)

	if lvl := os.Getenv("SOUNDBOARD_LOG_LEVEL"); lvl != "" {
		level, err := log.ParseLevel(lvl)
		if err != nil {
			log.Warn("Ignoring invalid log level", "level", lvl, "error", err)
		} else {
			log.SetLevel(level)
		}
	}
	return f.Close, nil
}
