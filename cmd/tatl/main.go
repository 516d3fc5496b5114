// Command tatl is a single-user CLI task-and-time ledger (spec.md §1).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/config"
	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/store"
)

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Internal error: %v\n", err)
		os.Exit(2)
	}

	setupLogging()

	ctx := context.Background()
	s, err := store.Open(ctx, config.DataLocation())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Internal error: opening store: %v\n", err)
		os.Exit(2)
	}
	defer s.Close()

	loc := resolveLocation()
	ledgerHandle = ledger.New(s, clock.NewSystem(loc))

	Execute()
}

// resolveLocation honors the rc file's "timezone" key (spec.md §6.2); an
// unset or unrecognized value falls back to clock.NewSystem's own
// time.Local default.
func resolveLocation() *time.Location {
	tz := config.GetString("timezone")
	if tz == "" {
		return nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("unrecognized timezone in rc file, using local", "timezone", tz, "error", err)
		return nil
	}
	return loc
}

// setupLogging mirrors the teacher's debug-logger-plus-rotation pairing:
// slog's default logger writes structured internal diagnostics to a
// lumberjack-rotated file under the data directory rather than the
// terminal, which is reserved for command output (spec.md §7).
func setupLogging() {
	dir := filepath.Dir(config.DataLocation())
	logPath := filepath.Join(dir, "tatl.log")
	w := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))
}

