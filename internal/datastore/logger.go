// Package datastore logging helpers
package datastore

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/barkwatch/barkwatch-go/internal/logging"
)

var (
	datastoreLogger *slog.Logger
	loggerOnce      sync.Once
)

// getLogger returns the datastore service logger, falling back to a stderr
// text logger when logging.Init has not run (tests).
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		datastoreLogger = logging.ForService("datastore")
		if datastoreLogger == nil {
			datastoreLogger = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("service", "datastore")
		}
	})
	return datastoreLogger
}

// slogWriter adapts an slog.Logger to the gorm logger writer interface.
type slogWriter struct {
	logger *slog.Logger
}

func (w *slogWriter) Printf(format string, args ...any) {
	w.logger.Warn(fmt.Sprintf(format, args...))
}
