package analysis

import (
	"log/slog"
	"os"
	"sync"

	"github.com/barkwatch/barkwatch-go/internal/logging"
)

var (
	logger     *slog.Logger
	loggerOnce sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		logger = logging.ForService("analysis")
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("service", "analysis")
		}
	})
	return logger
}
