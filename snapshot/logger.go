package snapshot

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the snapshot package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the snapshot package's logger.
// This must be called before any images are opened.
func SetLogger(l *zap.Logger) {
	logger = l
}

func zapClasses(n int) zap.Field {
	return zap.Int("classes", n)
}

func zapHash(h string) zap.Field {
	if len(h) > 16 {
		h = h[:16]
	}
	return zap.String("dump_hash", h)
}
