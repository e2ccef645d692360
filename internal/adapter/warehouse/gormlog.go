package warehouse

import (
	"log/slog"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// newGormLogger routes GORM's own messages through slog at warn level, so
// slow queries and driver errors land in the structured log.
func newGormLogger(logger *slog.Logger) gormlogger.Interface {
	return gormlogger.New(
		slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
