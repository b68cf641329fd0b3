package server

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/saadjs/caltrack/internal/service"
)

// DefaultPurgeSchedule runs the search cache purge hourly.
const DefaultPurgeSchedule = "@hourly"

// StartCachePurge schedules removal of expired food search cache rows. The
// caller stops the returned scheduler on shutdown.
func StartCachePurge(db *sql.DB, schedule string, log *zap.Logger) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() { purgeSearchCache(db, time.Now(), log) })
	if err != nil {
		return nil, fmt.Errorf("schedule cache purge %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

func purgeSearchCache(db *sql.DB, now time.Time, log *zap.Logger) {
	n, err := service.PurgeExpiredSearchCache(db, now)
	if err != nil {
		log.Error("search cache purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("purged expired search cache", zap.Int64("rows", n))
	}
}
