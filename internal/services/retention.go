package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartLocationRetention schedules PruneLocations for completed rides older
// than days. It returns nil when days is not positive. The caller stops the
// returned scheduler on shutdown.
func StartLocationRetention(db *gorm.DB, schedule string, days int, loc *time.Location, log *zap.Logger) (*cron.Cron, error) {
	if days <= 0 {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(schedule, func() {
		cutoff := time.Now().AddDate(0, 0, -days)
		removed, err := PruneLocations(db, cutoff)
		if err != nil {
			log.Error("location retention failed", zap.Error(err))
			return
		}
		log.Info("location retention finished",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff),
		)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
