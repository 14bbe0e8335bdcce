package services

import (
	"github.com/kissthedata/floweat/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartCacheJanitor purges expired calendar cache rows hourly. The read
// path already drops expired entries lazily; this keeps the table from
// accumulating rows for months nobody reopens.
func StartCacheJanitor(cache *CalendarCacheService) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		n, err := cache.PurgeExpired()
		if err != nil {
			utils.L().Warn("calendar cache purge failed", zap.Error(err))
			return
		}
		if n > 0 {
			utils.L().Info("purged expired calendar cache entries", zap.Int64("count", n))
		}
	})
	if err != nil {
		utils.L().Warn("failed to schedule cache janitor", zap.Error(err))
	}
	c.Start()
	return c
}
