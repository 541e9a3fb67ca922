package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func DailyStatsKey(tenantID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("stats:%s:%s:%s", tenantID, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
