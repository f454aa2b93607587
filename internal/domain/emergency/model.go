package emergency

import (
	"time"
)

// Alert maps to the emergency_alert table. At most one alert per user has
// IsActive set; Trigger escalates it in place.
type Alert struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	Stage      string     `db:"stage" json:"stage"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at"`
}

type TriggerRequest struct {
	Stage string `json:"stage"`
}

const maxStageLen = 64
