package race

import (
	"time"

	"github.com/iwatkot/fatracingbot/internal/route"
)

// Fix is the most recent reported position for one rider. No timestamp
// is kept, the latest report wins.
type Fix struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Track is the per-rider tracking record. Identity fields are resolved
// once from the registry and never change afterwards; only the fix is
// updated by later location reports.
type Track struct {
	TelegramID int64  `json:"telegram_id"`
	FullName   string `json:"full_name"`
	Category   string `json:"category"`
	Bib        *int   `json:"race_number,omitempty"`
	Fix        Fix    `json:"fix"`
}

// Session is the single active race: its course and the riders being
// tracked. Created on race start, destroyed on race stop.
type Session struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	StartedAt time.Time `json:"started_at"`

	route route.Route
	store *Store
}
