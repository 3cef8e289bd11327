package registry

import "time"

// Participant is the registration record resolved for a tracked rider.
// Bib stays nil until race numbers are issued at registration close.
type Participant struct {
	TelegramID int64  `json:"telegram_id"`
	FullName   string `json:"full_name"`
	Category   string `json:"category"`
	Bib        *int   `json:"race_number,omitempty"`
}

// Race is a catalog entry from the race registry.
type Race struct {
	Code  string    `json:"code"`
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
}
