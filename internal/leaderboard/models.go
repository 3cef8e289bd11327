package leaderboard

// Entry is one ranked row of the live leaderboard. Ranks are dense,
// 1..N by distance descending.
type Entry struct {
	Rank     int     `json:"rank"`
	Distance float64 `json:"distance"`
	Category string  `json:"category"`
	Bib      *int    `json:"bib,omitempty"`
	Name     string  `json:"name"`
}
