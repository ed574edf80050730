package shortener

import "time"

// Link maps a short code to its target URL together with its click accounting.
type Link struct {
	Code          string
	URL           string
	ClickCount    int64
	LastClickedAt *time.Time // nil until the first resolution
	CreatedAt     time.Time
}
