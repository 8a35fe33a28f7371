package activity

import (
	"time"
)

// Activity is a single recorded session as reported by Garmin Connect.
// Records are read-only once fetched; filtering never modifies them.
type Activity struct {
	ID        string
	Name      string
	Type      string
	Start     Coordinate
	BeginTime time.Time
}
