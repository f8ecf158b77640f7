package util

import (
	"time"

	"github.com/jinzhu/now"
)

// Datetime helpers. Convention: suffix Z for UTC based functions.
const (
	DATETIME_FORMAT_YYYYMMDD_HYPHEN string = "2006-01-02"
)

// TimeNowZ returns current time in UTC. Should be used everywhere to avoid
// the local timezone leaking into day keys.
func TimeNowZ() time.Time {
	return time.Now().UTC()
}

// GetDateOnlyZ returns the UTC day key (YYYY-MM-DD) for a timestamp. The key
// is derived from the truncated day start so it always agrees with
// BeginningOfDayZ.
func GetDateOnlyZ(t time.Time) string {
	return BeginningOfDayZ(t).Format(DATETIME_FORMAT_YYYYMMDD_HYPHEN)
}

// BeginningOfDayZ truncates a timestamp to the start of its UTC day.
func BeginningOfDayZ(t time.Time) time.Time {
	return now.New(t.UTC()).BeginningOfDay()
}
