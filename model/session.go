package model

import (
	"fmt"
	"time"
)

// Session is a run of one identity's events with no inactivity gap exceeding
// the configured threshold. Sessions are derived per run, never persisted
// independently of their events.
type Session struct {
	Identity string `json:"client_id"`
	// Sequence is 1-based and unique per identity, assigned in
	// chronological order.
	Sequence        int       `json:"session_seq"`
	SessionID       string    `json:"session_id"`
	Start           time.Time `json:"session_start"`
	End             time.Time `json:"session_end"`
	DurationSeconds int64     `json:"session_duration_seconds"`

	// Events are ordered by timestamp, ties kept in ingestion order.
	Events []*CanonicalEvent `json:"-"`

	// EventIndexes references the member events by ingestion index for the
	// serialized session table.
	EventIndexes []int `json:"event_indexes"`
}

// SessionIDFor builds the deterministic session key for an identity and
// sequence, matching the <identity>_session_<seq> convention.
func SessionIDFor(identity string, sequence int) string {
	return fmt.Sprintf("%s_session_%d", identity, sequence)
}

// Contains reports whether a timestamp falls inside the session interval,
// endpoints inclusive.
func (s *Session) Contains(ts time.Time) bool {
	return !ts.Before(s.Start) && !ts.After(s.End)
}

// LastTouchSource returns the utm_source of the session's most recent
// UTM-bearing member, or ChannelDirect when the session carries no touch.
func (s *Session) LastTouchSource() string {
	for i := len(s.Events) - 1; i >= 0; i-- {
		if s.Events[i].HasTouch() {
			return *s.Events[i].UTMSource
		}
	}
	return ChannelDirect
}
