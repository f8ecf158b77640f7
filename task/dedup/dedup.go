package dedup

import (
	log "github.com/sirupsen/logrus"

	"clickpulse/model"
)

// Status reports the dedup outcome for reconciliation and monitoring.
type Status struct {
	RowsIn      int `json:"rows_in"`
	RowsOut     int `json:"rows_out"`
	NoOfRemoved int `json:"no_of_removed"`
}

type dupKey struct {
	sourceFile   string
	rawTimestamp string
	eventName    string
	rawPayload   string
}

// RemoveDuplicates drops exact repeats of an event, keeping the first
// occurrence. Equality is on the pre-parse tuple (source_file, raw timestamp,
// event_name, raw payload) so byte-identical source rows collapse to one
// regardless of downstream parse success. Removal is reported, never an
// error; an empty input yields an empty output and a zero count.
func RemoveDuplicates(events []*model.CanonicalEvent) ([]*model.CanonicalEvent, *Status) {
	status := &Status{RowsIn: len(events)}

	seen := make(map[dupKey]bool, len(events))
	deduped := make([]*model.CanonicalEvent, 0, len(events))
	for _, event := range events {
		key := dupKey{
			sourceFile:   event.SourceFile,
			rawTimestamp: event.RawTimestamp,
			eventName:    event.EventName,
			rawPayload:   event.RawPayload,
		}
		if seen[key] {
			status.NoOfRemoved++
			continue
		}
		seen[key] = true
		deduped = append(deduped, event)
	}

	status.RowsOut = len(deduped)
	if status.NoOfRemoved > 0 {
		log.WithField("removed", status.NoOfRemoved).
			WithField("rows_in", status.RowsIn).
			Info("Removed duplicate events.")
	}
	return deduped, status
}
