package feed

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"clickpulse/model"
	U "clickpulse/util"
)

// Package feed loads the canonical event table produced by the upstream feed
// collaborator. Raw file discovery, column normalization and payload repair
// happen there; this reader only decodes the already-normalized records and
// accounts for their quality flags.

const maxLineBytes = 1024 * 1024

// Stats aggregates per-record quality flags into the rates the monitor reads.
type Stats struct {
	Rows                      int `json:"rows"`
	NullIdentity              int `json:"null_identity"`
	BadTimestamps             int `json:"bad_timestamps"`
	PayloadParseFailures      int `json:"payload_parse_failures"`
	UnrecognizedEventNames    int `json:"unrecognized_event_names"`
	Purchases                 int `json:"purchases"`
	NonPositivePurchaseTotals int `json:"non_positive_purchase_totals"`

	// DuplicatesRemoved is filled in by the dedup stage so the monitor has a
	// single integrity snapshot to read.
	DuplicatesRemoved int `json:"duplicates_removed"`
}

func (s *Stats) NullIdentityRate() float64 {
	return U.SafeRate(s.NullIdentity, s.Rows)
}

func (s *Stats) PayloadFailureRate() float64 {
	return U.SafeRate(s.PayloadParseFailures, s.Rows)
}

// DuplicateRate is measured against the pre-dedup row volume.
func (s *Stats) DuplicateRate() float64 {
	return U.SafeRate(s.DuplicatesRemoved, s.Rows)
}

// LoadEvents reads the canonical event feed, assigns ingestion order and
// derives the missing commerce fields. The file handle is closed on every
// exit path. An empty feed returns an empty slice, not an error.
func LoadEvents(path string) ([]*model.CanonicalEvent, *Stats, error) {
	logCtx := log.WithField("feed_path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open canonical feed")
	}
	defer file.Close()

	events := make([]*model.CanonicalEvent, 0)
	stats := &Stats{}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		event := &model.CanonicalEvent{}
		if err := json.Unmarshal(line, event); err != nil {
			// The canonical feed contract guarantees well formed records.
			// A broken line is a feed defect, not a data-quality flag.
			return nil, nil, errors.Wrapf(err, "malformed canonical record at line %d", lineNo)
		}

		event.Index = len(events)
		enrichEvent(event)
		accountEvent(stats, event)
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed reading canonical feed")
	}

	logCtx.WithField("rows", stats.Rows).Info("Loaded canonical event feed.")
	return events, stats, nil
}

// enrichEvent fills derived fields the feed may omit: the identity and
// timestamp flags, the unrecognized-name flag, and total as
// unit_price x quantity with a payload fallback.
func enrichEvent(event *model.CanonicalEvent) {
	if !event.HasIdentity() {
		event.IdentityMissing = true
	}
	if !event.TimestampValid {
		event.TimestampUnparseable = true
	}
	if event.EventName != "" && !model.IsAllowedEventName(event.EventName) {
		event.EventNameUnrecognized = true
	}

	if event.Total == nil {
		if event.UnitPrice != nil && event.Quantity != nil {
			event.Total = U.Float64Ptr(*event.UnitPrice * *event.Quantity)
		} else if event.Payload != nil {
			if total, found := event.Payload.GetNumber("total"); found {
				event.Total = U.Float64Ptr(total)
			} else if total, found := event.Payload.SumFromItems("total"); found {
				event.Total = U.Float64Ptr(total)
			}
		}
	}

	if event.ProductID == nil && event.Payload != nil {
		if productID, found := event.Payload.GetProductID(); found {
			event.ProductID = U.StringPtr(productID)
		}
	}
}

func accountEvent(stats *Stats, event *model.CanonicalEvent) {
	stats.Rows++
	if event.IdentityMissing {
		stats.NullIdentity++
	}
	if event.TimestampUnparseable {
		stats.BadTimestamps++
	}
	if event.JSONParseFailed {
		stats.PayloadParseFailures++
	}
	if event.EventNameUnrecognized {
		stats.UnrecognizedEventNames++
	}
	if event.IsPurchase() {
		stats.Purchases++
		if event.Total == nil || *event.Total <= 0 {
			stats.NonPositivePurchaseTotals++
		}
	}
}
