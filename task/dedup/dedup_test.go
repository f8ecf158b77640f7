package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clickpulse/model"
)

func event(sourceFile, rawTimestamp, eventName, rawPayload string) *model.CanonicalEvent {
	return &model.CanonicalEvent{
		SourceFile:   sourceFile,
		RawTimestamp: rawTimestamp,
		EventName:    eventName,
		RawPayload:   rawPayload,
	}
}

func TestRemoveDuplicatesKeepsFirstOccurrence(t *testing.T) {
	first := event("f1.csv", "2025-11-01T10:00:00Z", "page_viewed", `{"page":"a"}`)
	repeat := event("f1.csv", "2025-11-01T10:00:00Z", "page_viewed", `{"page":"a"}`)
	other := event("f1.csv", "2025-11-01T10:00:01Z", "page_viewed", `{"page":"a"}`)

	deduped, status := RemoveDuplicates([]*model.CanonicalEvent{first, repeat, other})
	assert.Len(t, deduped, 2)
	assert.Same(t, first, deduped[0])
	assert.Same(t, other, deduped[1])
	assert.Equal(t, 1, status.NoOfRemoved)
	assert.Equal(t, 3, status.RowsIn)
	assert.Equal(t, 2, status.RowsOut)
}

func TestRemoveDuplicatesComparesPreParseTuple(t *testing.T) {
	// Same raw row from two source files is two events.
	a := event("f1.csv", "2025-11-01T10:00:00Z", "purchase", `{"total":5}`)
	b := event("f2.csv", "2025-11-01T10:00:00Z", "purchase", `{"total":5}`)

	deduped, status := RemoveDuplicates([]*model.CanonicalEvent{a, b})
	assert.Len(t, deduped, 2)
	assert.Equal(t, 0, status.NoOfRemoved)

	// Byte-identical raw rows collapse even when the payload never parsed.
	c := event("f1.csv", "not-a-time", "purchase", `{broken`)
	c.TimestampUnparseable = true
	d := event("f1.csv", "not-a-time", "purchase", `{broken`)
	d.JSONParseFailed = true

	deduped, status = RemoveDuplicates([]*model.CanonicalEvent{c, d})
	assert.Len(t, deduped, 1)
	assert.Equal(t, 1, status.NoOfRemoved)
}

func TestRemoveDuplicatesIsIdempotent(t *testing.T) {
	events := []*model.CanonicalEvent{
		event("f1.csv", "t1", "page_viewed", "{}"),
		event("f1.csv", "t1", "page_viewed", "{}"),
		event("f1.csv", "t2", "purchase", `{"total":10}`),
	}

	once, status := RemoveDuplicates(events)
	assert.Equal(t, 1, status.NoOfRemoved)

	twice, status := RemoveDuplicates(once)
	assert.Equal(t, 0, status.NoOfRemoved)
	assert.Equal(t, once, twice)
}

func TestRemoveDuplicatesEmptyInput(t *testing.T) {
	deduped, status := RemoveDuplicates(nil)
	assert.Len(t, deduped, 0)
	assert.Equal(t, 0, status.NoOfRemoved)
}
