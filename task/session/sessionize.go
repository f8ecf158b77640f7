package session

import (
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"clickpulse/model"
	U "clickpulse/util"
)

// Status reports sessionization counts. Events without identity or with an
// unparseable timestamp cannot be sessionized; they are counted here instead
// of silently vanishing from the totals used elsewhere.
type Status struct {
	NoOfEvents             int `json:"no_of_events"`
	NoOfEventsProcessed    int `json:"no_of_events_processed"`
	NoOfUsers              int `json:"no_of_users"`
	NoOfSessionsCreated    int `json:"no_of_sessions_created"`
	NoOfEventsNoIdentity   int `json:"no_of_events_no_identity"`
	NoOfEventsBadTimestamp int `json:"no_of_events_bad_timestamp"`

	Lock sync.Mutex `json:"-"`
}

func (s *Status) add(noOfProcessed, noOfCreated int) {
	s.Lock.Lock()
	defer s.Lock.Unlock()
	s.NoOfEventsProcessed += noOfProcessed
	s.NoOfSessionsCreated += noOfCreated
}

// BuildSessions groups each identity's chronologically ordered events into
// sessions separated by inactivity gaps strictly greater than gapSeconds.
// Identities are independent, so they are processed in worker batches.
func BuildSessions(events []*model.CanonicalEvent, gapSeconds int,
	numRoutines int) ([]*model.Session, *Status) {

	status := &Status{NoOfEvents: len(events)}
	gap := time.Duration(gapSeconds) * time.Second
	if numRoutines < 1 {
		numRoutines = 1
	}

	// Partition by identity, keeping ingestion order within each partition
	// so the later stable sort preserves ties.
	eventsByIdentity := make(map[string][]*model.CanonicalEvent)
	for _, event := range events {
		if !event.HasIdentity() {
			status.NoOfEventsNoIdentity++
			continue
		}
		if !event.TimestampValid {
			status.NoOfEventsBadTimestamp++
			continue
		}
		identity := *event.Identity
		eventsByIdentity[identity] = append(eventsByIdentity[identity], event)
	}
	status.NoOfUsers = len(eventsByIdentity)

	identities := make([]string, 0, len(eventsByIdentity))
	for identity := range eventsByIdentity {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	sessions := make([]*model.Session, 0)
	var sessionsLock sync.Mutex

	identityChunks := U.GetStringListAsBatch(identities, numRoutines)
	for ci := range identityChunks {
		var wg sync.WaitGroup
		wg.Add(len(identityChunks[ci]))
		for _, identity := range identityChunks[ci] {
			go func(identity string) {
				defer wg.Done()
				userSessions := buildUserSessions(identity, eventsByIdentity[identity], gap)
				status.add(len(eventsByIdentity[identity]), len(userSessions))
				sessionsLock.Lock()
				sessions = append(sessions, userSessions...)
				sessionsLock.Unlock()
			}(identity)
		}
		wg.Wait() // Wait till all identities of the batch are processed.
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Identity != sessions[j].Identity {
			return sessions[i].Identity < sessions[j].Identity
		}
		return sessions[i].Sequence < sessions[j].Sequence
	})

	log.WithField("no_of_users", status.NoOfUsers).
		WithField("no_of_sessions", status.NoOfSessionsCreated).
		Info("Built sessions.")
	return sessions, status
}

// buildUserSessions walks one identity's timeline. A new session starts at
// the first event or when the gap to the previous event strictly exceeds the
// threshold, so two events exactly at the gap stay in the same session.
func buildUserSessions(identity string, events []*model.CanonicalEvent,
	gap time.Duration) []*model.Session {

	if len(events) == 0 {
		return nil
	}

	ordered := make([]*model.CanonicalEvent, len(events))
	copy(ordered, events)
	// Stable: identical timestamps keep their ingestion order.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	sessions := make([]*model.Session, 0)
	var current *model.Session
	var prev *model.CanonicalEvent
	for _, event := range ordered {
		if current == nil || event.Timestamp.Sub(prev.Timestamp) > gap {
			current = &model.Session{
				Identity: identity,
				Sequence: len(sessions) + 1,
			}
			current.SessionID = model.SessionIDFor(identity, current.Sequence)
			sessions = append(sessions, current)
		}
		current.Events = append(current.Events, event)
		current.EventIndexes = append(current.EventIndexes, event.Index)
		prev = event
	}

	// Bounds and inclusive duration are derived after the walk. A single
	// event session has duration zero.
	for _, s := range sessions {
		s.Start = s.Events[0].Timestamp
		s.End = s.Events[len(s.Events)-1].Timestamp
		s.DurationSeconds = int64(s.End.Sub(s.Start) / time.Second)
	}
	return sessions
}
