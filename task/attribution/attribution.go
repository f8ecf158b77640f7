package attribution

import (
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"clickpulse/model"
)

// Status reports the attribution outcome. Purchases with unresolved revenue
// are recorded at zero and counted here, never excluded.
type Status struct {
	NoOfPurchases         int `json:"no_of_purchases"`
	NoOfDirect            int `json:"no_of_direct"`
	NoOfUnresolvedRevenue int `json:"no_of_unresolved_revenue"`

	Lock sync.Mutex `json:"-"`
}

func (s *Status) add(direct, unresolved bool) {
	s.Lock.Lock()
	defer s.Lock.Unlock()
	s.NoOfPurchases++
	if direct {
		s.NoOfDirect++
	}
	if unresolved {
		s.NoOfUnresolvedRevenue++
	}
}

// touchIndex holds each identity's marketing-touch events sorted by
// timestamp (ties in ingestion order), so a purchase's lookback window is a
// binary-searched range scan instead of a full pass over all events.
type touchIndex map[string][]*model.CanonicalEvent

func buildTouchIndex(events []*model.CanonicalEvent) touchIndex {
	index := make(touchIndex)
	for _, event := range events {
		if !event.HasIdentity() || !event.TimestampValid || !event.HasTouch() {
			continue
		}
		identity := *event.Identity
		index[identity] = append(index[identity], event)
	}
	for identity := range index {
		touches := index[identity]
		sort.SliceStable(touches, func(i, j int) bool {
			return touches[i].Timestamp.Before(touches[j].Timestamp)
		})
	}
	return index
}

// window returns the touches of one identity inside [from, to], both ends
// inclusive.
func (idx touchIndex) window(identity string, from, to time.Time) []*model.CanonicalEvent {
	touches := idx[identity]
	lo := sort.Search(len(touches), func(i int) bool {
		return !touches[i].Timestamp.Before(from)
	})
	hi := sort.Search(len(touches), func(i int) bool {
		return touches[i].Timestamp.After(to)
	})
	if lo >= hi {
		return nil
	}
	return touches[lo:hi]
}

// AttributePurchases emits one AttributedPurchase per purchase event of the
// deduplicated feed. Purchases without identity or ordering information get
// null touches (direct); the rest are attributed to the first and last touch
// inside the trailing lookback window. The purchase itself qualifies as its
// own last touch when it carries UTM parameters.
func AttributePurchases(events []*model.CanonicalEvent, lookbackDays int,
	numRoutines int) ([]*model.AttributedPurchase, *Status) {

	status := &Status{}
	lookback := time.Duration(lookbackDays) * 24 * time.Hour
	if numRoutines < 1 {
		numRoutines = 1
	}

	index := buildTouchIndex(events)

	purchases := make([]*model.CanonicalEvent, 0)
	for _, event := range events {
		if event.IsPurchase() {
			purchases = append(purchases, event)
		}
	}

	// Every purchase writes its own slot, so only the status needs a lock.
	attributed := make([]*model.AttributedPurchase, len(purchases))
	chunks := chunkRange(len(purchases), numRoutines)
	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for _, chunk := range chunks {
		go func(from, to int) {
			defer wg.Done()
			for i := from; i < to; i++ {
				attributed[i] = attributePurchase(purchases[i], index, lookback, status)
			}
		}(chunk[0], chunk[1])
	}
	wg.Wait()

	log.WithField("no_of_purchases", status.NoOfPurchases).
		WithField("no_of_direct", status.NoOfDirect).
		Info("Attributed purchases.")
	return attributed, status
}

func attributePurchase(purchase *model.CanonicalEvent, index touchIndex,
	lookback time.Duration, status *Status) *model.AttributedPurchase {

	result := &model.AttributedPurchase{Purchase: purchase}

	revenue, resolved := purchase.Revenue()
	result.Revenue = revenue

	var candidates []*model.CanonicalEvent
	if purchase.HasIdentity() && purchase.TimestampValid {
		from := purchase.Timestamp.Add(-lookback)
		candidates = index.window(*purchase.Identity, from, purchase.Timestamp)
	}

	if len(candidates) > 0 {
		// Sorted ascending by timestamp with ingestion-order ties: the head
		// is the earliest first touch, the tail the latest last touch.
		first := candidates[0]
		last := candidates[len(candidates)-1]
		result.FirstTouchSource = first.UTMSource
		result.FirstTouchMedium = first.UTMMedium
		result.FirstTouchCampaign = first.UTMCampaign
		result.LastTouchSource = last.UTMSource
		result.LastTouchMedium = last.UTMMedium
		result.LastTouchCampaign = last.UTMCampaign
	}

	status.add(len(candidates) == 0, !resolved)
	return result
}

// chunkRange splits [0, n) into at most parts contiguous [from, to) pairs.
func chunkRange(n, parts int) [][2]int {
	if n == 0 {
		return nil
	}
	size := (n + parts - 1) / parts
	chunks := make([][2]int, 0, parts)
	for from := 0; from < n; from += size {
		to := from + size
		if to > n {
			to = n
		}
		chunks = append(chunks, [2]int{from, to})
	}
	return chunks
}
