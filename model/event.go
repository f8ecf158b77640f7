package model

import (
	"time"
)

// Event taxonomy. Any other event_name is flagged and retained.
const (
	EventNamePageViewed         = "page_viewed"
	EventNameEmailFilledOnPopup = "email_filled_on_popup"
	EventNameProductAddedToCart = "product_added_to_cart"
	EventNameCheckoutStarted    = "checkout_started"
	EventNamePurchase           = "purchase"
)

// ChannelDirect is the fallback channel label when no attributable touch exists.
const ChannelDirect = "direct"

var allowedEventNames = map[string]bool{
	EventNamePageViewed:         true,
	EventNameEmailFilledOnPopup: true,
	EventNameProductAddedToCart: true,
	EventNameCheckoutStarted:    true,
	EventNamePurchase:           true,
}

func IsAllowedEventName(name string) bool {
	return allowedEventNames[name]
}

// CanonicalEvent is one observed action from the canonical event feed.
// Events are immutable after the feed step. Optional fields are pointers.
type CanonicalEvent struct {
	Identity  *string   `json:"client_id"`
	Timestamp time.Time `json:"timestamp_utc"`
	// TimestampValid is false when the source timestamp could not be parsed.
	// Such events cannot be ordered and are excluded from sessionization,
	// but stay in the canonical feed for every other computation.
	TimestampValid bool       `json:"timestamp_valid"`
	EventName      string     `json:"event_name"`
	Payload        Properties `json:"event_data_parsed,omitempty"`
	PageURL        string     `json:"page_url"`
	Referrer       string     `json:"referrer"`
	UserAgent      string     `json:"user_agent"`

	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`

	UnitPrice *float64 `json:"unit_price"`
	Quantity  *float64 `json:"quantity"`
	Total     *float64 `json:"total"`
	ProductID *string  `json:"product_id"`

	SourceFile string `json:"source_file"`

	// Pre-parse representation, used for duplicate detection so that two
	// rows byte-identical in source are one event regardless of parse outcome.
	RawTimestamp string `json:"timestamp"`
	RawPayload   string `json:"event_data"`

	// Quality flags from the feed collaborator.
	JSONParseFailed       bool `json:"json_parse_failed"`
	TimestampUnparseable  bool `json:"timestamp_unparseable"`
	IdentityMissing       bool `json:"identity_missing"`
	EventNameUnrecognized bool `json:"event_name_unrecognized"`

	// Index is the original ingestion order, assigned by the feed reader.
	// It is the tie breaker wherever timestamps collide.
	Index int `json:"index"`
}

// HasIdentity reports whether the event carries a usable client key.
func (e *CanonicalEvent) HasIdentity() bool {
	return e.Identity != nil && *e.Identity != ""
}

// HasTouch reports whether the event is a marketing touch. utm_source is the
// anchor field for touch validity. A row with only utm_medium or utm_campaign
// never qualifies.
func (e *CanonicalEvent) HasTouch() bool {
	return e.UTMSource != nil && *e.UTMSource != ""
}

func (e *CanonicalEvent) IsPurchase() bool {
	return e.EventName == EventNamePurchase
}

// Revenue resolves the purchase value as coalesce(payload price, total, 0).
// The second return is false when neither source resolved and the value
// defaulted to zero.
func (e *CanonicalEvent) Revenue() (float64, bool) {
	if e.Payload != nil {
		if price, found := e.Payload.GetPrice(); found {
			return price, true
		}
	}
	if e.Total != nil {
		return *e.Total, true
	}
	return 0, false
}
