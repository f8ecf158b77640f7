package model

// AttributedPurchase is one purchase event enriched with its first and last
// marketing touch inside the lookback window. Nil touch fields mean no
// attributable touch existed and the purchase is classified direct downstream.
type AttributedPurchase struct {
	Purchase *CanonicalEvent `json:"purchase"`
	Revenue  float64         `json:"revenue"`

	FirstTouchSource   *string `json:"first_utm_source"`
	FirstTouchMedium   *string `json:"first_utm_medium"`
	FirstTouchCampaign *string `json:"first_utm_campaign"`

	LastTouchSource   *string `json:"last_utm_source"`
	LastTouchMedium   *string `json:"last_utm_medium"`
	LastTouchCampaign *string `json:"last_utm_campaign"`
}

// FirstTouchChannel coalesces the first-touch source to the direct label.
func (a *AttributedPurchase) FirstTouchChannel() string {
	if a.FirstTouchSource == nil || *a.FirstTouchSource == "" {
		return ChannelDirect
	}
	return *a.FirstTouchSource
}

// LastTouchChannel coalesces the last-touch source to the direct label.
func (a *AttributedPurchase) LastTouchChannel() string {
	if a.LastTouchSource == nil || *a.LastTouchSource == "" {
		return ChannelDirect
	}
	return *a.LastTouchSource
}

// Conversion path classes over first vs last touch.
const (
	ConversionTypePureDirect    = "Pure Direct"
	ConversionTypeSingleChannel = "Single Channel"
	ConversionTypeAssisted      = "Assisted Conversion"
)

// ConversionType classifies the purchase path: both touches direct, one
// channel end to end, or an assisted multi-channel path.
func (a *AttributedPurchase) ConversionType() string {
	first := a.FirstTouchChannel()
	last := a.LastTouchChannel()
	if first == ChannelDirect && last == ChannelDirect {
		return ConversionTypePureDirect
	}
	if first == last {
		return ConversionTypeSingleChannel
	}
	return ConversionTypeAssisted
}
