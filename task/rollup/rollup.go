package rollup

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"clickpulse/model"
	U "clickpulse/util"
)

// Result carries every rollup table of a run plus the reconciliation check.
type Result struct {
	ChannelsLastTouch  []model.ChannelRevenue      `json:"channels_last_touch"`
	ChannelsFirstTouch []model.ChannelRevenue      `json:"channels_first_touch"`
	Conversion         []model.ChannelConversion   `json:"conversion_by_channel"`
	Devices            []model.DeviceRevenue       `json:"revenue_by_device"`
	Browsers           []model.BrowserRevenue      `json:"revenue_by_browser"`
	ConversionTypes    []model.ConversionTypeSplit `json:"assisted_vs_direct"`
	TopProducts        []model.ProductRevenue      `json:"top_products"`
	Daily              []model.DailyRevenue        `json:"daily_revenue"`
	Reconciliation     model.Reconciliation        `json:"reconciliation"`
}

const topProductsLimit = 50

// BuildRollups aggregates the attributed purchases into the channel, device,
// conversion, product and daily tables, and reconciles attributed revenue
// against the raw purchase revenue of the deduplicated feed. A reconciliation
// mismatch returns the tables together with an error: the numbers are a
// defect and must not be consumed silently.
func BuildRollups(events []*model.CanonicalEvent, sessions []*model.Session,
	attributed []*model.AttributedPurchase) (*Result, error) {

	result := &Result{
		ChannelsLastTouch:  channelRevenue(attributed, lastTouchChannel),
		ChannelsFirstTouch: channelRevenue(attributed, firstTouchChannel),
		Conversion:         conversionByChannel(sessions, attributed),
		Devices:            revenueByDevice(sessions, attributed),
		Browsers:           revenueByBrowser(attributed),
		ConversionTypes:    assistedVsDirect(attributed),
		TopProducts:        topProducts(attributed),
		Daily:              dailyRevenue(attributed),
	}

	result.Reconciliation = reconcile(events, attributed)
	if !result.Reconciliation.Match {
		log.WithField("attributed_revenue", result.Reconciliation.AttributedRevenue).
			WithField("raw_revenue", result.Reconciliation.RawRevenue).
			Error("Attributed revenue does not reconcile with raw purchase revenue.")
		return result, fmt.Errorf(
			"reconciliation failed: attributed revenue %.6f (%d purchases) vs raw %.6f (%d purchases)",
			result.Reconciliation.AttributedRevenue, result.Reconciliation.AttributedPurchases,
			result.Reconciliation.RawRevenue, result.Reconciliation.RawPurchases)
	}
	return result, nil
}

func lastTouchChannel(a *model.AttributedPurchase) string  { return a.LastTouchChannel() }
func firstTouchChannel(a *model.AttributedPurchase) string { return a.FirstTouchChannel() }

func channelRevenue(attributed []*model.AttributedPurchase,
	channelOf func(*model.AttributedPurchase) string) []model.ChannelRevenue {

	byChannel := make(map[string]*model.ChannelRevenue)
	for _, a := range attributed {
		channel := channelOf(a)
		row, exists := byChannel[channel]
		if !exists {
			row = &model.ChannelRevenue{Channel: channel}
			byChannel[channel] = row
		}
		row.Purchases++
		row.Revenue += a.Revenue
	}
	return sortedChannelRows(byChannel)
}

func sortedChannelRows(byChannel map[string]*model.ChannelRevenue) []model.ChannelRevenue {
	rows := make([]model.ChannelRevenue, 0, len(byChannel))
	for _, row := range byChannel {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].Channel < rows[j].Channel
	})
	return rows
}

// sessionLookup finds the session containing a purchase by identity and
// timestamp, endpoints inclusive.
type sessionLookup map[string][]*model.Session

func newSessionLookup(sessions []*model.Session) sessionLookup {
	lookup := make(sessionLookup)
	for _, s := range sessions {
		lookup[s.Identity] = append(lookup[s.Identity], s)
	}
	return lookup
}

func (l sessionLookup) forPurchase(purchase *model.CanonicalEvent) *model.Session {
	if !purchase.HasIdentity() || !purchase.TimestampValid {
		return nil
	}
	for _, s := range l[*purchase.Identity] {
		if s.Contains(purchase.Timestamp) {
			return s
		}
	}
	return nil
}

// conversionByChannel computes purchases over sessions per channel, where a
// session's channel is its own last in-session touch and a purchase counts
// against the channel of the session containing it. A channel with purchases
// but zero sessions keeps a nil rate: undefined, not infinity.
func conversionByChannel(sessions []*model.Session,
	attributed []*model.AttributedPurchase) []model.ChannelConversion {

	sessionsByChannel := make(map[string]int)
	for _, s := range sessions {
		sessionsByChannel[s.LastTouchSource()]++
	}

	lookup := newSessionLookup(sessions)
	purchasesByChannel := make(map[string]int)
	for _, a := range attributed {
		channel := model.ChannelDirect
		if s := lookup.forPurchase(a.Purchase); s != nil {
			channel = s.LastTouchSource()
		}
		purchasesByChannel[channel]++
	}

	channels := make(map[string]bool)
	for channel := range sessionsByChannel {
		channels[channel] = true
	}
	for channel := range purchasesByChannel {
		channels[channel] = true
	}

	rows := make([]model.ChannelConversion, 0, len(channels))
	for channel := range channels {
		row := model.ChannelConversion{
			Channel:   channel,
			Purchases: purchasesByChannel[channel],
			Sessions:  sessionsByChannel[channel],
		}
		if row.Sessions > 0 {
			row.Rate = U.Float64Ptr(float64(row.Purchases) / float64(row.Sessions))
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		ri, rj := rows[i].Rate, rows[j].Rate
		if ri != nil && rj != nil && *ri != *rj {
			return *ri > *rj
		}
		if (ri != nil) != (rj != nil) {
			return ri != nil
		}
		return rows[i].Channel < rows[j].Channel
	})
	return rows
}

func revenueByDevice(sessions []*model.Session,
	attributed []*model.AttributedPurchase) []model.DeviceRevenue {

	lookup := newSessionLookup(sessions)
	byDevice := make(map[string]*model.DeviceRevenue)
	sessionsSeen := make(map[string]map[string]bool)
	for _, a := range attributed {
		device := U.GetDeviceType(a.Purchase.UserAgent)
		row, exists := byDevice[device]
		if !exists {
			row = &model.DeviceRevenue{DeviceType: device}
			byDevice[device] = row
			sessionsSeen[device] = make(map[string]bool)
		}
		row.Purchases++
		row.Revenue += a.Revenue
		if s := lookup.forPurchase(a.Purchase); s != nil {
			sessionsSeen[device][s.SessionID] = true
		}
	}

	rows := make([]model.DeviceRevenue, 0, len(byDevice))
	for device, row := range byDevice {
		row.Sessions = len(sessionsSeen[device])
		if row.Sessions > 0 {
			row.RevenuePerSession = U.Float64Ptr(row.Revenue / float64(row.Sessions))
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].DeviceType < rows[j].DeviceType
	})
	return rows
}

func revenueByBrowser(attributed []*model.AttributedPurchase) []model.BrowserRevenue {
	type key struct{ browser, os string }
	byBrowser := make(map[key]*model.BrowserRevenue)
	for _, a := range attributed {
		browser, _ := U.GetBrowser(a.Purchase.UserAgent)
		if browser == "" {
			browser = "Other"
		}
		k := key{browser, U.GetOS(a.Purchase.UserAgent)}
		row, exists := byBrowser[k]
		if !exists {
			row = &model.BrowserRevenue{Browser: k.browser, OS: k.os}
			byBrowser[k] = row
		}
		row.Purchases++
		row.Revenue += a.Revenue
	}
	rows := make([]model.BrowserRevenue, 0, len(byBrowser))
	for _, row := range byBrowser {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		if rows[i].Browser != rows[j].Browser {
			return rows[i].Browser < rows[j].Browser
		}
		return rows[i].OS < rows[j].OS
	})
	return rows
}

func assistedVsDirect(attributed []*model.AttributedPurchase) []model.ConversionTypeSplit {
	byType := make(map[string]*model.ConversionTypeSplit)
	for _, a := range attributed {
		conversionType := a.ConversionType()
		row, exists := byType[conversionType]
		if !exists {
			row = &model.ConversionTypeSplit{ConversionType: conversionType}
			byType[conversionType] = row
		}
		row.Purchases++
		row.Revenue += a.Revenue
	}
	rows := make([]model.ConversionTypeSplit, 0, len(byType))
	for _, row := range byType {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Purchases != rows[j].Purchases {
			return rows[i].Purchases > rows[j].Purchases
		}
		return rows[i].ConversionType < rows[j].ConversionType
	})
	return rows
}

func topProducts(attributed []*model.AttributedPurchase) []model.ProductRevenue {
	byProduct := make(map[string]*model.ProductRevenue)
	for _, a := range attributed {
		productID := "unknown"
		if a.Purchase.ProductID != nil && *a.Purchase.ProductID != "" {
			productID = *a.Purchase.ProductID
		}
		row, exists := byProduct[productID]
		if !exists {
			row = &model.ProductRevenue{ProductID: productID}
			byProduct[productID] = row
		}
		row.Purchases++
		row.Revenue += a.Revenue
	}
	rows := make([]model.ProductRevenue, 0, len(byProduct))
	for _, row := range byProduct {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	if len(rows) > topProductsLimit {
		rows = rows[:topProductsLimit]
	}
	return rows
}

// dailyRevenue buckets purchases into UTC days. Purchases whose timestamp
// never parsed cannot be dated and are left out of the series; they are
// still counted in the feed stats and reconciliation.
func dailyRevenue(attributed []*model.AttributedPurchase) []model.DailyRevenue {
	byDay := make(map[string]*model.DailyRevenue)
	for _, a := range attributed {
		if !a.Purchase.TimestampValid {
			continue
		}
		day := U.GetDateOnlyZ(a.Purchase.Timestamp)
		row, exists := byDay[day]
		if !exists {
			row = &model.DailyRevenue{Date: day}
			byDay[day] = row
		}
		row.Purchases++
		row.Revenue += a.Revenue
	}
	rows := make([]model.DailyRevenue, 0, len(byDay))
	for _, row := range byDay {
		if row.Purchases > 0 {
			row.AvgOrderValue = row.Revenue / float64(row.Purchases)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date < rows[j].Date
	})
	return rows
}

// reconcile sums both sides over the same events in the same order, so exact
// float equality holds unless a purchase was dropped or double counted.
func reconcile(events []*model.CanonicalEvent,
	attributed []*model.AttributedPurchase) model.Reconciliation {

	rec := model.Reconciliation{AttributedPurchases: len(attributed)}
	for _, a := range attributed {
		rec.AttributedRevenue += a.Revenue
	}
	for _, event := range events {
		if !event.IsPurchase() {
			continue
		}
		revenue, _ := event.Revenue()
		rec.RawRevenue += revenue
		rec.RawPurchases++
	}
	rec.Match = rec.AttributedPurchases == rec.RawPurchases &&
		rec.AttributedRevenue == rec.RawRevenue
	return rec
}
