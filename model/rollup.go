package model

// ChannelRevenue is one row of the channel revenue rollup, built separately
// for first-touch and last-touch grouping.
type ChannelRevenue struct {
	Channel   string  `json:"channel"`
	Purchases int     `json:"purchases"`
	Revenue   float64 `json:"revenue"`
}

// ChannelConversion is one row of the per-channel session conversion rollup.
// Rate is nil when the channel has zero sessions: the rate is undefined, not
// infinite.
type ChannelConversion struct {
	Channel   string   `json:"channel"`
	Purchases int      `json:"purchases"`
	Sessions  int      `json:"sessions"`
	Rate      *float64 `json:"conversion_rate"`
}

// DeviceRevenue is one row of the device-class rollup. RevenuePerSession is
// nil when no session contained a purchase for the class.
type DeviceRevenue struct {
	DeviceType        string   `json:"device_type"`
	Purchases         int      `json:"purchases"`
	Sessions          int      `json:"sessions"`
	Revenue           float64  `json:"revenue"`
	RevenuePerSession *float64 `json:"revenue_per_session"`
}

// BrowserRevenue is one row of the browser rollup over purchase events.
type BrowserRevenue struct {
	Browser   string  `json:"browser"`
	OS        string  `json:"os"`
	Purchases int     `json:"purchases"`
	Revenue   float64 `json:"revenue"`
}

// ConversionTypeSplit is one row of the assisted-vs-direct rollup.
type ConversionTypeSplit struct {
	ConversionType string  `json:"conversion_type"`
	Purchases      int     `json:"purchases"`
	Revenue        float64 `json:"revenue"`
}

// ProductRevenue is one row of the top-products rollup.
type ProductRevenue struct {
	ProductID string  `json:"product_id"`
	Purchases int     `json:"purchases"`
	Revenue   float64 `json:"revenue"`
}

// DailyRevenue is one day of the revenue series, UTC day keyed as YYYY-MM-DD.
type DailyRevenue struct {
	Date          string  `json:"date"`
	Purchases     int     `json:"purchases"`
	Revenue       float64 `json:"revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// Reconciliation compares attributed revenue against the raw purchase revenue
// of the deduplicated feed. A mismatch means a purchase was dropped or
// double-counted in the attribution join and the run must fail loudly.
type Reconciliation struct {
	AttributedRevenue   float64 `json:"attributed_revenue"`
	RawRevenue          float64 `json:"raw_revenue"`
	AttributedPurchases int     `json:"attributed_purchases"`
	RawPurchases        int     `json:"raw_purchases"`
	Match               bool    `json:"match"`
}
