package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	C "clickpulse/config"
	"clickpulse/feed"
	"clickpulse/model"
	"clickpulse/task/rollup"
)

func testConf() *C.Configuration {
	return &C.Configuration{
		BaselineDays:          C.DefaultBaselineDays,
		MaxNullIdentityRate:   C.DefaultMaxNullIdentityRate,
		MaxDuplicateRate:      C.DefaultMaxDuplicateRate,
		MaxPayloadFailureRate: C.DefaultMaxPayloadFailureRate,
		MaxRevenueDrop:        C.DefaultMaxRevenueDrop,
		MaxDirectShare:        C.DefaultMaxDirectShare,
	}
}

func healthyStats() *feed.Stats {
	return &feed.Stats{Rows: 1000, Purchases: 50}
}

func healthyRollups() *rollup.Result {
	return &rollup.Result{
		ChannelsLastTouch: []model.ChannelRevenue{
			{Channel: "ads", Purchases: 40, Revenue: 800},
			{Channel: "direct", Purchases: 10, Revenue: 200},
		},
	}
}

// Eight days of history with a flat baseline and a collapsed latest day.
func droppedHistory() []model.DailyRevenue {
	history := []model.DailyRevenue{{Date: "2025-11-08", Revenue: 20, Purchases: 1}}
	for i := 7; i >= 1; i-- {
		history = append(history, model.DailyRevenue{
			Date:      "2025-11-0" + string(rune('0'+i)),
			Revenue:   100,
			Purchases: 4,
		})
	}
	return history
}

func flatHistory(days int) []model.DailyRevenue {
	history := make([]model.DailyRevenue, 0, days)
	for i := 1; i <= days; i++ {
		history = append(history, model.DailyRevenue{
			Date: "2025-11-0" + string(rune('0'+i)), Revenue: 100, Purchases: 4,
		})
	}
	// Most recent first.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history
}

func checkResult(t *testing.T, report *model.MonitorReport, check string) model.CheckResult {
	t.Helper()
	for _, result := range report.Checks {
		if result.Check == check {
			return result
		}
	}
	t.Fatalf("check %s not reported", check)
	return model.CheckResult{}
}

func TestEvaluateHealthyRunPasses(t *testing.T) {
	report := Evaluate(healthyStats(), healthyRollups(), flatHistory(8), testConf())

	assert.Equal(t, model.MonitorStatusPass, report.Status)
	assert.Len(t, report.Alerts, 0)
	for _, result := range report.Checks {
		assert.Equal(t, model.CheckResultPass, result.Result, result.Check)
	}
	assert.Equal(t, "2025-11-08", report.Date)
}

func TestEvaluateRevenueDropIsCritical(t *testing.T) {
	// 20 against a 100 baseline is an 80% drop, past the 40% threshold.
	report := Evaluate(healthyStats(), healthyRollups(), droppedHistory(), testConf())

	assert.Equal(t, model.MonitorStatusFail, report.Status)
	result := checkResult(t, report, CheckRevenueDrop)
	assert.Equal(t, model.CheckResultCritical, result.Result)
	assert.Contains(t, result.Detail, "Revenue drop detected: 20 vs baseline 100")

	criticals := 0
	for _, alert := range report.Alerts {
		if alert.Severity == model.SeverityCritical {
			criticals++
		}
	}
	assert.Equal(t, 1, criticals)
}

func TestEvaluateInsufficientBaselineIsSkipped(t *testing.T) {
	report := Evaluate(healthyStats(), healthyRollups(), flatHistory(5), testConf())

	result := checkResult(t, report, CheckRevenueDrop)
	assert.Equal(t, model.CheckResultSkipped, result.Result)
	assert.Contains(t, result.Detail, "insufficient baseline (5 of 8 days)")
	// A skipped check never fails the run.
	assert.Equal(t, model.MonitorStatusPass, report.Status)
}

func TestEvaluateZeroVolumeIsCritical(t *testing.T) {
	report := Evaluate(&feed.Stats{}, &rollup.Result{}, nil, testConf())

	assert.Equal(t, model.MonitorStatusFail, report.Status)
	assert.Equal(t, model.CheckResultCritical, checkResult(t, report, CheckRowVolume).Result)
	assert.Equal(t, model.CheckResultCritical, checkResult(t, report, CheckPurchaseVolume).Result)
}

func TestEvaluateZeroPurchasesOnly(t *testing.T) {
	report := Evaluate(&feed.Stats{Rows: 500}, &rollup.Result{}, nil, testConf())

	assert.Equal(t, model.CheckResultPass, checkResult(t, report, CheckRowVolume).Result)
	assert.Equal(t, model.CheckResultCritical, checkResult(t, report, CheckPurchaseVolume).Result)
	assert.Equal(t, model.MonitorStatusFail, report.Status)
}

func TestEvaluateIntegrityWarnThresholds(t *testing.T) {
	stats := &feed.Stats{
		Rows:                 1000,
		Purchases:            50,
		NullIdentity:         250, // 25% > 20%
		DuplicatesRemoved:    5,   // 0.5% > 0.1%
		PayloadParseFailures: 20,  // 2% > 1%
	}
	report := Evaluate(stats, healthyRollups(), flatHistory(8), testConf())

	assert.Equal(t, model.MonitorStatusWarn, report.Status)
	assert.Equal(t, model.CheckResultWarn, checkResult(t, report, CheckNullIdentity).Result)
	assert.Equal(t, model.CheckResultWarn, checkResult(t, report, CheckDuplicateRate).Result)
	assert.Equal(t, model.CheckResultWarn, checkResult(t, report, CheckPayloadParse).Result)
	assert.Len(t, report.Alerts, 3)
	for _, alert := range report.Alerts {
		assert.Equal(t, model.SeverityWarn, alert.Severity)
	}
}

func TestEvaluateThresholdsAreExclusive(t *testing.T) {
	// A rate exactly at the threshold does not alert.
	stats := &feed.Stats{Rows: 1000, Purchases: 50, NullIdentity: 200}
	report := Evaluate(stats, healthyRollups(), flatHistory(8), testConf())
	assert.Equal(t, model.CheckResultPass, checkResult(t, report, CheckNullIdentity).Result)
}

func TestEvaluateDirectShareWarn(t *testing.T) {
	rollups := &rollup.Result{
		ChannelsLastTouch: []model.ChannelRevenue{
			{Channel: "direct", Purchases: 45, Revenue: 900},
			{Channel: "ads", Purchases: 5, Revenue: 100},
		},
	}
	report := Evaluate(healthyStats(), rollups, flatHistory(8), testConf())

	result := checkResult(t, report, CheckDirectShare)
	assert.Equal(t, model.CheckResultWarn, result.Result)
	assert.Contains(t, result.Detail, "Direct traffic unusually high")
	assert.Equal(t, model.MonitorStatusWarn, report.Status)
}

func TestEvaluateDirectShareSkippedOnZeroRevenue(t *testing.T) {
	rollups := &rollup.Result{
		ChannelsLastTouch: []model.ChannelRevenue{{Channel: "direct", Purchases: 2, Revenue: 0}},
	}
	report := Evaluate(healthyStats(), rollups, flatHistory(8), testConf())

	result := checkResult(t, report, CheckDirectShare)
	assert.Equal(t, model.CheckResultSkipped, result.Result)
	assert.Contains(t, result.Detail, "zero total revenue")
}

func TestEvaluateWarnAndCriticalTogetherFail(t *testing.T) {
	stats := healthyStats()
	stats.NullIdentity = 300
	report := Evaluate(stats, healthyRollups(), droppedHistory(), testConf())

	assert.Equal(t, model.MonitorStatusFail, report.Status)
	assert.Len(t, report.Alerts, 2)
}

func TestEvaluateReportDateFallsBackToToday(t *testing.T) {
	report := Evaluate(healthyStats(), healthyRollups(), nil, testConf())
	assert.NotEmpty(t, report.Date)
}
