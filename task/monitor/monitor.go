package monitor

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	C "clickpulse/config"
	"clickpulse/feed"
	"clickpulse/model"
	"clickpulse/task/rollup"
	U "clickpulse/util"
)

// Check names as reported.
const (
	CheckRowVolume      = "row_volume"
	CheckPurchaseVolume = "purchase_volume"
	CheckNullIdentity   = "null_identity_rate"
	CheckDuplicateRate  = "duplicate_rate"
	CheckPayloadParse   = "payload_parse_rate"
	CheckRevenueDrop    = "revenue_drop"
	CheckDirectShare    = "direct_share"
)

// Evaluate runs every drift check independently and reports them together.
// It reads the feed stats, the rollups and the daily revenue history (most
// recent day first) and never mutates any of them. A report is produced on
// every run, CRITICAL included.
func Evaluate(stats *feed.Stats, rollups *rollup.Result,
	history []model.DailyRevenue, conf *C.Configuration) *model.MonitorReport {

	report := &model.MonitorReport{
		Date:   reportDate(history),
		Alerts: make([]model.Alert, 0),
		Checks: make([]model.CheckResult, 0),
	}

	checkVolume(report, stats)
	checkIntegrity(report, stats, conf)
	checkRevenueDrop(report, history, conf)
	checkDirectShare(report, rollups, conf)

	report.Status = model.StatusFromAlerts(report.Alerts)
	log.WithField("status", report.Status).
		WithField("no_of_alerts", len(report.Alerts)).
		Info("Monitoring complete.")
	return report
}

func reportDate(history []model.DailyRevenue) string {
	if len(history) > 0 {
		return history[0].Date
	}
	return U.GetDateOnlyZ(U.TimeNowZ())
}

func addAlert(report *model.MonitorReport, check, severity, message string) {
	report.Alerts = append(report.Alerts, model.Alert{Severity: severity, Message: message})
	result := model.CheckResultWarn
	if severity == model.SeverityCritical {
		result = model.CheckResultCritical
	}
	report.Checks = append(report.Checks, model.CheckResult{
		Check: check, Result: result, Detail: message,
	})
}

func addPass(report *model.MonitorReport, check string) {
	report.Checks = append(report.Checks, model.CheckResult{
		Check: check, Result: model.CheckResultPass,
	})
}

func addSkipped(report *model.MonitorReport, check, reason string) {
	report.Checks = append(report.Checks, model.CheckResult{
		Check: check, Result: model.CheckResultSkipped, Detail: reason,
	})
}

func checkVolume(report *model.MonitorReport, stats *feed.Stats) {
	if stats.Rows == 0 {
		addAlert(report, CheckRowVolume, model.SeverityCritical, "No events ingested today")
	} else {
		addPass(report, CheckRowVolume)
	}
	if stats.Purchases == 0 {
		addAlert(report, CheckPurchaseVolume, model.SeverityCritical, "No purchases recorded today")
	} else {
		addPass(report, CheckPurchaseVolume)
	}
}

func checkIntegrity(report *model.MonitorReport, stats *feed.Stats, conf *C.Configuration) {
	if rate := stats.NullIdentityRate(); rate > conf.MaxNullIdentityRate {
		addAlert(report, CheckNullIdentity, model.SeverityWarn,
			fmt.Sprintf("High null client_id rate: %.2f%%", rate*100))
	} else {
		addPass(report, CheckNullIdentity)
	}

	if rate := stats.DuplicateRate(); rate > conf.MaxDuplicateRate {
		addAlert(report, CheckDuplicateRate, model.SeverityWarn,
			fmt.Sprintf("Duplicate rate high: %.2f%%", rate*100))
	} else {
		addPass(report, CheckDuplicateRate)
	}

	if rate := stats.PayloadFailureRate(); rate > conf.MaxPayloadFailureRate {
		addAlert(report, CheckPayloadParse, model.SeverityWarn,
			fmt.Sprintf("JSON parse error rate high: %.2f%%", rate*100))
	} else {
		addPass(report, CheckPayloadParse)
	}
}

// checkRevenueDrop compares the latest day against the mean of the prior
// baseline window. With fewer than baseline+1 days of history the check is
// skipped and says so: insufficient baseline is not a pass.
func checkRevenueDrop(report *model.MonitorReport, history []model.DailyRevenue,
	conf *C.Configuration) {

	if len(history) < conf.BaselineDays+1 {
		addSkipped(report, CheckRevenueDrop,
			fmt.Sprintf("skipped: insufficient baseline (%d of %d days)",
				len(history), conf.BaselineDays+1))
		return
	}

	latest := history[0].Revenue
	var baseline float64
	for _, day := range history[1 : conf.BaselineDays+1] {
		baseline += day.Revenue
	}
	baseline /= float64(conf.BaselineDays)

	if baseline > 0 && (baseline-latest)/baseline > conf.MaxRevenueDrop {
		addAlert(report, CheckRevenueDrop, model.SeverityCritical,
			fmt.Sprintf("Revenue drop detected: %.0f vs baseline %.0f", latest, baseline))
		return
	}
	addPass(report, CheckRevenueDrop)
}

// checkDirectShare warns when too much revenue hides under the direct label.
// Skipped on zero total revenue to avoid a divide by zero.
func checkDirectShare(report *model.MonitorReport, rollups *rollup.Result,
	conf *C.Configuration) {

	var total, direct float64
	for _, row := range rollups.ChannelsLastTouch {
		total += row.Revenue
		if row.Channel == model.ChannelDirect {
			direct += row.Revenue
		}
	}
	if total == 0 {
		addSkipped(report, CheckDirectShare, "skipped: zero total revenue")
		return
	}

	if share := direct / total; share > conf.MaxDirectShare {
		addAlert(report, CheckDirectShare, model.SeverityWarn,
			fmt.Sprintf("Direct traffic unusually high: %.2f%%", share*100))
		return
	}
	addPass(report, CheckDirectShare)
}
