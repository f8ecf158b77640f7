package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	C "clickpulse/config"
	"clickpulse/feed"
	"clickpulse/model"
	"clickpulse/store/history"
	"clickpulse/task/attribution"
	"clickpulse/task/dedup"
	"clickpulse/task/monitor"
	"clickpulse/task/rollup"
	"clickpulse/task/session"
)

// RunSummary is the run's own record: what was processed, whether the
// revenue totals reconcile, and where the artifacts went.
type RunSummary struct {
	RunID               string               `json:"run_id"`
	Rows                int                  `json:"rows"`
	DuplicatesRemoved   int                  `json:"duplicates_removed"`
	Sessions            int                  `json:"sessions"`
	AttributedPurchases int                  `json:"attributed_purchases"`
	Reconciliation      model.Reconciliation `json:"reconciliation"`
	MonitorStatus       string               `json:"monitor_status"`
	ArtifactsDir        string               `json:"artifacts_dir"`
}

// Run executes the full batch: feed load, dedup, sessionization and
// attribution in parallel, rollups, history upsert, monitoring, artifact
// write. Every run writes the monitor report, reconciliation failures
// included; a reconciliation failure is returned as an error after the
// artifacts are on disk.
func Run(conf *C.Configuration) (*RunSummary, error) {
	runID := uuid.New().String()
	logCtx := log.WithField("run_id", runID).WithField("feed_path", conf.FeedPath)
	logCtx.Info("Starting pipeline run.")

	events, stats, err := feed.LoadEvents(conf.FeedPath)
	if err != nil {
		return nil, err
	}

	deduped, dedupStatus := dedup.RemoveDuplicates(events)
	stats.DuplicatesRemoved = dedupStatus.NoOfRemoved

	// Sessionization and attribution both consume the deduplicated feed and
	// share no state; rollup is the barrier that joins them.
	var sessions []*model.Session
	var attributed []*model.AttributedPurchase
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessions, _ = session.BuildSessions(deduped, conf.SessionGapSeconds, conf.NumRoutines)
	}()
	go func() {
		defer wg.Done()
		attributed, _ = attribution.AttributePurchases(deduped, conf.LookbackDays, conf.NumRoutines)
	}()
	wg.Wait()

	rollups, reconcileErr := rollup.BuildRollups(deduped, sessions, attributed)

	historyDays, err := updateHistory(conf, rollups.Daily)
	if err != nil {
		return nil, err
	}

	report := monitor.Evaluate(stats, rollups, historyDays, conf)

	summary := &RunSummary{
		RunID:               runID,
		Rows:                stats.Rows,
		DuplicatesRemoved:   stats.DuplicatesRemoved,
		Sessions:            len(sessions),
		AttributedPurchases: len(attributed),
		Reconciliation:      rollups.Reconciliation,
		MonitorStatus:       report.Status,
		ArtifactsDir:        conf.ArtifactsDir,
	}

	if err := writeArtifacts(conf.ArtifactsDir, deduped, sessions, attributed, rollups, report, summary); err != nil {
		return summary, err
	}

	if reconcileErr != nil {
		logCtx.WithError(reconcileErr).Error("Run finished with reconciliation failure.")
		return summary, reconcileErr
	}
	logCtx.WithField("status", report.Status).Info("Pipeline run finished.")
	return summary, nil
}

// updateHistory folds this run's daily revenue into the persistent series
// and returns the trailing window the monitor needs, most recent first.
func updateHistory(conf *C.Configuration, daily []model.DailyRevenue) ([]model.DailyRevenue, error) {
	store, err := history.Open(conf.HistoryDBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := store.Upsert(daily); err != nil {
		return nil, err
	}
	return store.LastN(conf.BaselineDays + 1)
}

// Artifact file names, stable for the BI collaborators reading them.
const (
	ArtifactEvents         = "events_deduped.jsonl"
	ArtifactSessions       = "sessions.json"
	ArtifactAttribution    = "purchase_attribution.json"
	ArtifactChannelsLast   = "channel_revenue_last_click.json"
	ArtifactChannelsFirst  = "channel_revenue_first_click.json"
	ArtifactConversion     = "conversion_rate_by_channel.json"
	ArtifactDevices        = "revenue_by_device.json"
	ArtifactBrowsers       = "revenue_by_browser.json"
	ArtifactAssistedDirect = "assisted_vs_direct.json"
	ArtifactTopProducts    = "top_products.json"
	ArtifactDailyRevenue   = "daily_revenue.json"
	ArtifactMonitorReport  = "monitoring_report.json"
	ArtifactRunSummary     = "run_summary.json"
)

func writeArtifacts(dir string, events []*model.CanonicalEvent,
	sessions []*model.Session, attributed []*model.AttributedPurchase,
	rollups *rollup.Result, report *model.MonitorReport, summary *RunSummary) error {

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create artifacts dir")
	}

	if err := writeJSONLines(filepath.Join(dir, ArtifactEvents), events); err != nil {
		return err
	}

	artifacts := map[string]interface{}{
		ArtifactSessions:       sessions,
		ArtifactAttribution:    attributed,
		ArtifactChannelsLast:   rollups.ChannelsLastTouch,
		ArtifactChannelsFirst:  rollups.ChannelsFirstTouch,
		ArtifactConversion:     rollups.Conversion,
		ArtifactDevices:        rollups.Devices,
		ArtifactBrowsers:       rollups.Browsers,
		ArtifactAssistedDirect: rollups.ConversionTypes,
		ArtifactTopProducts:    rollups.TopProducts,
		ArtifactDailyRevenue:   rollups.Daily,
		ArtifactMonitorReport:  report,
		ArtifactRunSummary:     summary,
	}
	for name, value := range artifacts {
		if err := writeJSON(filepath.Join(dir, name), value); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, value interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create artifact %s", path)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return errors.Wrapf(err, "failed to write artifact %s", path)
	}
	return errors.Wrapf(file.Sync(), "failed to flush artifact %s", path)
}

func writeJSONLines(path string, events []*model.CanonicalEvent) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create artifact %s", path)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, event := range events {
		if err := encoder.Encode(event); err != nil {
			return errors.Wrapf(err, "failed to write artifact %s", path)
		}
	}
	return errors.Wrapf(file.Sync(), "failed to flush artifact %s", path)
}
