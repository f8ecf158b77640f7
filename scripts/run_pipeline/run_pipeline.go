package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	C "clickpulse/config"
	"clickpulse/task/pipeline"
)

// ./run_pipeline --env=development --feed_path=data/canonical_events.jsonl --artifacts_dir=artifacts
func main() {
	env := flag.String("env", "development", "")
	feedPath := flag.String("feed_path", "", "Canonical event feed (JSONL).")
	artifactsDir := flag.String("artifacts_dir", "", "Output directory for run artifacts.")
	historyDBPath := flag.String("history_db_path", "", "Daily revenue history db.")
	numRoutines := flag.Int("num_routines", 0, "Number of routines to use.")

	sessionGapSeconds := flag.Int("session_gap_seconds", 0, "Session inactivity gap.")
	lookbackDays := flag.Int("lookback_days", 0, "Attribution lookback window in days.")
	baselineDays := flag.Int("baseline_days", 0, "Monitor baseline window in days.")
	flag.Parse()

	if !C.IsValidEnv(*env) {
		panic(fmt.Errorf("env [ %s ] not recognised", *env))
	}

	conf, err := C.NewConfiguration("run_pipeline")
	if err != nil {
		log.WithError(err).Fatal("Failed to build configuration.")
	}
	conf.Env = *env
	if *feedPath != "" {
		conf.FeedPath = *feedPath
	}
	if *artifactsDir != "" {
		conf.ArtifactsDir = *artifactsDir
	}
	if *historyDBPath != "" {
		conf.HistoryDBPath = *historyDBPath
	}
	if *numRoutines > 0 {
		conf.NumRoutines = *numRoutines
	}
	if *sessionGapSeconds > 0 {
		conf.SessionGapSeconds = *sessionGapSeconds
	}
	if *lookbackDays > 0 {
		conf.LookbackDays = *lookbackDays
	}
	if *baselineDays > 0 {
		conf.BaselineDays = *baselineDays
	}
	C.InitConf(conf)

	summary, err := pipeline.Run(conf)
	if err != nil {
		log.WithError(err).Error("Pipeline run failed.")
		os.Exit(1)
	}
	log.WithField("run_id", summary.RunID).
		WithField("monitor_status", summary.MonitorStatus).
		WithField("artifacts_dir", summary.ArtifactsDir).
		Info("Pipeline run succeeded.")
}
