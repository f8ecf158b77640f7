package config

import (
	"sync"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	U "clickpulse/util"
)

const (
	DEVELOPMENT = "development"
	STAGING     = "staging"
	PRODUCTION  = "production"
)

// Defaults for the engine and monitor knobs. All overridable via env
// (CLICKPULSE_ prefix) or job flags.
const (
	DefaultSessionGapSeconds     = 1800
	DefaultLookbackDays          = 7
	DefaultBaselineDays          = 7
	DefaultMaxNullIdentityRate   = 0.20
	DefaultMaxDuplicateRate      = 0.001
	DefaultMaxPayloadFailureRate = 0.01
	DefaultMaxRevenueDrop        = 0.40
	DefaultMaxDirectShare        = 0.80
)

// Configuration is read-only for the duration of a run.
type Configuration struct {
	AppName string `ignored:"true"`
	Env     string `envconfig:"ENV" default:"development"`
	Port    int    `envconfig:"PORT" default:"8100"`

	FeedPath      string `envconfig:"FEED_PATH" default:"data/canonical_events.jsonl"`
	ArtifactsDir  string `envconfig:"ARTIFACTS_DIR" default:"artifacts"`
	HistoryDBPath string `envconfig:"HISTORY_DB_PATH" default:"artifacts/history.db"`

	SessionGapSeconds int `envconfig:"SESSION_GAP_SECONDS" default:"1800"`
	LookbackDays      int `envconfig:"LOOKBACK_DAYS" default:"7"`
	BaselineDays      int `envconfig:"BASELINE_DAYS" default:"7"`

	MaxNullIdentityRate   float64 `envconfig:"MAX_NULL_IDENTITY_RATE" default:"0.20"`
	MaxDuplicateRate      float64 `envconfig:"MAX_DUPLICATE_RATE" default:"0.001"`
	MaxPayloadFailureRate float64 `envconfig:"MAX_PAYLOAD_FAILURE_RATE" default:"0.01"`
	MaxRevenueDrop        float64 `envconfig:"MAX_REVENUE_DROP" default:"0.40"`
	MaxDirectShare        float64 `envconfig:"MAX_DIRECT_SHARE" default:"0.80"`

	NumRoutines int `envconfig:"NUM_ROUTINES" default:"4"`
}

var configuration *Configuration
var confLock sync.RWMutex

// NewConfiguration returns a Configuration with env overrides applied on top
// of defaults.
func NewConfiguration(appName string) (*Configuration, error) {
	conf := &Configuration{}
	if err := envconfig.Process("clickpulse", conf); err != nil {
		return nil, err
	}
	conf.AppName = appName
	return conf, nil
}

// InitConf installs the run configuration and logging.
func InitConf(conf *Configuration) {
	confLock.Lock()
	defer confLock.Unlock()
	configuration = conf
	initLogging(conf)
}

func GetConfig() *Configuration {
	confLock.RLock()
	defer confLock.RUnlock()
	return configuration
}

func IsDevelopment() bool {
	conf := GetConfig()
	return conf == nil || conf.Env == DEVELOPMENT
}

func initLogging(conf *Configuration) {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	if conf.Env == DEVELOPMENT {
		log.SetLevel(log.DebugLevel)
	}
}

func IsValidEnv(env string) bool {
	return U.ContainsStringInArray([]string{DEVELOPMENT, STAGING, PRODUCTION}, env)
}
