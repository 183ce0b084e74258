package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./stashbot.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for dashboard links (e.g., https://stash.example.com)"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for scheduled tasks"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// LLM provider (OpenAI-compatible chat completions, e.g. Groq)
	AIAPIKey      string  `long:"ai-api-key" env:"AI_API_KEY" description:"LLM provider API key (enrichment disabled when empty)"`
	AIBaseUrl     string  `long:"ai-base-url" env:"AI_BASE_URL" default:"https://api.groq.com/openai/v1" description:"LLM provider base URL"`
	AIModel       string  `long:"ai-model" env:"AI_MODEL" default:"llama-3.3-70b-versatile" description:"LLM model identifier"`
	AITemperature float64 `long:"ai-temperature" env:"AI_TEMPERATURE" default:"0.2" description:"Sampling temperature for LLM calls"`

	// Digest scheduling
	DailyDoseHour   int    `long:"daily-dose-hour" env:"DAILY_DOSE_HOUR" default:"8" description:"Local hour of day (0-23) for the daily dose message"`
	WeeklyDigestDay string `long:"weekly-digest-day" env:"WEEKLY_DIGEST_DAY" default:"Sunday" description:"Weekday for the weekly digest message"`

	// Outbound messaging (optional; digests are logged when unconfigured)
	TwilioAccountSID string `long:"twilio-account-sid" env:"TWILIO_ACCOUNT_SID" description:"Twilio account SID"`
	TwilioAuthToken  string `long:"twilio-auth-token" env:"TWILIO_AUTH_TOKEN" description:"Twilio auth token"`
	TwilioFromNumber string `long:"twilio-from-number" env:"TWILIO_FROM_NUMBER" description:"Twilio WhatsApp sender number"`

	// HTTP fetch behavior
	UserAgent      string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36" description:"User agent string for metadata fetches"`
	RequestTimeout int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Metadata fetch timeout in seconds"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:           raw.DBPath,
		Port:             raw.Port,
		BaseUrl:          raw.BaseUrl,
		WorkerCount:      raw.WorkerCount,
		APIAccessKey:     raw.APIAccessKey,
		AIAPIKey:         raw.AIAPIKey,
		AIBaseUrl:        raw.AIBaseUrl,
		AIModel:          raw.AIModel,
		AITemperature:    raw.AITemperature,
		DailyDoseHour:    raw.DailyDoseHour,
		WeeklyDigestDay:  raw.WeeklyDigestDay,
		TwilioAccountSID: raw.TwilioAccountSID,
		TwilioAuthToken:  raw.TwilioAuthToken,
		TwilioFromNumber: raw.TwilioFromNumber,
		UserAgent:        raw.UserAgent,
		RequestTimeout:   raw.RequestTimeout,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the process-wide configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
