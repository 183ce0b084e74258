package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	Port         string
	BaseUrl      string
	WorkerCount  int
	APIAccessKey string

	// LLM provider
	AIAPIKey      string
	AIBaseUrl     string
	AIModel       string
	AITemperature float64

	// Digest scheduling
	DailyDoseHour   int
	WeeklyDigestDay string

	// Outbound messaging
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// HTTP fetch behavior
	UserAgent      string
	RequestTimeout int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// AIConfigured reports whether the LLM provider can be used. Enrichment
// degrades to defaults when it is not.
func (c *Cfg) AIConfigured() bool {
	return c.AIAPIKey != ""
}

// MessengerConfigured reports whether outbound messages can be delivered.
func (c *Cfg) MessengerConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}
