package config

const (
	DefaultSource        = "content"
	DefaultOutput        = "public"
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 1316
	DefaultHistoryPath   = ".sitebuilder/history.db"
	DefaultHistoryMax    = 100
	DefaultSubject       = "sitebuilder.builds"
	DefaultSummaryLength = 200
	DefaultRoute         = "identity"
)

// ApplyDefaults fills unset fields. It is idempotent.
func (c *Config) ApplyDefaults() {
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	for i := range c.Rules {
		if c.Rules[i].Route == "" {
			c.Rules[i].Route = DefaultRoute
		}
	}
	for i := range c.Copies {
		if c.Copies[i].Route == "" {
			c.Copies[i].Route = DefaultRoute
		}
	}
	for i := range c.Mines {
		if c.Mines[i].SummaryLength <= 0 {
			c.Mines[i].SummaryLength = DefaultSummaryLength
		}
		if len(c.Mines[i].Extractors) == 0 {
			c.Mines[i].Extractors = []string{ExtractorMetadata}
		}
	}

	if c.Serve.Host == "" {
		c.Serve.Host = DefaultHost
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = DefaultHistoryMax
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultSubject
	}
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}
