package config

// Config holds runtime settings for the kurozora CLI.
type Config struct {
	DBPath          string
	DedicatedStores bool
	LogLevel        string
	LogFormat       string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "kurozora.db"
	c.DedicatedStores = true
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config from defaults, then the config file, then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
