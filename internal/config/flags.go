package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/kurozora/internal/flagx"
)

// parseFlags overlays cfg with command-line flags. Only -d, -s, -l and -f are
// looked at; anything else in os.Args is left to other parsers.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path to the settings database")
	fs.BoolVar(&cfg.DedicatedStores, "s", cfg.DedicatedStores, "keep each account's settings in its own store")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (text, json, zap)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
