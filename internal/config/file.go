package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/kurozora/internal/flagx"
)

// FileConfig is the on-disk form of Config. Pointer fields distinguish
// "absent" from zero values.
type FileConfig struct {
	DBPath          *string `json:"db_path" yaml:"db_path"`
	DedicatedStores *bool   `json:"dedicated_stores" yaml:"dedicated_stores"`
	LogLevel        *string `json:"log_level" yaml:"log_level"`
	LogFormat       *string `json:"log_format" yaml:"log_format"`
}

// parseFile overlays cfg with the file named by -c/-config, if any.
// It panics on read or decode errors.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc FileConfig) apply(cfg *Config) {
	if fc.DBPath != nil {
		cfg.DBPath = *fc.DBPath
	}
	if fc.DedicatedStores != nil {
		cfg.DedicatedStores = *fc.DedicatedStores
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
}
