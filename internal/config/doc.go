// Package config loads runtime configuration for the kurozora CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are read as YAML, everything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   path to the SQLite settings database
//	-s bool     keep each account's settings in its own store (use -s=false to disable)
//	-l string   log level: debug, info, warn, error
//	-f string   log format: text, json, zap
//
// # File schema
//
//	db_path: kurozora.db
//	dedicated_stores: true
//	log_level: info
//	log_format: text
//
// Keys missing from the file keep their previous value.
package config
