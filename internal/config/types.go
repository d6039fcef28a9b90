// Package config loads user-configurable settings, layering defaults, the
// yaml config file, TOCK_* environment variables and caller overrides, in
// that precedence order.
package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultDataDir               = "~/.tock"
	DefaultMicroThresholdSeconds = 30
	DefaultLogLevel              = "info"

	// ConfigFileName is the file looked for under the data dir.
	ConfigFileName = "config.yaml"

	dbFileName  = "tock.db"
	logFileName = "tock.log"
)

// Config captures user-configurable settings shared across commands.
type Config struct {
	// DataDir holds the database, log and config files. A leading ~/ is
	// resolved against the user's home directory at open time.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MicroThresholdSeconds is the boundary below which a work session is
	// treated as noise by the merge/purge policy.
	MicroThresholdSeconds int `json:"micro_threshold_seconds" yaml:"micro_threshold_seconds"`

	LogLevel string `json:"log_level" yaml:"log_level"`

	// Classification remaps the derived status table, keyed by coordinate
	// name (completed, cancelled, active, external, proposed, planned,
	// in_progress, suspended).
	Classification map[string]string `json:"classification" yaml:"classification"`
}

// DBPath returns the database location under the data dir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFileName)
}

// LogPath returns the debug log location under the data dir.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, logFileName)
}

// MicroThreshold returns the micro-session boundary as a duration.
func (c Config) MicroThreshold() time.Duration {
	return time.Duration(c.MicroThresholdSeconds) * time.Second
}
