package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type loadOptions struct {
	envLookup  func(string) (string, bool)
	readFile   func(string) ([]byte, error)
	homeDir    func() (string, error)
	configPath string
	overrides  []func(*Config)
}

// Option customizes how Load resolves its inputs; tests swap the
// environment and filesystem through these.
type Option func(*loadOptions)

// WithEnv replaces the environment lookup.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(o *loadOptions) { o.envLookup = lookup }
}

// WithFileReader replaces the config-file reader.
func WithFileReader(read func(string) ([]byte, error)) Option {
	return func(o *loadOptions) { o.readFile = read }
}

// WithHomeDir replaces home-directory resolution.
func WithHomeDir(home func() (string, error)) Option {
	return func(o *loadOptions) { o.homeDir = home }
}

// WithConfigPath reads the config file from an explicit path instead of the
// data dir default.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) { o.configPath = path }
}

// WithOverride applies a caller override after file and env.
func WithOverride(fn func(*Config)) Option {
	return func(o *loadOptions) { o.overrides = append(o.overrides, fn) }
}

// Load resolves the effective configuration: defaults, then the yaml file,
// then TOCK_* environment variables, then caller overrides.
func Load(opts ...Option) (Config, error) {
	options := loadOptions{
		envLookup: os.LookupEnv,
		readFile:  os.ReadFile,
		homeDir:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(&options)
	}

	cfg := Config{
		DataDir:               DefaultDataDir,
		MicroThresholdSeconds: DefaultMicroThresholdSeconds,
		LogLevel:              DefaultLogLevel,
	}

	if err := applyFile(&cfg, options); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, options); err != nil {
		return Config{}, err
	}
	for _, fn := range options.overrides {
		fn(&cfg)
	}

	normalize(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, options loadOptions) error {
	path := options.configPath
	if path == "" {
		dir := cfg.DataDir
		if strings.HasPrefix(dir, "~/") {
			home, err := options.homeDir()
			if err != nil {
				// No home dir means no default config file to read.
				return nil
			}
			dir = filepath.Join(home, dir[2:])
		}
		path = filepath.Join(dir, ConfigFileName)
	}

	data, err := options.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, options loadOptions) error {
	if v, ok := options.envLookup("TOCK_DATA_DIR"); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := options.envLookup("TOCK_MICRO_THRESHOLD_SECONDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TOCK_MICRO_THRESHOLD_SECONDS: %w", err)
		}
		cfg.MicroThresholdSeconds = n
	}
	if v, ok := options.envLookup("TOCK_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func normalize(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.MicroThresholdSeconds <= 0 {
		cfg.MicroThresholdSeconds = DefaultMicroThresholdSeconds
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
		cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	default:
		cfg.LogLevel = DefaultLogLevel
	}
}
