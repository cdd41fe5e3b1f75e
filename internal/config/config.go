package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goodtune/nighttime/internal/timewindow"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	appDir          = "nighttime"
	configFile      = "config.yaml"
	debugConfigFile = "config.debug.yaml"
)

// Config holds the complete application configuration
type Config struct {
	Title         string        `mapstructure:"title"`
	Night         NightConfig   `mapstructure:"night"`
	PollInterval  string        `mapstructure:"poll_interval"`
	RestoreOnExit bool          `mapstructure:"restore_on_exit"`
	Display       DisplayConfig `mapstructure:"display"`
	Storage       StorageConfig `mapstructure:"storage"`
	Logging       LoggingConfig `mapstructure:"logging"`
	Control       ControlConfig `mapstructure:"control"`

	// Set by the loader, not read from the file.
	Path  string `mapstructure:"-"`
	Debug bool   `mapstructure:"-"`
}

// NightConfig is the daily window during which night mode is forced on
type NightConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// DisplayConfig selects and configures the display-mode driver
type DisplayConfig struct {
	Driver         string `mapstructure:"driver"` // auto, coregraphics, command, memory
	StatusCommand  string `mapstructure:"status_command"`
	EnableCommand  string `mapstructure:"enable_command"`
	DisableCommand string `mapstructure:"disable_command"`
	CommandTimeout string `mapstructure:"command_timeout"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type                 string      `mapstructure:"type"` // bolt, sqlite, redis, none
	Path                 string      `mapstructure:"path"`
	HistoryRetentionDays int         `mapstructure:"history_retention_days"`
	Redis                RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	KeyPrefix    string `mapstructure:"key_prefix"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ControlConfig defines the local control API listener
type ControlConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BindAddress string `mapstructure:"bind_address"`
	Port        int    `mapstructure:"port"`
}

// Addr returns the host:port the control API listens on.
func (c ControlConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}

// Window returns the configured night window.
func (c *Config) Window() (timewindow.Window, error) {
	return timewindow.FromStrings(c.Night.Start, c.Night.End)
}

// PollDuration returns the parsed poll interval.
func (c *Config) PollDuration() (time.Duration, error) {
	return time.ParseDuration(c.PollInterval)
}

// CommandTimeout returns the parsed display command timeout.
func (c *Config) CommandTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Display.CommandTimeout)
}

// HistoryRetention returns how long journalled transitions are kept.
// Zero means forever.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.Storage.HistoryRetentionDays) * 24 * time.Hour
}

// Dir returns the per-user directory nighttime keeps its files in.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return "." + appDir
	}
	return filepath.Join(base, appDir)
}

// DefaultPath returns the config file path. Debug builds of the tray app
// kept a separate file so they never clobbered the real settings.
func DefaultPath(debug bool) string {
	if debug {
		return filepath.Join(Dir(), debugConfigFile)
	}
	return filepath.Join(Dir(), configFile)
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NIGHTTIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Path = configPath

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment
// overrides anything.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)

	return &cfg
}

// UnknownKeys returns the keys in the file at path that nighttime does not
// read. They are ignored by Load and usually indicate typos.
func UnknownKeys(path string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	known := viper.New()
	setDefaults(known)
	validKeys := make(map[string]bool)
	for _, key := range known.AllKeys() {
		validKeys[key] = true
	}

	unknown := []string{}
	for _, key := range v.AllKeys() {
		if !validKeys[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	return unknown, nil
}

// WriteDefault writes the default configuration to path unless a file is
// already there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if err := v.SafeWriteConfigAs(path); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	return true, nil
}

// Watch logs whenever the config file at path changes. The window and poll
// interval are fixed for the life of the process, so edits only take effect
// after a restart; onChange, when set, is called after the log line.
func Watch(path string, logger zerolog.Logger, onChange func()) {
	log := logger.With().Str("component", "config").Logger()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Warn().
			Str("file", e.Name).
			Str("op", e.Op.String()).
			Msg("Configuration changed, restart nighttime to apply it")
		if onChange != nil {
			onChange()
		}
	})
	v.WatchConfig()
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "🌚")
	v.SetDefault("night.start", "00:30")
	v.SetDefault("night.end", "10:00")
	v.SetDefault("poll_interval", "60s")
	v.SetDefault("restore_on_exit", true)

	// Display defaults
	v.SetDefault("display.driver", "auto")
	v.SetDefault("display.status_command", "")
	v.SetDefault("display.enable_command", "")
	v.SetDefault("display.disable_command", "")
	v.SetDefault("display.command_timeout", "5s")

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", filepath.Join(Dir(), "state.bolt"))
	v.SetDefault("storage.history_retention_days", 30)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key_prefix", "nighttime")
	v.SetDefault("storage.redis.pool_size", 4)
	v.SetDefault("storage.redis.min_idle_conns", 0)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Control API defaults
	v.SetDefault("control.enabled", true)
	v.SetDefault("control.bind_address", "127.0.0.1")
	v.SetDefault("control.port", 9797)
}

// validate validates the configuration
func validate(cfg *Config) error {
	if _, err := cfg.Window(); err != nil {
		return fmt.Errorf("night: %w", err)
	}

	poll, err := cfg.PollDuration()
	if err != nil {
		return fmt.Errorf("invalid poll_interval %q: %w", cfg.PollInterval, err)
	}
	if poll <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", poll)
	}

	switch cfg.Display.Driver {
	case "auto", "coregraphics", "command", "memory":
	default:
		return fmt.Errorf("unknown display driver %q", cfg.Display.Driver)
	}
	timeout, err := cfg.CommandTimeout()
	if err != nil {
		return fmt.Errorf("invalid display.command_timeout %q: %w", cfg.Display.CommandTimeout, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("display.command_timeout must be positive, got %s", timeout)
	}
	if cfg.Display.Driver == "command" && (cfg.Display.EnableCommand == "" || cfg.Display.DisableCommand == "") {
		return fmt.Errorf("command display driver needs enable_command and disable_command")
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "bolt"
	}
	switch cfg.Storage.Type {
	case "bolt", "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("storage.redis.host is required")
		}
	case "none":
	default:
		return fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
	if cfg.Storage.HistoryRetentionDays < 0 {
		return fmt.Errorf("invalid history_retention_days: %d", cfg.Storage.HistoryRetentionDays)
	}

	if cfg.Control.Enabled && (cfg.Control.Port <= 0 || cfg.Control.Port > 65535) {
		return fmt.Errorf("invalid control port: %d", cfg.Control.Port)
	}

	return nil
}
