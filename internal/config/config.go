package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Timing TimingConfig
	Chat   ChatConfig
	UI     UIConfig
	Server ServerConfig
	Log    LogConfig
}

// TimingConfig holds the two scheduler delays.
type TimingConfig struct {
	TransitionDelay time.Duration `mapstructure:"transition_delay"`
	ReplyDelay      time.Duration `mapstructure:"reply_delay"`
}

// ChatConfig holds assistant settings.
type ChatConfig struct {
	ReplyText string `mapstructure:"reply_text"`
}

// UIConfig holds terminal presentation settings.
type UIConfig struct {
	AltScreen bool `mapstructure:"alt_screen"`
	WidthCap  int  `mapstructure:"width_cap"`
}

// ServerConfig holds the web surface settings.
type ServerConfig struct {
	Addr        string
	MaxSessions int `mapstructure:"max_sessions"`
}

// LogConfig holds logger settings. An empty File logs to stderr.
type LogConfig struct {
	Level string
	File  string
}

const (
	// EnvFile is the dotenv file Load reads from the working directory.
	EnvFile = ".env"
	// FileEnv names an explicit config file, bypassing the search path.
	FileEnv = "BIOENGINE_CONFIG"
)

// Load reads .env, then the config file, then env vars. Env var overrides
// use prefix BIOENGINE_, e.g. BIOENGINE_TIMING_REPLY_DELAY=2s.
func Load() (Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", EnvFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if cfgPath := os.Getenv(FileEnv); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BIOENGINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Default returns the built-in configuration without touching the
// environment or the filesystem.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// Defaults are static values of the right types.
	_ = v.Unmarshal(&c)
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timing.transition_delay", 50*time.Millisecond)
	v.SetDefault("timing.reply_delay", time.Second)
	v.SetDefault("chat.reply_text", "")
	v.SetDefault("ui.alt_screen", true)
	v.SetDefault("ui.width_cap", 100)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_sessions", 256)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", DefaultLogFile())
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "bioengine")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "bioengine")
}

// DefaultLogFile is where the terminal UI writes its log, since it owns
// stdout and stderr while running.
func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "bioengine", "bioengine.log")
}

// Validate rejects settings the runtime cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Timing.TransitionDelay <= 0 {
		errs = append(errs, fmt.Errorf("timing.transition_delay must be positive, got %s", c.Timing.TransitionDelay))
	}
	if c.Timing.ReplyDelay <= 0 {
		errs = append(errs, fmt.Errorf("timing.reply_delay must be positive, got %s", c.Timing.ReplyDelay))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("server.max_sessions must be positive, got %d", c.Server.MaxSessions))
	}
	if c.UI.WidthCap < 0 {
		errs = append(errs, fmt.Errorf("ui.width_cap must not be negative, got %d", c.UI.WidthCap))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	return errors.Join(errs...)
}
