package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         int           `yaml:"port"         envconfig:"PORT"`
	DatabaseURL  string        `yaml:"databaseUrl"  envconfig:"DATABASE_URL"`
	DatabaseType string        `yaml:"databaseType" envconfig:"DATABASE_TYPE"`
	TokenSecret  string        `yaml:"tokenSecret"  envconfig:"TOKEN_SECRET"`
	TokenTTL     time.Duration `yaml:"tokenTtl"     envconfig:"TOKEN_TTL"`
	LockScope    string        `yaml:"lockScope"    envconfig:"LOCK_SCOPE"`
	EventBuffer  int           `yaml:"eventBuffer"  envconfig:"EVENT_BUFFER"`
	Debug        bool          `yaml:"debug"        envconfig:"DEBUG"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Port:         3318,
		DatabaseType: "sqlite",
		TokenTTL:     12 * time.Hour,
		LockScope:    "meeting",
		EventBuffer:  64,
	}
}

// Load builds a config from the defaults, an optional YAML file, a .env file
// in the working directory and the process environment, in that order.
func Load(configFile string) (Config, error) {
	cfg := Defaults()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error reading .env: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment: %w", err)
	}

	return cfg, nil
}

// ParseFlags loads the config and applies command-line flags on top.
// Only flags that were actually given override earlier sources.
func ParseFlags(args []string) (Config, error) {
	var (
		flags      Config
		configFile string
	)

	fs := flag.NewFlagSet("quorumvote", flag.ContinueOnError)
	fs.StringVar(&configFile, "c", "", "Config file (YAML)")

	// Network config (can be CLI args or env)
	fs.IntVar(&flags.Port, "p", 0, "Server port")
	fs.StringVar(&flags.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&flags.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&flags.TokenSecret, "token-secret", "", "Token signing secret (prefer env)")

	fs.StringVar(&flags.LockScope, "lock-scope", "", "Write lock scope (meeting or global)")
	fs.IntVar(&flags.EventBuffer, "event-buffer", 0, "Per-subscriber event buffer")
	fs.BoolVar(&flags.Debug, "debug", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := Load(configFile)
	if err != nil {
		return Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = flags.Port
		case "d":
			cfg.DatabaseURL = flags.DatabaseURL
		case "t":
			cfg.DatabaseType = flags.DatabaseType
		case "token-secret":
			cfg.TokenSecret = flags.TokenSecret
		case "lock-scope":
			cfg.LockScope = flags.LockScope
		case "event-buffer":
			cfg.EventBuffer = flags.EventBuffer
		case "debug":
			cfg.Debug = flags.Debug
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required and enumerated settings
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	switch c.DatabaseType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q (sqlite or postgres)", c.DatabaseType)
	}
	// Secrets - MUST be provided
	if c.TokenSecret == "" {
		return errors.New("TOKEN_SECRET required")
	}
	switch c.LockScope {
	case "meeting", "global":
	default:
		return fmt.Errorf("unsupported lock scope %q (meeting or global)", c.LockScope)
	}
	if c.EventBuffer < 1 {
		return errors.New("event buffer must be at least 1")
	}
	return nil
}
