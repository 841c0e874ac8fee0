package settings

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read into Arguments.
const EnvPrefix = "FIELDMAPPER"

type Arguments struct {
	ConfigFile string `mapstructure:"config"`

	// How many levels of embedded documents are compiled
	MaxLevel int `mapstructure:"max-level"`

	// How many nesting levels the query abilities walk, 0 means no limit
	MaxDepth int `mapstructure:"max-depth"`

	// Render extended JSON in canonical mode
	Canonical bool `mapstructure:"canonical"`

	// Also validate documents through the exported JSON Schema
	JSONSchema bool `mapstructure:"json-schema"`

	// Locale used for human readable numbers in summaries
	Locale string `mapstructure:"locale"`

	// Strongly verbose logging
	Debug bool `mapstructure:"debug"`

	// Listen address of the serve command
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Connections without a command for this long are closed
	IdleTimeout time.Duration `mapstructure:"idle-timeout"`

	// Files named by serve clients must lie below this directory
	DataDir string `mapstructure:"data-dir"`
}

var (
	instance *Arguments
	once     sync.Once
	mu       sync.RWMutex
)

// Defaults returns the built-in settings.
func Defaults() *Arguments {
	return &Arguments{
		MaxLevel:    3,
		MaxDepth:    0,
		Locale:      "en-US",
		Host:        "127.0.0.1",
		Port:        7710,
		IdleTimeout: 5 * time.Minute,
	}
}

// GetSettings returns the process-wide settings, defaults until Load runs.
func GetSettings() *Arguments {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if instance == nil {
			instance = Defaults()
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Load reads settings from defaults, an optional config file, FIELDMAPPER_*
// environment variables and the given flags (highest precedence), and
// installs them as the process-wide settings.
func Load(flags *pflag.FlagSet) (*Arguments, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("max-level", defaults.MaxLevel)
	v.SetDefault("max-depth", defaults.MaxDepth)
	v.SetDefault("canonical", defaults.Canonical)
	v.SetDefault("json-schema", defaults.JSONSchema)
	v.SetDefault("locale", defaults.Locale)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("idle-timeout", defaults.IdleTimeout)
	v.SetDefault("data-dir", defaults.DataDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	args := &Arguments{}
	if err := v.Unmarshal(args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}

	SetSettings(args)
	return args, nil
}

// SetSettings replaces the process-wide settings.
func SetSettings(args *Arguments) {
	GetSettings()
	mu.Lock()
	defer mu.Unlock()
	instance = args
}

// Validate checks the argument ranges.
func (a *Arguments) Validate() error {
	if a.MaxLevel < 1 {
		return fmt.Errorf("invalid max level: %d (must be at least 1)", a.MaxLevel)
	}
	if a.MaxDepth < 0 {
		return fmt.Errorf("invalid max depth: %d (must not be negative)", a.MaxDepth)
	}
	if a.Port < 0 || a.Port > 65535 {
		return fmt.Errorf("invalid port: %d", a.Port)
	}
	return nil
}
