// Package config provides configuration management for the option chain
// application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"angel-options/internal/master"
	"angel-options/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Pricing     PricingConfig `mapstructure:"pricing"`
	Chain       ChainConfig   `mapstructure:"chain"`
	Polling     PollingConfig `mapstructure:"polling"`
	Cache       CacheConfig   `mapstructure:"cache"`
	UI          UIConfig      `mapstructure:"ui"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately
}

// PricingConfig holds model parameters for theoretical valuation.
type PricingConfig struct {
	RiskFreeRate    float64 `mapstructure:"risk_free_rate"`
	ModelVolatility float64 `mapstructure:"model_volatility"`
	IVIterations    int     `mapstructure:"iv_iterations"`
}

// ChainConfig holds chain window selection configuration.
type ChainConfig struct {
	DefaultUnderlying string `mapstructure:"default_underlying"`
	// Underlyings is the watchlist kept in the instrument cache. Empty means
	// the supported indices.
	Underlyings            []string `mapstructure:"underlyings"`
	StrikeRadius           int      `mapstructure:"strike_radius"`
	DiscountAlertThreshold float64  `mapstructure:"discount_alert_threshold"`
}

// PollingConfig holds refresh scheduling and quote batching configuration.
type PollingConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	ChunkDelay     time.Duration `mapstructure:"chunk_delay"`
	ParallelQuotes bool          `mapstructure:"parallel_quotes"`
}

// CacheConfig holds instrument cache configuration.
type CacheConfig struct {
	// Path overrides the default scrip master cache location.
	Path string `mapstructure:"path"`
	// MaxAge is how long a cached scrip master stays usable.
	MaxAge time.Duration `mapstructure:"max_age"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// Credentials holds API credentials.
type Credentials struct {
	Angel AngelCredentials `mapstructure:"angel"`
}

// AngelCredentials holds SmartAPI session material. The JWT is produced by an
// external login flow and handed to this application ready to use.
type AngelCredentials struct {
	APIKey         string `mapstructure:"api_key"`
	AuthToken      string `mapstructure:"auth_token"`
	ClientLocalIP  string `mapstructure:"client_local_ip"`
	ClientPublicIP string `mapstructure:"client_public_ip"`
	MACAddress     string `mapstructure:"mac_address"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/angel-options"
	}
	return filepath.Join(home, ".config", "angel-options")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	// Load main config
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pricing.risk_free_rate", 0.07)
	v.SetDefault("pricing.model_volatility", 0.18)
	v.SetDefault("pricing.iv_iterations", 5)
	v.SetDefault("chain.default_underlying", "NIFTY")
	v.SetDefault("chain.strike_radius", 10)
	v.SetDefault("chain.discount_alert_threshold", 5.0)
	v.SetDefault("polling.interval", "15s")
	v.SetDefault("polling.chunk_size", 20)
	v.SetDefault("polling.chunk_delay", "0s")
	v.SetDefault("polling.parallel_quotes", false)
	v.SetDefault("cache.max_age", master.FreshnessWindow)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.time_format", "15:04:05")
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	// Angel SmartAPI credentials
	if v := os.Getenv("ANGEL_API_KEY"); v != "" {
		cfg.Credentials.Angel.APIKey = v
	}
	if v := os.Getenv("ANGEL_AUTH_TOKEN"); v != "" {
		cfg.Credentials.Angel.AuthToken = v
	}
	if v := os.Getenv("ANGEL_CLIENT_LOCAL_IP"); v != "" {
		cfg.Credentials.Angel.ClientLocalIP = v
	}
	if v := os.Getenv("ANGEL_CLIENT_PUBLIC_IP"); v != "" {
		cfg.Credentials.Angel.ClientPublicIP = v
	}
	if v := os.Getenv("ANGEL_MAC_ADDRESS"); v != "" {
		cfg.Credentials.Angel.MACAddress = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Pricing.RiskFreeRate < 0 || c.Pricing.RiskFreeRate > 1 {
		return fmt.Errorf("risk_free_rate must be between 0 and 1")
	}
	if c.Pricing.ModelVolatility <= 0 || c.Pricing.ModelVolatility > 5 {
		return fmt.Errorf("model_volatility must be between 0 and 5")
	}
	if c.Pricing.IVIterations < 1 {
		return fmt.Errorf("iv_iterations must be at least 1")
	}
	if c.Chain.StrikeRadius < 0 {
		return fmt.Errorf("strike_radius must be non-negative")
	}
	if c.Chain.DiscountAlertThreshold < 0 {
		return fmt.Errorf("discount_alert_threshold must be non-negative")
	}
	if c.Polling.Interval < time.Second {
		return fmt.Errorf("polling interval must be at least 1s")
	}
	if c.Polling.ChunkSize < 1 || c.Polling.ChunkSize > 50 {
		return fmt.Errorf("chunk_size must be between 1 and 50")
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("cache max_age must be positive")
	}
	return nil
}

// Settings maps the pricing and chain configuration onto runtime settings.
func (c *Config) Settings() models.Settings {
	return models.Settings{
		RiskFreeRate:           c.Pricing.RiskFreeRate,
		ModelVolatility:        c.Pricing.ModelVolatility,
		StrikeRadius:           c.Chain.StrikeRadius,
		DiscountAlertThreshold: c.Chain.DiscountAlertThreshold,
		IVIterations:           c.Pricing.IVIterations,
	}
}

// CachePath returns the scrip master cache location, defaulting to the config
// directory when unset.
func (c *Config) CachePath(configDir string) string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "scrip_master.json")
}
