package config

import (
	"errors"
	"fmt"
	"github.com/shimmeringbee/myjd/entity"
	"github.com/spf13/viper"
	"strings"
	"time"
)

const (
	DefaultScanInterval          = 60 * time.Second
	DefaultLatestVersionInterval = 24 * time.Hour
	DefaultListen                = ":8123"

	EnvPrefix = "MYJD"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Email         string        `yaml:"email" mapstructure:"email"`
	Password      string        `yaml:"password" mapstructure:"password"`
	ScanInterval  time.Duration `yaml:"scan_interval" mapstructure:"scan_interval"`
	LatestVersion LatestVersion `yaml:"latest_version" mapstructure:"latest_version"`
	Rules         string        `yaml:"rules" mapstructure:"rules"`
	Listen        string        `yaml:"listen" mapstructure:"listen"`
}

type LatestVersion struct {
	URL string `yaml:"url" mapstructure:"url"`
	// Interval between latest version lookups while an update is pending, zero or less disables lookups.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

func Default() *Config {
	return &Config{
		ScanInterval: DefaultScanInterval,
		LatestVersion: LatestVersion{
			URL:      entity.DefaultLatestVersionURL,
			Interval: DefaultLatestVersionInterval,
		},
		Listen: DefaultListen,
	}
}

// Load reads the YAML file at path, if one is given, and overlays MYJD_ prefixed environment variables, e.g.
// MYJD_LATEST_VERSION_INTERVAL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(path) > 0 {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid config format in %s: %w", path, err)
	}

	return cfg, nil
}

// setDefaults registers every key, AutomaticEnv only overlays keys viper already knows about.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("email", d.Email)
	v.SetDefault("password", d.Password)
	v.SetDefault("scan_interval", d.ScanInterval)
	v.SetDefault("latest_version.url", d.LatestVersion.URL)
	v.SetDefault("latest_version.interval", d.LatestVersion.Interval)
	v.SetDefault("rules", d.Rules)
	v.SetDefault("listen", d.Listen)
}

func (c *Config) Validate() error {
	if len(c.Email) == 0 {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}

	if len(c.Password) == 0 {
		return fmt.Errorf("%w: password is required", ErrInvalid)
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("%w: scan_interval must be positive, got %s", ErrInvalid, c.ScanInterval)
	}

	if c.LatestVersion.Interval > 0 && len(c.LatestVersion.URL) == 0 {
		return fmt.Errorf("%w: latest_version.url is required while latest version lookups are enabled", ErrInvalid)
	}

	return nil
}
