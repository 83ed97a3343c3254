// Package config loads apmlmed configuration from a YAML file and the
// environment, and builds the process logger.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tomiamao/apmlme/frame"
	"github.com/tomiamao/apmlme/mlme"
)

const (
	maxSSIDLen      = 32
	minSecretLen    = 16
	redactedSecret  = "REDACTED"
	envPrefix       = "APMLMED"
	defaultFileName = "apmlmed"
)

// Config is the decoded apmlmed configuration.
type Config struct {
	Interface InterfaceConfig `mapstructure:"interface" yaml:"interface"`
	BSS       BSSConfig       `mapstructure:"bss" yaml:"bss"`
	SME       SMEConfig       `mapstructure:"sme" yaml:"sme"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// InterfaceConfig names the network interfaces the daemon drives.
type InterfaceConfig struct {
	WLAN     string `mapstructure:"wlan" yaml:"wlan"`
	Monitor  string `mapstructure:"monitor" yaml:"monitor"`
	Ethernet string `mapstructure:"ethernet" yaml:"ethernet"`
}

// BSSConfig describes the BSS started by --autostart, and the dispatcher's
// admission and buffering limits.
type BSSConfig struct {
	SSID         string `mapstructure:"ssid" yaml:"ssid"`
	Channel      uint8  `mapstructure:"channel" yaml:"channel"`
	BeaconPeriod uint16 `mapstructure:"beacon_period" yaml:"beacon_period"`
	DTIMPeriod   uint8  `mapstructure:"dtim_period" yaml:"dtim_period"`
	// RSNE is a hex encoded RSN element. Empty starts an unprotected BSS.
	RSNE              string  `mapstructure:"rsne" yaml:"rsne"`
	MaxBufferedFrames int     `mapstructure:"max_buffered_frames" yaml:"max_buffered_frames"`
	AuthRate          float64 `mapstructure:"auth_rate" yaml:"auth_rate"`
	AuthBurst         int     `mapstructure:"auth_burst" yaml:"auth_burst"`
}

// SMEConfig configures the SME bridge.
type SMEConfig struct {
	Listen    string        `mapstructure:"listen" yaml:"listen"`
	JWTSecret string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// LoggingConfig configures NewLogger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration from file and environment variables. An empty
// configPath searches for apmlmed.yaml in the working directory and
// /etc/apmlmed; a missing file is not an error.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("interface.wlan", "")
	v.SetDefault("interface.monitor", "")
	v.SetDefault("interface.ethernet", "")
	v.SetDefault("bss.ssid", "")
	v.SetDefault("bss.channel", 6)
	v.SetDefault("bss.beacon_period", 100)
	v.SetDefault("bss.dtim_period", 2)
	v.SetDefault("bss.rsne", "")
	v.SetDefault("bss.max_buffered_frames", 0)
	v.SetDefault("bss.auth_rate", 0)
	v.SetDefault("bss.auth_burst", 0)
	v.SetDefault("sme.listen", "127.0.0.1:8470")
	v.SetDefault("sme.jwt_secret", "")
	v.SetDefault("sme.token_ttl", "24h")
	v.SetDefault("metrics.listen", "127.0.0.1:9470")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(defaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/apmlmed")
	}

	// Environment variable support: APMLMED_BSS_SSID=coffee
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// Decode decodes v into a Config without validating it.
func Decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &c, nil
}

// Validate reports the first problem that would stop the daemon from
// running with c.
func (c *Config) Validate() error {
	switch {
	case c.Interface.WLAN == "":
		return errors.New("interface.wlan is required")
	case c.Interface.Ethernet == "":
		return errors.New("interface.ethernet is required")
	case c.BSS.SSID == "":
		return errors.New("bss.ssid is required")
	case len(c.BSS.SSID) > maxSSIDLen:
		return fmt.Errorf("bss.ssid is longer than %d bytes", maxSSIDLen)
	case c.BSS.Channel == 0:
		return errors.New("bss.channel must be non-zero")
	case c.BSS.BeaconPeriod == 0:
		return errors.New("bss.beacon_period must be non-zero")
	case c.BSS.DTIMPeriod == 0:
		return errors.New("bss.dtim_period must be non-zero")
	case c.BSS.MaxBufferedFrames < 0:
		return errors.New("bss.max_buffered_frames must not be negative")
	case c.BSS.AuthRate < 0 || c.BSS.AuthBurst < 0:
		return errors.New("bss.auth_rate and bss.auth_burst must not be negative")
	case len(c.SME.JWTSecret) < minSecretLen:
		return fmt.Errorf("sme.jwt_secret must be at least %d bytes", minSecretLen)
	case c.SME.TokenTTL <= 0:
		return errors.New("sme.token_ttl must be positive")
	}

	if _, err := c.BSS.rsne(); err != nil {
		return err
	}
	return nil
}

// StartRequest returns the request that starts the configured BSS.
func (c *Config) StartRequest() (mlme.StartRequest, error) {
	rsne, err := c.BSS.rsne()
	if err != nil {
		return mlme.StartRequest{}, err
	}
	return mlme.StartRequest{
		SSID:         c.BSS.SSID,
		BeaconPeriod: c.BSS.BeaconPeriod,
		DTIMPeriod:   c.BSS.DTIMPeriod,
		Channel:      c.BSS.Channel,
		RSNE:         rsne,
	}, nil
}

// Redacted returns a copy of c that is safe to print.
func (c Config) Redacted() Config {
	if c.SME.JWTSecret != "" {
		c.SME.JWTSecret = redactedSecret
	}
	return c
}

// rsne decodes and checks the configured RSN element.
func (b BSSConfig) rsne() ([]byte, error) {
	if b.RSNE == "" {
		return nil, nil
	}

	raw, err := hex.DecodeString(strings.ReplaceAll(b.RSNE, ":", ""))
	if err != nil {
		return nil, fmt.Errorf("bss.rsne: %w", err)
	}
	ies, err := frame.ParseIEs(raw)
	if err != nil {
		return nil, fmt.Errorf("bss.rsne: %w", err)
	}
	if len(ies) != 1 || ies[0].ID != frame.IERSN {
		return nil, errors.New("bss.rsne must be a single RSN element")
	}
	return raw, nil
}
