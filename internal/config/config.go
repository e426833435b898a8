// Package config loads Citadel's ambient runtime settings: data directory,
// demo seed flag, log format/level, and threat-engine tick interval, from
// environment variables and an optional config file, via spf13/viper.
// External transports consume the same controls; the demo CLI
// (cmd/citadel-demo) is this module's only direct consumer.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys used to bind flags, environment variables, and config-file entries.
const (
	KeyDataDir        = "data-dir"
	KeyRootPassphrase = "root-passphrase"
	KeyDemoSeed       = "demo-seed"
	KeyLogFormat      = "log-format"
	KeyLogLevel       = "log-level"
	KeyThreatTick     = "threat-tick"

	envPrefix = "CITADEL"
)

// Config is the resolved set of ambient settings for a Citadel process.
type Config struct {
	DataDir        string
	RootPassphrase string
	DemoSeed       bool
	LogFormat      string
	LogLevel       string
	ThreatTick     time.Duration
}

// Defaults populates viper with Citadel's default values. Call before
// BindPFlags/ReadInConfig so flags and file/env values can still override.
func Defaults(v *viper.Viper) {
	v.SetDefault(KeyDataDir, "./citadel-data")
	v.SetDefault(KeyRootPassphrase, "")
	v.SetDefault(KeyDemoSeed, false)
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyThreatTick, "2s")
}

// New builds a viper instance wired to read CITADEL_-prefixed environment
// variables (dashes folded to underscores, per viper's usual convention) on
// top of Citadel's defaults. configFile, if non-empty, is also merged in.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	Defaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	return v, nil
}

// Load resolves a Config from an already-populated viper instance.
func Load(v *viper.Viper) (*Config, error) {
	tick := v.GetDuration(KeyThreatTick)
	if tick <= 0 {
		return nil, fmt.Errorf("config: %s must be a positive duration", KeyThreatTick)
	}

	cfg := &Config{
		DataDir:        v.GetString(KeyDataDir),
		RootPassphrase: v.GetString(KeyRootPassphrase),
		DemoSeed:       v.GetBool(KeyDemoSeed),
		LogFormat:      v.GetString(KeyLogFormat),
		LogLevel:       v.GetString(KeyLogLevel),
		ThreatTick:     tick,
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("config: %s must not be empty", KeyDataDir)
	}
	return cfg, nil
}
