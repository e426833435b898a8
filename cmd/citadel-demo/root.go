package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/citadel-sec/citadel/internal/config"
	"github.com/citadel-sec/citadel/internal/telemetry"
	pkgversion "github.com/citadel-sec/citadel/pkg/version"
)

var (
	cfgFile string
	cfg     *config.Config
	v       = viper.New()
	log     *telemetry.Logger
)

var rootCmd = &cobra.Command{
	Use:   "citadel-demo",
	Short: "Demo CLI exercising Citadel's hybrid post-quantum envelope and keystore",
	Long: `citadel-demo drives the Citadel library the way an HTTP transport or
backup tool would: generate keys, seal and open envelopes, and walk a key
through its lifecycle. It is demonstration tooling, not a production CLI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	config.Defaults(v)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (YAML/JSON/TOML)")
	rootCmd.PersistentFlags().String("data-dir", v.GetString(config.KeyDataDir), "keystore data directory")
	rootCmd.PersistentFlags().String("root-passphrase", "", "passphrase protecting the root key's wrapped secret")
	rootCmd.PersistentFlags().Bool("demo-seed", false, "seed the keystore with a demo Root/Domain/KEK/DEK chain on init")
	rootCmd.PersistentFlags().String("log-format", v.GetString(config.KeyLogFormat), "log output format: text or json")
	rootCmd.PersistentFlags().String("log-level", v.GetString(config.KeyLogLevel), "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Duration("threat-tick", v.GetDuration(config.KeyThreatTick), "polling interval for 'threat watch'")

	_ = v.BindPFlag(config.KeyDataDir, rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = v.BindPFlag(config.KeyRootPassphrase, rootCmd.PersistentFlags().Lookup("root-passphrase"))
	_ = v.BindPFlag(config.KeyDemoSeed, rootCmd.PersistentFlags().Lookup("demo-seed"))
	_ = v.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag(config.KeyThreatTick, rootCmd.PersistentFlags().Lookup("threat-tick"))

	v.SetEnvPrefix("CITADEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

func loadConfig() error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	format := telemetry.FormatText
	if cfg.LogFormat == "json" {
		format = telemetry.FormatJSON
	}
	log = telemetry.NewLogger(
		telemetry.WithLevel(telemetry.ParseLevel(cfg.LogLevel)),
		telemetry.WithFormat(format),
	).Named("citadel-demo")

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print citadel-demo's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(pkgversion.Full())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
