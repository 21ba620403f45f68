package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "ruuvitag-exporter",
	Short:        "Exports RuuviTag sensor measurements as InfluxDB line protocol",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	logger = slog.Default()
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ruuvitag-exporter/config.toml)")
	rootCmd.PersistentFlags().String("logging.level", "info", "log level")
	cobra.CheckErr(viper.BindPFlags(rootCmd.PersistentFlags()))
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("/etc/ruuvitag-exporter")
		viper.AddConfigPath("$HOME/.ruuvitag-exporter")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("logging.level"))); err != nil {
		level = slog.LevelInfo
	}
	// records go to stdout, diagnostics to stderr
	logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	if err := viper.ReadInConfig(); err == nil {
		logger.LogAttrs(context.Background(), slog.LevelInfo, "Using config file", slog.String("config", viper.ConfigFileUsed()))
	}
}
