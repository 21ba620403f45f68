package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/niktheblak/ruuvitag-exporter/internal/exporter"
	"github.com/niktheblak/ruuvitag-exporter/internal/scanner"
	"github.com/niktheblak/ruuvitag-exporter/pkg/aliases"
	"github.com/niktheblak/ruuvitag-exporter/pkg/sink"
)

var collectCmd = &cobra.Command{
	Use:          "collect",
	Short:        "Listen for RuuviTag advertisements and write measurements to the configured sinks",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			series      = viper.GetString("influxdb.measurement")
			aliasPairs  = viper.GetStringMapString("alias")
			formats     = viper.GetIntSlice("formats")
			influxURL   = viper.GetString("influxdb.url")
			influxToken = viper.GetString("influxdb.token")
			influxOrg   = viper.GetString("influxdb.org")
			bucket      = viper.GetString("influxdb.bucket")
			mqttBroker  = viper.GetString("mqtt.broker")
		)
		table, err := aliases.New(aliasPairs)
		if err != nil {
			return err
		}
		logger.LogAttrs(
			context.Background(),
			slog.LevelInfo,
			"Starting collector",
			slog.String("series", series),
			slog.Int("aliases", table.Len()),
			slog.Any("formats", formats),
		)
		sinks := []sink.Sink{sink.Console(os.Stdout)}
		if influxURL != "" {
			logger.LogAttrs(
				context.Background(),
				slog.LevelInfo,
				"Writing to InfluxDB",
				slog.String("url", influxURL),
				slog.String("org", influxOrg),
				slog.String("bucket", bucket),
			)
			s, err := sink.InfluxDB(sink.InfluxDBConfig{
				URL:    influxURL,
				Token:  influxToken,
				Org:    influxOrg,
				Bucket: bucket,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			sinks = append(sinks, s)
		}
		if mqttBroker != "" {
			logger.LogAttrs(context.Background(), slog.LevelInfo, "Publishing to MQTT", slog.String("broker", mqttBroker))
			s, err := sink.MQTT(sink.MQTTConfig{
				BrokerURL:   mqttBroker,
				ClientID:    viper.GetString("mqtt.client_id"),
				Username:    viper.GetString("mqtt.username"),
				Password:    viper.GetString("mqtt.password"),
				TopicPrefix: viper.GetString("mqtt.topic"),
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			sinks = append(sinks, s)
		}
		defer func() {
			for _, s := range sinks {
				if err := s.Close(); err != nil {
					logger.Error("Failed to close sink", "err", err)
				}
			}
		}()
		pipeline, err := exporter.New(exporter.Config{
			Series:  series,
			Aliases: table,
			Formats: formats,
			Sinks:   sinks,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		bleScanner, err := scanner.New(logger)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		events := make(chan exporter.Advertisement, 64)
		scanErr := make(chan error, 1)
		go func() {
			scanErr <- bleScanner.Scan(ctx, events)
		}()
		if err := pipeline.Run(ctx, events); err != nil {
			return err
		}
		if err := <-scanErr; err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
			return err
		}
		logger.Info("Shutting down")
		return nil
	},
}

func init() {
	collectCmd.Flags().String("influxdb.measurement", "", "measurement (series) name for emitted records")
	collectCmd.Flags().StringToString("alias", nil, "display name for a RuuviTag address, for example DE:AD:BE:EF:00:00=Sauna")
	collectCmd.Flags().IntSlice("formats", nil, "accepted RuuviTag data formats; empty accepts all supported formats")
	collectCmd.Flags().String("influxdb.url", "", "InfluxDB server URL; leave empty to write to stdout only")
	collectCmd.Flags().String("influxdb.token", "", "InfluxDB API token")
	collectCmd.Flags().String("influxdb.org", "", "InfluxDB organization")
	collectCmd.Flags().String("influxdb.bucket", "", "InfluxDB bucket")
	collectCmd.Flags().String("mqtt.broker", "", "MQTT broker URL; leave empty to disable publishing")
	collectCmd.Flags().String("mqtt.topic", "", "MQTT topic prefix")
	collectCmd.Flags().String("mqtt.client_id", "", "MQTT client id")
	collectCmd.Flags().String("mqtt.username", "", "MQTT username")
	collectCmd.Flags().String("mqtt.password", "", "MQTT password")

	cobra.CheckErr(viper.BindPFlags(collectCmd.Flags()))

	viper.SetDefault("influxdb.measurement", "ruuvi_measurement")

	rootCmd.AddCommand(collectCmd)
}
