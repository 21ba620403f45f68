package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Logger      *slog.Logger
}

type mqttSink struct {
	client      mqtt.Client
	topicPrefix string
	logger      *slog.Logger
}

// MQTT returns a sink that publishes each rendered record to
// <topic-prefix>/<display-name>.
func MQTT(cfg MQTTConfig) (Sink, error) {
	if cfg.BrokerURL == "" {
		return nil, fmt.Errorf("MQTT broker URL is required")
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "ruuvitag"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "ruuvitag-exporter"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.BrokerURL, token.Error())
	}
	cfg.Logger.LogAttrs(context.Background(), slog.LevelInfo, "Connected to MQTT broker", slog.String("broker", cfg.BrokerURL))
	return &mqttSink{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		logger:      cfg.Logger,
	}, nil
}

func (s *mqttSink) Send(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/%s", s.topicPrefix, rec.Name)
	token := s.client.Publish(topic, 0, false, rec.Line())
	token.Wait()
	return token.Error()
}

func (s *mqttSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
