package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/niktheblak/ruuvitag-exporter/pkg/ruuvitag"
)

type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	Logger *slog.Logger
}

type influxDBSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	logger   *slog.Logger
}

// InfluxDB returns a sink that writes one point per record to an InfluxDB
// v2 write endpoint. Writes are blocking and not retried here; the client's
// own semantics apply.
func InfluxDB(cfg InfluxDBConfig) (Sink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("InfluxDB URL is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("InfluxDB bucket is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &influxDBSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		logger:   cfg.Logger,
	}, nil
}

func (s *influxDBSink) Send(ctx context.Context, rec Record) error {
	p := influxdb2.NewPoint(rec.Series, map[string]string{"name": rec.Name}, fields(rec.Measurement), rec.Timestamp)
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *influxDBSink) Close() error {
	s.client.Close()
	return nil
}

// fields collects the present measurement fields under their canonical
// keys. Unavailable fields are left out rather than written as zero.
func fields(m ruuvitag.Measurement) map[string]any {
	f := make(map[string]any, 10)
	addFloat := func(key string, value *float64) {
		if value != nil {
			f[key] = *value
		}
	}
	addInt := func(key string, value *int) {
		if value != nil {
			f[key] = int64(*value)
		}
	}
	addFloat("acceleration_x", m.AccelerationX)
	addFloat("acceleration_y", m.AccelerationY)
	addFloat("acceleration_z", m.AccelerationZ)
	addFloat("battery_potential", m.BatteryVoltage)
	addFloat("humidity", m.Humidity)
	addInt("measurement_sequence_number", m.MeasurementNumber)
	addInt("movement_counter", m.MovementCounter)
	addFloat("pressure", m.Pressure)
	addFloat("temperature", m.Temperature)
	addInt("tx_power", m.TxPower)
	return f
}
