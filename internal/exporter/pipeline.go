package exporter

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/niktheblak/ruuvitag-exporter/pkg/aliases"
	"github.com/niktheblak/ruuvitag-exporter/pkg/lineprotocol"
	"github.com/niktheblak/ruuvitag-exporter/pkg/ruuvitag"
	"github.com/niktheblak/ruuvitag-exporter/pkg/sink"
)

// Advertisement is one manufacturer specific BLE advertisement as delivered
// by the scanner: the scanner-reported device address, the manufacturer
// company identifier, the raw payload and the receive instant.
type Advertisement struct {
	Addr           string
	ManufacturerID uint16
	Data           []byte
	Timestamp      time.Time
}

type Config struct {
	// Series is the measurement series name written to every record.
	Series string
	// Aliases maps device addresses to display names. May be nil.
	Aliases *aliases.Table
	// Formats lists the accepted data format tags. Empty accepts all
	// supported formats.
	Formats []int
	Sinks   []sink.Sink
	Logger  *slog.Logger
}

// Pipeline drives decode, alias resolution and formatting for each
// advertisement and emits the finished records to the configured sinks.
// It holds no cross-event state, so one pipeline may process events from
// concurrent goroutines.
type Pipeline struct {
	series  string
	aliases *aliases.Table
	formats map[int]bool
	sinks   []sink.Sink
	logger  *slog.Logger
}

// New validates the configuration and creates a pipeline. An invalid series
// name is a configuration error reported here, before any event is
// processed.
func New(cfg Config) (*Pipeline, error) {
	if err := lineprotocol.ValidateSeries(cfg.Series); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var formats map[int]bool
	if len(cfg.Formats) > 0 {
		formats = make(map[int]bool, len(cfg.Formats))
		for _, f := range cfg.Formats {
			formats[f] = true
		}
	}
	return &Pipeline{
		series:  cfg.Series,
		aliases: cfg.Aliases,
		formats: formats,
		sinks:   cfg.Sinks,
		logger:  cfg.Logger,
	}, nil
}

// Run consumes advertisements until the channel closes or ctx is cancelled.
// Per-event failures are logged and skipped; Run only stops on ctx.
func (p *Pipeline) Run(ctx context.Context, events <-chan Advertisement) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case adv, ok := <-events:
			if !ok {
				return nil
			}
			p.Process(ctx, adv)
		}
	}
}

// Process handles a single advertisement: decode, resolve the display name
// and emit one record to every sink. Advertisements from other manufacturers
// are skipped silently; malformed payloads and sink failures are logged and
// produce no record, but never stop the pipeline.
func (p *Pipeline) Process(ctx context.Context, adv Advertisement) {
	if adv.ManufacturerID != ruuvitag.ManufacturerID {
		return
	}
	m, err := ruuvitag.Decode(adv.ManufacturerID, adv.Data)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "Dropping advertisement",
			slog.String("addr", adv.Addr),
			slog.Any("error", err))
		return
	}
	if p.formats != nil && !p.formats[m.DataFormat] {
		return
	}
	if !m.HasValues() {
		p.logger.LogAttrs(ctx, slog.LevelDebug, "Advertisement carries no available fields",
			slog.String("addr", adv.Addr))
		return
	}
	addr := adv.Addr
	if m.Addr != "" {
		if !strings.EqualFold(m.Addr, adv.Addr) {
			// the payload-embedded address is authoritative
			p.logger.LogAttrs(ctx, slog.LevelWarn, "Scanner-reported address differs from payload address",
				slog.String("scanner_addr", adv.Addr),
				slog.String("payload_addr", m.Addr))
		}
		addr = m.Addr
	}
	rec := sink.Record{
		Series:      p.series,
		Name:        p.aliases.Resolve(addr),
		Measurement: m,
		Timestamp:   adv.Timestamp,
	}
	for _, s := range p.sinks {
		if err := s.Send(ctx, rec); err != nil {
			p.logger.LogAttrs(ctx, slog.LevelError, "Failed to write record",
				slog.String("name", rec.Name),
				slog.Any("error", err))
		}
	}
}
