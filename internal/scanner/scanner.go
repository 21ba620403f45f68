package scanner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/niktheblak/ruuvitag-exporter/internal/exporter"
	"github.com/niktheblak/ruuvitag-exporter/pkg/ruuvitag"
)

// Scanner listens for BLE advertisements on the default adapter and
// delivers the ones carrying RuuviTag manufacturer data.
type Scanner struct {
	adapter *bluetooth.Adapter
	logger  *slog.Logger
}

func New(logger *slog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("failed to enable BLE adapter: %w", err)
	}
	return &Scanner{
		adapter: adapter,
		logger:  logger,
	}, nil
}

// Scan runs a passive scan until ctx is cancelled, sending each RuuviTag
// advertisement on events with its receive timestamp. The channel is closed
// when the scan stops, so consumers can range over it.
func (s *Scanner) Scan(ctx context.Context, events chan<- exporter.Advertisement) error {
	defer close(events)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := s.adapter.StopScan(); err != nil {
				s.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to stop scan", slog.Any("error", err))
			}
		case <-done:
			// scan ended on its own
		}
	}()
	s.logger.Info("Scanning for RuuviTag advertisements")
	return s.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		ts := time.Now()
		for _, md := range result.ManufacturerData() {
			if md.CompanyID != ruuvitag.ManufacturerID {
				continue
			}
			adv := exporter.Advertisement{
				Addr:           strings.ToUpper(result.Address.String()),
				ManufacturerID: md.CompanyID,
				Data:           md.Data,
				Timestamp:      ts,
			}
			select {
			case events <- adv:
			case <-ctx.Done():
				return
			}
		}
	})
}
