package sink

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/niktheblak/ruuvitag-exporter/pkg/lineprotocol"
	"github.com/niktheblak/ruuvitag-exporter/pkg/ruuvitag"
)

// Record is one formatted measurement ready for emission: the series name,
// the resolved display name tag, the decoded measurement and the receive
// timestamp.
type Record struct {
	Series      string
	Name        string
	Measurement ruuvitag.Measurement
	Timestamp   time.Time
}

// Line renders the record as one line protocol record without a trailing
// newline.
func (r Record) Line() string {
	return lineprotocol.Encode(r.Series, r.Name, r.Measurement, r.Timestamp)
}

// Sink consumes finished records. A sink attempts exactly one write per
// record and reports the outcome; retrying is the caller's concern.
type Sink interface {
	Send(ctx context.Context, rec Record) error
	io.Closer
}

type consoleSink struct {
	w io.Writer
}

// Console returns a sink that writes one newline-terminated line protocol
// record per measurement to w.
func Console(w io.Writer) Sink {
	return &consoleSink{w: w}
}

func (s *consoleSink) Send(_ context.Context, rec Record) error {
	_, err := fmt.Fprintln(s.w, rec.Line())
	return err
}

func (s *consoleSink) Close() error {
	return nil
}
