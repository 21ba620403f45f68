package lineprotocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/niktheblak/ruuvitag-exporter/pkg/ruuvitag"
)

var ErrInvalidSeries = errors.New("invalid series name")

// escaper escapes the characters the line protocol reserves inside tag
// values. Display names and configured aliases are restricted to a safe
// character set upstream, so this is the only escaping required.
var escaper = strings.NewReplacer(",", `\,`, " ", `\ `, "=", `\=`)

// Encode renders one measurement as a single line protocol record:
//
//	<series>,name=<display-name> <field>=<value>[,<field>=<value>...] <timestamp>
//
// Fields are emitted in a fixed canonical order regardless of source data
// format; fields the measurement marked unavailable are omitted entirely.
// The timestamp is nanoseconds since the Unix epoch.
func Encode(series, name string, m ruuvitag.Measurement, ts time.Time) string {
	b := new(strings.Builder)
	b.WriteString(series)
	b.WriteString(",name=")
	b.WriteString(escaper.Replace(name))
	b.WriteByte(' ')
	f := fieldWriter{b: b}
	f.Float("acceleration_x", m.AccelerationX)
	f.Float("acceleration_y", m.AccelerationY)
	f.Float("acceleration_z", m.AccelerationZ)
	f.Float("battery_potential", m.BatteryVoltage)
	f.Float("humidity", m.Humidity)
	f.Integer("measurement_sequence_number", m.MeasurementNumber)
	f.Integer("movement_counter", m.MovementCounter)
	f.Float("pressure", m.Pressure)
	f.Float("temperature", m.Temperature)
	f.Integer("tx_power", m.TxPower)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(ts.UnixNano(), 10))
	return b.String()
}

// ValidateSeries reports whether a series name can be emitted verbatim.
// Series names are written unescaped, so characters the protocol reserves
// are a configuration error rather than something to quote at runtime.
func ValidateSeries(series string) error {
	if series == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSeries)
	}
	if strings.ContainsAny(series, ", =\\\n") {
		return fmt.Errorf("%w: %q contains reserved characters", ErrInvalidSeries, series)
	}
	return nil
}

type fieldWriter struct {
	b     *strings.Builder
	count int
}

// Float writes a present field as a decimal fraction using the shortest
// representation that round-trips, never scientific notation.
func (f *fieldWriter) Float(key string, value *float64) {
	if value == nil {
		return
	}
	f.key(key)
	f.b.WriteString(strconv.FormatFloat(*value, 'f', -1, 64))
}

// Integer writes a present field as a line protocol integer.
func (f *fieldWriter) Integer(key string, value *int) {
	if value == nil {
		return
	}
	f.key(key)
	f.b.WriteString(strconv.Itoa(*value))
	f.b.WriteByte('i')
}

func (f *fieldWriter) key(key string) {
	if f.count > 0 {
		f.b.WriteByte(',')
	}
	f.count++
	f.b.WriteString(key)
	f.b.WriteByte('=')
}
