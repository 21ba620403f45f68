package lineprotocol

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niktheblak/ruuvitag-exporter/pkg/ruuvitag"
)

func fullMeasurement() ruuvitag.Measurement {
	temperature := 19.63
	humidity := 19.5
	pressure := 101.481
	accX, accY, accZ := -0.055, -0.032, 0.998
	battery := 3.007
	txPower := 4
	movement := 66
	sequence := 205
	return ruuvitag.Measurement{
		DataFormat:        5,
		Temperature:       &temperature,
		Humidity:          &humidity,
		Pressure:          &pressure,
		AccelerationX:     &accX,
		AccelerationY:     &accY,
		AccelerationZ:     &accZ,
		BatteryVoltage:    &battery,
		TxPower:           &txPower,
		MovementCounter:   &movement,
		MeasurementNumber: &sequence,
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	m := fullMeasurement()
	m.TxPower = nil
	m.MovementCounter = nil
	m.MeasurementNumber = nil
	line := Encode("ruuvi_measurement", "F7:2A:60:0D:6E:1E", m, time.Unix(0, 1546681652675044272))
	assert.Equal(t, "ruuvi_measurement,name=F7:2A:60:0D:6E:1E acceleration_x=-0.055,acceleration_y=-0.032,acceleration_z=0.998,battery_potential=3.007,humidity=19.5,pressure=101.481,temperature=19.63 1546681652675044272", line)
}

func TestEncodeAllFields(t *testing.T) {
	t.Parallel()

	line := Encode("ruuvi_measurement", "Living room", fullMeasurement(), time.Unix(0, 1546681652675044272))
	assert.Equal(t, `ruuvi_measurement,name=Living\ room acceleration_x=-0.055,acceleration_y=-0.032,acceleration_z=0.998,battery_potential=3.007,humidity=19.5,measurement_sequence_number=205i,movement_counter=66i,pressure=101.481,temperature=19.63,tx_power=4i 1546681652675044272`, line)
}

func TestEncodeNameEscaping(t *testing.T) {
	t.Parallel()

	ts := time.Unix(0, 1546681652675044272)
	for name, escaped := range map[string]string{
		"Living room":  `Living\ room`,
		"a,b":          `a\,b`,
		"name=value":   `name\=value`,
		"all, of = it": `all\,\ of\ \=\ it`,
	} {
		line := Encode("ruuvi_measurement", name, fullMeasurement(), ts)
		assert.True(t, strings.HasPrefix(line, "ruuvi_measurement,name="+escaped+" "), "prefix of %q", line)
	}
}

func TestEncodeFieldOmission(t *testing.T) {
	t.Parallel()

	ts := time.Unix(0, 1546681652675044272)
	keys := []string{
		"acceleration_x",
		"acceleration_y",
		"acceleration_z",
		"battery_potential",
		"humidity",
		"measurement_sequence_number",
		"movement_counter",
		"pressure",
		"temperature",
		"tx_power",
	}
	clear := []func(*ruuvitag.Measurement){
		func(m *ruuvitag.Measurement) { m.AccelerationX = nil },
		func(m *ruuvitag.Measurement) { m.AccelerationY = nil },
		func(m *ruuvitag.Measurement) { m.AccelerationZ = nil },
		func(m *ruuvitag.Measurement) { m.BatteryVoltage = nil },
		func(m *ruuvitag.Measurement) { m.Humidity = nil },
		func(m *ruuvitag.Measurement) { m.MeasurementNumber = nil },
		func(m *ruuvitag.Measurement) { m.MovementCounter = nil },
		func(m *ruuvitag.Measurement) { m.Pressure = nil },
		func(m *ruuvitag.Measurement) { m.Temperature = nil },
		func(m *ruuvitag.Measurement) { m.TxPower = nil },
	}
	// every combination of present/absent optional fields keeps the
	// canonical order and omits exactly the absent keys; the all-absent
	// combination is excluded because the protocol requires at least one
	// field and callers never render a measurement without values
	for mask := 0; mask < 1<<len(keys)-1; mask++ {
		m := fullMeasurement()
		var want []string
		for i, key := range keys {
			if mask&(1<<i) != 0 {
				clear[i](&m)
			} else {
				want = append(want, key)
			}
		}
		line := Encode("s", "n", m, ts)
		fields := strings.Split(line, " ")[1]
		var got []string
		for _, pair := range strings.Split(fields, ",") {
			got = append(got, strings.SplitN(pair, "=", 2)[0])
		}
		require.Equal(t, want, got, "mask %b", mask)
	}
}

func TestEncodeIntegerFields(t *testing.T) {
	t.Parallel()

	m := fullMeasurement()
	line := Encode("s", "n", m, time.Unix(0, 0))
	assert.Contains(t, line, "tx_power=4i")
	assert.Contains(t, line, "movement_counter=66i")
	assert.Contains(t, line, "measurement_sequence_number=205i")
	assert.NotContains(t, line, "temperature=19.63i")
}

func TestEncodeTimestampOnlyDifference(t *testing.T) {
	t.Parallel()

	m := fullMeasurement()
	first := Encode("s", "n", m, time.Unix(0, 1546681652675044272))
	second := Encode("s", "n", m, time.Unix(0, 1546681652675044273))
	assert.NotEqual(t, first, second)
	assert.Equal(t,
		strings.TrimSuffix(first, "1546681652675044272"),
		strings.TrimSuffix(second, "1546681652675044273"))
	assert.True(t, strings.HasSuffix(first, " 1546681652675044272"))
	assert.True(t, strings.HasSuffix(second, " 1546681652675044273"))
}

func TestEncodeNoScientificNotation(t *testing.T) {
	t.Parallel()

	small := 0.004
	m := ruuvitag.Measurement{AccelerationX: &small}
	line := Encode("s", "n", m, time.Unix(0, 0))
	assert.Contains(t, line, "acceleration_x=0.004")
	assert.NotContains(t, line, "e-")
}

func TestValidateSeries(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateSeries("ruuvi_measurement"))
	for _, series := range []string{"", "ruuvi measurement", "a,b", "a=b"} {
		t.Run(fmt.Sprintf("invalid %q", series), func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(t, ValidateSeries(series), ErrInvalidSeries)
		})
	}
}
