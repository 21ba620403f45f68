package ruuvitag

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrUnknownManufacturer = errors.New("unknown manufacturer id")
	ErrUnsupportedFormat   = errors.New("unsupported data format")
	ErrTruncatedPayload    = errors.New("truncated payload")
	ErrInvalidValue        = errors.New("invalid field value")
)

const (
	dataFormat3 = 3
	dataFormat5 = 5

	format3Length = 14
	format5Length = 24

	// Pressure fields encode an offset above 50 kPa.
	pressureBasePascals = 50000

	// Data format 5 battery field encodes millivolts above 1.6 V and
	// tx power as 2 dBm steps above -40 dBm.
	batteryBaseMillivolts = 1600
	txPowerBaseDBm        = -40
)

// Decode interprets a manufacturer specific advertisement payload as RuuviTag
// sensor data. The first payload byte selects the data format; formats 3
// (RAWv1) and 5 (RAWv2) are supported. Decode never panics on malformed
// input: truncated or unrecognized payloads return an error instead.
func Decode(manufacturerID uint16, data []byte) (Measurement, error) {
	if manufacturerID != ManufacturerID {
		return Measurement{}, fmt.Errorf("%w: 0x%04X", ErrUnknownManufacturer, manufacturerID)
	}
	if len(data) == 0 {
		return Measurement{}, fmt.Errorf("%w: empty payload", ErrTruncatedPayload)
	}
	switch data[0] {
	case dataFormat3:
		return decodeFormat3(data)
	case dataFormat5:
		return decodeFormat5(data)
	default:
		return Measurement{}, fmt.Errorf("%w: %d", ErrUnsupportedFormat, data[0])
	}
}

// decodeFormat3 decodes the RAWv1 layout. All fields are always present;
// the format defines no unavailable sentinels.
func decodeFormat3(data []byte) (Measurement, error) {
	if len(data) < format3Length {
		return Measurement{}, fmt.Errorf("%w: data format 3 requires %d bytes, got %d", ErrTruncatedPayload, format3Length, len(data))
	}
	if data[1] > 200 {
		// humidity is a count of 0.5% steps up to 100%
		return Measurement{}, fmt.Errorf("%w: humidity %d out of range", ErrInvalidValue, data[1])
	}
	// temperature is sign-and-magnitude: bit 7 of the integer byte is the
	// sign, the fraction byte counts hundredths of a degree
	temperature := float64(int(data[2]&0x7F)*100+int(data[3])) / 100.0
	if data[2]&0x80 != 0 {
		temperature = -temperature
	}
	return Measurement{
		DataFormat:     dataFormat3,
		Humidity:       value(float64(data[1]), 2),
		Temperature:    &temperature,
		Pressure:       value(float64(binary.BigEndian.Uint16(data[4:6]))+pressureBasePascals, 1000),
		AccelerationX:  value(float64(int16(binary.BigEndian.Uint16(data[6:8]))), 1000),
		AccelerationY:  value(float64(int16(binary.BigEndian.Uint16(data[8:10]))), 1000),
		AccelerationZ:  value(float64(int16(binary.BigEndian.Uint16(data[10:12]))), 1000),
		BatteryVoltage: value(float64(binary.BigEndian.Uint16(data[12:14])), 1000),
	}, nil
}

// decodeFormat5 decodes the RAWv2 layout. Each field reserves its maximum
// representable magnitude as an unavailable sentinel; sentinels decode to
// nil, never to the numeric extreme.
func decodeFormat5(data []byte) (Measurement, error) {
	if len(data) < format5Length {
		return Measurement{}, fmt.Errorf("%w: data format 5 requires %d bytes, got %d", ErrTruncatedPayload, format5Length, len(data))
	}
	m := Measurement{DataFormat: dataFormat5}
	if raw := int16(binary.BigEndian.Uint16(data[1:3])); raw != -0x8000 {
		m.Temperature = value(float64(raw), 200) // 0.005 °C steps
	}
	if raw := binary.BigEndian.Uint16(data[3:5]); raw != 0xFFFF {
		m.Humidity = value(float64(raw), 400) // 0.0025 % steps
	}
	if raw := binary.BigEndian.Uint16(data[5:7]); raw != 0xFFFF {
		m.Pressure = value(float64(raw)+pressureBasePascals, 1000)
	}
	m.AccelerationX = acceleration(data[7:9])
	m.AccelerationY = acceleration(data[9:11])
	m.AccelerationZ = acceleration(data[11:13])
	power := binary.BigEndian.Uint16(data[13:15])
	if raw := power >> 5; raw != 0x7FF {
		m.BatteryVoltage = value(float64(raw)+batteryBaseMillivolts, 1000)
	}
	if raw := power & 0x1F; raw != 0x1F {
		tx := txPowerBaseDBm + int(raw)*2
		m.TxPower = &tx
	}
	if data[15] != 0xFF {
		count := int(data[15])
		m.MovementCounter = &count
	}
	if raw := binary.BigEndian.Uint16(data[16:18]); raw != 0xFFFF {
		seq := int(raw)
		m.MeasurementNumber = &seq
	}
	if addr := data[18:24]; !allOnes(addr) {
		m.Addr = CanonicalAddr(addr)
	}
	return m, nil
}

// value scales a raw field value to its physical unit. Division keeps the
// conversion exact to the nearest representable float so rendered values
// carry no artifacts beyond the source quantization.
func value(raw float64, divisor float64) *float64 {
	v := raw / divisor
	return &v
}

func acceleration(data []byte) *float64 {
	raw := int16(binary.BigEndian.Uint16(data))
	if raw == -0x8000 {
		return nil
	}
	return value(float64(raw), 1000)
}

func allOnes(data []byte) bool {
	for _, b := range data {
		if b != 0xFF {
			return false
		}
	}
	return true
}
