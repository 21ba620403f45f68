package ruuvitag

import (
	"fmt"
)

// ManufacturerID is the Bluetooth SIG company identifier registered to
// Ruuvi Innovations Ltd. Advertisements carrying manufacturer specific
// data for any other company are not RuuviTag sensor broadcasts.
const ManufacturerID uint16 = 0x0499

// Measurement is a single decoded RuuviTag advertisement. Optional fields
// are nil when the advertisement marked them unavailable; data format 3
// always populates every field it defines.
type Measurement struct {
	// Addr is the payload-embedded device address in canonical colon-hex
	// form. Empty for formats that do not carry the address in-payload or
	// when the address field is set to its reserved pattern.
	Addr              string
	DataFormat        int
	Temperature       *float64 // °C
	Humidity          *float64 // %
	Pressure          *float64 // Pa / 1000
	AccelerationX     *float64 // g
	AccelerationY     *float64 // g
	AccelerationZ     *float64 // g
	BatteryVoltage    *float64 // V
	TxPower           *int     // dBm
	MovementCounter   *int
	MeasurementNumber *int
}

// HasValues reports whether at least one measurement field is present.
// A format 5 payload with every field at its sentinel decodes to a
// measurement without values; such measurements cannot be rendered as a
// record, since the line protocol requires at least one field.
func (m Measurement) HasValues() bool {
	return m.Temperature != nil ||
		m.Humidity != nil ||
		m.Pressure != nil ||
		m.AccelerationX != nil ||
		m.AccelerationY != nil ||
		m.AccelerationZ != nil ||
		m.BatteryVoltage != nil ||
		m.TxPower != nil ||
		m.MovementCounter != nil ||
		m.MeasurementNumber != nil
}

// CanonicalAddr renders a 6-byte device address as colon-separated
// uppercase hex octets.
func CanonicalAddr(addr []byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		addr[0], addr[1], addr[2], addr[3], addr[4], addr[5])
}
