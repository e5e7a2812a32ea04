// Package as7262 drives the ams AS7262 6-channel visible spectral sensor over I2C.
//
// The device exposes three physical registers (status, write and read) and hides its real register map behind
// them. Every logical ("virtual") register is reached with a status-polled address/data handshake, see
// VirtualRegisters. Datasheet: https://ams.com/documents/20143/36005/AS7262_DS000486_2-00.pdf
//
// Typical usage:
//
//	s := as7262.NewAS7262(spectral.NewRegisterBus(bus))
//	if err := s.SetGain(ctx, as7262.Gain64x); err != nil { ... }
//	spectrum, err := s.TakeSingleMeasurementWithLED(ctx)
package as7262

// DefaultAddress is the fixed 7-bit I2C address of the sensor.
const DefaultAddress = 0x49

// Physical registers
const (
	regStatus byte = 0x00
	regWrite  byte = 0x01
	regRead   byte = 0x02
)

// Status register bits
// Bit0: RX_VALID (read register holds data for the host)
// Bit1: TX_VALID (write register still holds a byte the device has not consumed)
const (
	statusRxValid byte = 0x01
	statusTxValid byte = 0x02
)

// writeFlag marks an address-phase byte as the start of a virtual register write.
const writeFlag byte = 0x80

// maxVirtualRegister is the highest address reachable through the 7-bit address phase.
const maxVirtualRegister byte = 0x7F

// Virtual register map
const (
	RegControlSetup    byte = 0x04
	RegIntegrationTime byte = 0x05
	RegTemperature     byte = 0x06
	RegLEDControl      byte = 0x07
	// RegChannelData is the first byte of the calibrated channel block (0x14-0x2B).
	RegChannelData byte = 0x14
)

// channelBlockSize is six big-endian float32 values in V,B,G,Y,O,R order.
const channelBlockSize = 24

// Control setup register bits that are not part of a configurable field
const (
	controlDataReady byte = 0b00000010
	controlReset     byte = 0b10000000
)
