// Package spectral holds the bus abstractions shared by the AS7262 driver and its transports.
package spectral

import (
	"context"
	"fmt"
)

// ErrBusBusy is returned by adapters whose I2C engine has not finished the previous command.
var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus transfers raw buffers to and from a 7-bit device address.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// RegisterBus gives single byte access to the registers of a device sitting at a 7-bit address.
// Each call is one complete bus transaction.
type RegisterBus interface {
	ReadRegister(ctx context.Context, address byte, register byte) (byte, error)
	WriteRegister(ctx context.Context, address byte, register byte, value byte) error
}
