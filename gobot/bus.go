// Package gobot exposes gobot I2C connectors (NanoPi, Raspberry Pi and other SBC adaptors) as a register bus.
package gobot

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/spectral"
)

var _ spectral.RegisterBus = &ByteDataBus{}

type byteDataDevice interface {
	ReadByteData(reg uint8) (uint8, error)
	WriteByteData(reg uint8, val uint8) error
	Halt() error
}

// ByteDataBus maps register accesses to SMBus byte data transfers. A gobot driver is started for every
// device address on first use.
type ByteDataBus struct {
	mx      sync.Mutex
	open    func(address byte) (byteDataDevice, error)
	devices map[byte]byteDataDevice
}

// NewByteDataBus uses bus number busNr of the connector, e.g. 0 for /dev/i2c-0 on a NanoPi NEO.
func NewByteDataBus(connector i2c.Connector, busNr int) *ByteDataBus {
	return newByteDataBus(func(address byte) (byteDataDevice, error) {
		driver := i2c.NewGenericDriver(connector, fmt.Sprintf("spectral-%#02x", address), int(address), func(c i2c.Config) {
			c.SetBus(busNr)
		})
		if err := driver.Start(); err != nil {
			return nil, fmt.Errorf("start error: %w", err)
		}
		return driver, nil
	})
}

func newByteDataBus(open func(address byte) (byteDataDevice, error)) *ByteDataBus {
	return &ByteDataBus{
		open:    open,
		devices: make(map[byte]byteDataDevice),
	}
}

func (b *ByteDataBus) ReadRegister(ctx context.Context, address byte, register byte) (byte, error) {
	dev, err := b.device(address)
	if err != nil {
		return 0, err
	}
	val, err := dev.ReadByteData(register)
	if err != nil {
		return 0, fmt.Errorf("could not read register %#x of %#x: %w", register, address, err)
	}
	return val, nil
}

func (b *ByteDataBus) WriteRegister(ctx context.Context, address byte, register byte, value byte) error {
	dev, err := b.device(address)
	if err != nil {
		return err
	}
	if err := dev.WriteByteData(register, value); err != nil {
		return fmt.Errorf("could not write register %#x of %#x: %w", register, address, err)
	}
	return nil
}

func (b *ByteDataBus) device(address byte) (byteDataDevice, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if dev, ok := b.devices[address]; ok {
		return dev, nil
	}
	dev, err := b.open(address)
	if err != nil {
		return nil, fmt.Errorf("could not open device %#x: %w", address, err)
	}
	b.devices[address] = dev
	return dev, nil
}

// Close halts all started drivers.
func (b *ByteDataBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var err error
	for address, dev := range b.devices {
		err = multierr.Append(err, dev.Halt())
		delete(b.devices, address)
	}
	return err
}
