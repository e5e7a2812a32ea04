package spectral

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var _ RegisterBus = &BusRegisters{}

// BusRegisters implements RegisterBus on top of a buffer oriented I2CBus.
// A read sets the register pointer with a one byte write and then reads a single byte back.
type BusRegisters struct {
	mx         sync.Mutex
	transport  I2CBus
	retryLimit int
	buf        []byte
}

type BusRegistersOpt func(*BusRegisters)

// WithRetryLimit sets how many times a transaction is attempted when the bus reports ErrBusBusy.
func WithRetryLimit(limit int) BusRegistersOpt {
	return func(r *BusRegisters) {
		if limit > 0 {
			r.retryLimit = limit
		}
	}
}

func NewRegisterBus(transport I2CBus, opts ...BusRegistersOpt) *BusRegisters {
	r := &BusRegisters{
		transport:  transport,
		retryLimit: 1,
		buf:        make([]byte, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *BusRegisters) ReadRegister(ctx context.Context, address byte, register byte) (byte, error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	var err error
	for i := r.retryLimit; i > 0; i-- {
		err = r.readRegister(ctx, address, register)
		if err == nil {
			return r.buf[0], nil
		}
		if !errors.Is(err, ErrBusBusy) {
			return 0, err
		}
		// try to release the bus
		_ = r.transport.Release(ctx)
	}
	return 0, fmt.Errorf("could not read register %#x (retry limit reached): %w", register, err)
}

func (r *BusRegisters) readRegister(ctx context.Context, address byte, register byte) error {
	err := r.transport.WriteToAddr(ctx, address, []byte{register})
	if err != nil {
		return fmt.Errorf("could not set register pointer %#x: %w", register, err)
	}
	r.buf[0] = 0x00
	err = r.transport.ReadFromAddr(ctx, address, r.buf)
	if err != nil {
		return fmt.Errorf("could not read register %#x: %w", register, err)
	}
	return nil
}

func (r *BusRegisters) WriteRegister(ctx context.Context, address byte, register byte, value byte) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	var err error
	for i := r.retryLimit; i > 0; i-- {
		err = r.transport.WriteToAddr(ctx, address, []byte{register, value})
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrBusBusy) {
			return fmt.Errorf("could not write register %#x: %w", register, err)
		}
		_ = r.transport.Release(ctx)
	}
	return fmt.Errorf("could not write register %#x (retry limit reached): %w", register, err)
}
