package as7262

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mklimuk/spectral"
)

/*
VirtualRegisters implements the virtual register protocol on top of the three physical registers.

Read of virtual register R:
 1. poll status until TX_VALID is clear
 2. write R to the write register
 3. poll status until RX_VALID is set
 4. read the value from the read register

Write of value V to virtual register R:
 1. poll status until TX_VALID is clear
 2. write R|0x80 to the write register
 3. poll status until TX_VALID is clear
 4. write V to the write register

Only one transaction is in flight at a time; the mutex keeps the address phase and the data phase of concurrent
callers from interleaving.
*/
type VirtualRegisters struct {
	mx           sync.Mutex
	transport    spectral.RegisterBus
	addr         byte
	clock        clock.Clock
	pollInterval time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

func NewVirtualRegisters(transport spectral.RegisterBus, opts ...AS7262Opt) *VirtualRegisters {
	return newVirtualRegisters(transport, buildOpts(opts))
}

func newVirtualRegisters(transport spectral.RegisterBus, config AS7262Opts) *VirtualRegisters {
	return &VirtualRegisters{
		transport:    transport,
		addr:         config.Address,
		clock:        config.Clock,
		pollInterval: config.HandshakePollInterval,
		timeout:      config.HandshakeTimeout,
		logger:       config.Logger,
	}
}

// Read returns the value of a single virtual register.
func (v *VirtualRegisters) Read(ctx context.Context, reg byte) (byte, error) {
	if err := checkVirtual(reg, 1); err != nil {
		return 0, err
	}
	v.mx.Lock()
	defer v.mx.Unlock()
	return v.read(ctx, reg)
}

// Write stores value in a single virtual register.
func (v *VirtualRegisters) Write(ctx context.Context, reg byte, value byte) error {
	if err := checkVirtual(reg, 1); err != nil {
		return err
	}
	v.mx.Lock()
	defer v.mx.Unlock()
	return v.write(ctx, reg, value)
}

// ReadBlock fills buf with consecutive virtual registers starting at start, one handshake per byte.
func (v *VirtualRegisters) ReadBlock(ctx context.Context, start byte, buf []byte) error {
	if err := checkVirtual(start, len(buf)); err != nil {
		return err
	}
	v.mx.Lock()
	defer v.mx.Unlock()
	for i := range buf {
		val, err := v.read(ctx, start+byte(i))
		if err != nil {
			return err
		}
		buf[i] = val
	}
	return nil
}

// Update performs a read-modify-write of a virtual register without letting another transaction in between.
func (v *VirtualRegisters) Update(ctx context.Context, reg byte, modify func(current byte) byte) error {
	if err := checkVirtual(reg, 1); err != nil {
		return err
	}
	v.mx.Lock()
	defer v.mx.Unlock()
	current, err := v.read(ctx, reg)
	if err != nil {
		return err
	}
	return v.write(ctx, reg, modify(current))
}

func (v *VirtualRegisters) read(ctx context.Context, reg byte) (byte, error) {
	if err := v.waitStatus(ctx, reg, statusTxValid, false); err != nil {
		return 0, err
	}
	if err := v.writePhysical(ctx, reg, reg); err != nil {
		return 0, err
	}
	if err := v.waitStatus(ctx, reg, statusRxValid, true); err != nil {
		return 0, err
	}
	val, err := v.transport.ReadRegister(ctx, v.addr, regRead)
	if err != nil {
		return 0, &TransportError{Op: "read", Register: regRead, Virtual: reg, Err: err}
	}
	return val, nil
}

func (v *VirtualRegisters) write(ctx context.Context, reg byte, value byte) error {
	if err := v.waitStatus(ctx, reg, statusTxValid, false); err != nil {
		return err
	}
	if err := v.writePhysical(ctx, reg, reg|writeFlag); err != nil {
		return err
	}
	// the device has to consume the address before it accepts the value
	if err := v.waitStatus(ctx, reg, statusTxValid, false); err != nil {
		return err
	}
	return v.writePhysical(ctx, reg, value)
}

func (v *VirtualRegisters) writePhysical(ctx context.Context, virtual byte, value byte) error {
	err := v.transport.WriteRegister(ctx, v.addr, regWrite, value)
	if err != nil {
		return &TransportError{Op: "write", Register: regWrite, Virtual: virtual, Err: err}
	}
	return nil
}

// waitStatus polls the status register until bit is set (or cleared when set is false).
func (v *VirtualRegisters) waitStatus(ctx context.Context, virtual byte, bit byte, set bool) error {
	start := v.clock.Now()
	for polls := 1; ; polls++ {
		status, err := v.transport.ReadRegister(ctx, v.addr, regStatus)
		if err != nil {
			return &TransportError{Op: "read", Register: regStatus, Virtual: virtual, Err: err}
		}
		if (status&bit != 0) == set {
			if polls > 1 {
				v.logger.Debug("as7262 status wait done", "register", virtual, "bit", bit, "polls", polls)
			}
			return nil
		}
		if v.timeout > 0 && v.clock.Since(start) > v.timeout {
			return fmt.Errorf("%w: register %#02x status %#02x after %d polls", ErrHandshakeTimeout, virtual, status, polls)
		}
		if err := sleep(ctx, v.clock, v.pollInterval); err != nil {
			return err
		}
	}
}

func checkVirtual(start byte, length int) error {
	if int(start)+length-1 > int(maxVirtualRegister) {
		return fmt.Errorf("%w: virtual register range %#02x+%d exceeds %#02x", ErrInvalidArgument, start, length, maxVirtualRegister)
	}
	return nil
}

// sleep waits for d on clk. A non-positive d only checks ctx.
func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := clk.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
