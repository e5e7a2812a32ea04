package as7262

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/spectral"
)

// AS7262 represents the ams AS7262 visible spectral sensor.
// The zero value is not usable, create instances with NewAS7262.
//
// Methods are safe to call from several goroutines in the sense that register transactions never interleave,
// but a measurement started by one caller can be consumed by another. Keep a single logical owner.
type AS7262 struct {
	regs   *VirtualRegisters
	config AS7262Opts
	logger *slog.Logger
}

func NewAS7262(transport spectral.RegisterBus, opts ...AS7262Opt) *AS7262 {
	config := buildOpts(opts)
	return &AS7262{
		regs:   newVirtualRegisters(transport, config),
		config: config,
		logger: config.Logger,
	}
}

// Registers gives raw access to the virtual register map.
func (s *AS7262) Registers() *VirtualRegisters {
	return s.regs
}

// SoftReset restarts the sensor and blocks for the reset settle time. All register state is lost; no other
// register access is let through before the settle time elapses. When ctx is cancelled after the reset was
// written the settle time is still waited out before the error is returned.
func (s *AS7262) SoftReset(ctx context.Context) error {
	s.regs.mx.Lock()
	defer s.regs.mx.Unlock()
	err := s.regs.write(ctx, RegControlSetup, controlReset)
	if err != nil {
		return fmt.Errorf("as7262: could not write reset: %w", err)
	}
	s.logger.Debug("as7262 soft reset, waiting for device", "delay", s.config.ResetDelay)
	clk := s.config.Clock
	start := clk.Now()
	if err := sleep(ctx, clk, s.config.ResetDelay); err != nil {
		_ = sleep(context.WithoutCancel(ctx), clk, s.config.ResetDelay-clk.Since(start))
		return fmt.Errorf("as7262: reset settle interrupted: %w", err)
	}
	return nil
}

func (s *AS7262) updateField(ctx context.Context, f field, value int) error {
	if err := f.validate(value); err != nil {
		return err
	}
	err := s.regs.Update(ctx, f.reg, func(current byte) byte {
		return f.set(current, value)
	})
	if err != nil {
		return fmt.Errorf("as7262: could not set %s: %w", f.name, err)
	}
	return nil
}
