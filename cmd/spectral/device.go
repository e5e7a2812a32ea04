package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/spectral"
	"github.com/mklimuk/spectral/adapter"
	"github.com/mklimuk/spectral/as7262"
	"github.com/mklimuk/spectral/cmd/spectral/console"
	"github.com/mklimuk/spectral/gobot"
	"github.com/mklimuk/spectral/i2c"
)

// the MCP2221 reports busy right after a transfer more often than the kernel drivers
const mcp2221RetryLimit = 3

// demo readings of the sim adapter, roughly a warm white LED
var simSpectrum = as7262.Spectrum{812.5, 690.25, 540.75, 430.5, 260.0, 120.25}

func commandContext(c *cli.Context) context.Context {
	return spectral.SetVerbose(c.Context, c.Bool("verbose"))
}

// openTransport returns the register bus selected by the adapter flag and a function releasing it.
func openTransport(c *cli.Context) (spectral.RegisterBus, func() error, error) {
	nop := func() error { return nil }
	switch name := c.String("adapter"); name {
	case "mcp2221":
		a := adapter.NewMCP2221(adapter.WithLogger(slog.Default()))
		return spectral.NewRegisterBus(a, spectral.WithRetryLimit(mcp2221RetryLimit)), nop, nil
	case "generic":
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, err
		}
		if speed := c.Int("speed"); speed > 0 {
			if err := bus.SetSpeed(physic.Frequency(speed) * physic.KiloHertz); err != nil {
				return nil, nil, multierr.Append(err, bus.Close())
			}
		}
		slog.Debug("bus opened", "bus", bus.String())
		return spectral.NewRegisterBus(bus), bus.Close, nil
	case "nanopi":
		npi := nanopi.NewNeoAdaptor()
		err := npi.I2cBusAdaptor.Connect()
		if err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := gobot.NewByteDataBus(npi, c.Int("bus"))
		return bus, func() error {
			return multierr.Append(bus.Close(), npi.I2cBusAdaptor.Finalize())
		}, nil
	case "sim":
		slog.Info("using simulated sensor")
		return as7262.NewSimulator(as7262.WithSpectrum(simSpectrum), as7262.WithBusyPolls(2), as7262.WithAcquisitionReads(3)), nop, nil
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", name)
	}
}

func sensorOpts(c *cli.Context) []as7262.AS7262Opt {
	opts := []as7262.AS7262Opt{
		as7262.WithAddress(byte(c.Uint("addr"))),
		as7262.WithLogger(slog.Default()),
		as7262.WithHandshakeTimeout(c.Duration("handshake-timeout")),
		as7262.WithDataReadyTimeout(c.Duration("timeout")),
	}
	if c.String("adapter") == "sim" {
		opts = append(opts, as7262.WithResetDelay(10*time.Millisecond))
	}
	return opts
}

// openSensor opens the transport, creates the driver and applies the profile when one is given.
func openSensor(c *cli.Context) (*as7262.AS7262, func() error, error) {
	transport, closer, err := openTransport(c)
	if err != nil {
		return nil, nil, console.Exit(1, "adapter initialization error: %s", console.Red(err))
	}
	s := as7262.NewAS7262(transport, sensorOpts(c)...)
	if path := c.String("profile"); path != "" {
		settings, err := as7262.LoadSettings(path)
		if err != nil {
			return nil, nil, console.Exit(1, "%s", console.Red(multierr.Append(err, closer())))
		}
		if err := settings.Apply(commandContext(c), s); err != nil {
			return nil, nil, console.Exit(1, "could not apply profile %s: %s", path, console.Red(multierr.Append(err, closer())))
		}
		slog.Debug("profile applied", "path", path)
	}
	return s, closer, nil
}

func closeSensor(closer func() error) {
	if err := closer(); err != nil {
		console.Warnf("could not close bus: %s", err)
	}
}
