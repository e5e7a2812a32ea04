package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/mklimuk/spectral/as7262"
	"github.com/mklimuk/spectral/cmd/spectral/console"
)

type streamSensor interface {
	SetMeasurementMode(ctx context.Context, mode as7262.Mode) error
	EnableMainLED(ctx context.Context) error
	DisableMainLED(ctx context.Context) error
	ReadCalibratedValues(ctx context.Context) (as7262.Spectrum, error)
}

var streamCmd = cli.Command{
	Name:  "stream",
	Usage: "read continuously until interrupted",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "mode",
			Usage: "continuous mode: 0 (VBGY), 1 (GYOR) or 2 (all channels)",
			Value: int(as7262.ModeContinuous),
		},
		&cli.BoolFlag{
			Name:  "led",
			Usage: "keep the main LED on while streaming",
			Value: true,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output format: text or yaml",
			Value:   "text",
		},
	},
	Action: func(c *cli.Context) error {
		mode := as7262.Mode(c.Int("mode"))
		if mode == as7262.ModeOneShot {
			return console.Exit(1, "mode %s does not stream, use measure", mode)
		}
		ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
		defer stop()
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(closer)
		printSpectrum, err := spectrumPrinter(c.String("format"), os.Stdout)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		err = stream(ctx, s, mode, c.Bool("led"), printSpectrum)
		if err != nil {
			return console.Exit(1, "stream error: %s", console.Red(err))
		}
		console.PInfof(console.PictoStop, "stream stopped, sensor idle")
		return nil
	},
}

// stream reads results until ctx is done. On the way out the sensor is always put back into one-shot mode and
// the main LED switched off, errors of both steps are reported.
func stream(ctx context.Context, s streamSensor, mode as7262.Mode, led bool, out func(as7262.Spectrum) error) (err error) {
	defer func() {
		shutdown := context.WithoutCancel(ctx)
		err = multierr.Combine(err, s.SetMeasurementMode(shutdown, as7262.ModeOneShot), s.DisableMainLED(shutdown))
	}()
	if led {
		if err := s.EnableMainLED(ctx); err != nil {
			return err
		}
	}
	if err := s.SetMeasurementMode(ctx, mode); err != nil {
		return err
	}
	slog.Debug("streaming", "mode", mode, "led", led)
	for readings := 0; ; readings++ {
		if ctx.Err() != nil {
			slog.Debug("stream interrupted", "readings", readings)
			return nil
		}
		spectrum, err := s.ReadCalibratedValues(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Debug("stream interrupted", "readings", readings)
				return nil
			}
			return err
		}
		if err := out(spectrum); err != nil {
			return err
		}
	}
}
