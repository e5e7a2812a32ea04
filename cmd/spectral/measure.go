package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/spectral/as7262"
	"github.com/mklimuk/spectral/cmd/spectral/console"
)

type reading struct {
	Time     time.Time          `yaml:"time"`
	Spectrum map[string]float32 `yaml:"spectrum"`
}

var measureCmd = cli.Command{
	Name:    "measure",
	Aliases: []string{"m"},
	Usage:   "take one-shot measurements",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "led",
			Usage: "light the main LED during the measurement",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Value:   1,
		},
		&cli.DurationFlag{
			Name:  "interval",
			Value: time.Second,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output format: text or yaml",
			Value:   "text",
		},
	},
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(closer)
		printSpectrum, err := spectrumPrinter(c.String("format"), os.Stdout)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		err = measure(ctx, s, c.Bool("led"), c.Int("count"), c.Duration("interval"), printSpectrum)
		if err != nil {
			return console.Exit(1, "measurement error: %s", console.Red(err))
		}
		return nil
	},
}

func measure(ctx context.Context, s as7262.SpectralSensor, led bool, count int, interval time.Duration, printSpectrum func(as7262.Spectrum) error) error {
	for i := 0; i < count; i++ {
		if i > 0 {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		var spectrum as7262.Spectrum
		var err error
		if led {
			spectrum, err = s.TakeSingleMeasurementWithLED(ctx)
		} else {
			spectrum, err = s.TakeSingleMeasurement(ctx)
		}
		if err != nil {
			return err
		}
		if err := printSpectrum(spectrum); err != nil {
			return err
		}
	}
	return nil
}

func spectrumPrinter(format string, w io.Writer) (func(as7262.Spectrum) error, error) {
	switch format {
	case "text":
		return func(s as7262.Spectrum) error {
			_, err := fmt.Fprintf(w, "%s %s\n%s", console.PictoRainbow, console.White(time.Now().Format(time.DateTime)), console.FormatSpectrum(s))
			return err
		}, nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		return func(s as7262.Spectrum) error {
			return enc.Encode(reading{Time: time.Now(), Spectrum: s.Map()})
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
