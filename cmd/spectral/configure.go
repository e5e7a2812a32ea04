package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/spectral/as7262"
	"github.com/mklimuk/spectral/cmd/spectral/console"
)

var configureCmd = cli.Command{
	Name:    "configure",
	Aliases: []string{"cfg"},
	Usage:   "write configuration registers, unset flags are left untouched",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "reset", Usage: "soft reset before applying the other settings"},
		&cli.BoolFlag{Name: "setup", Usage: "apply the default setup: reset, 64x gain, integration time 50, indicator off"},
		&cli.IntFlag{Name: "gain", Usage: "0 (1x), 1 (3.7x), 2 (16x) or 3 (64x)"},
		&cli.IntFlag{Name: "integration-time", Usage: "1-255, in 2.8ms steps"},
		&cli.IntFlag{Name: "mode", Usage: "0 (VBGY), 1 (GYOR), 2 (all) or 3 (one-shot)"},
		&cli.IntFlag{Name: "led-current", Usage: "0 (12.5mA), 1 (25mA), 2 (50mA) or 3 (100mA)"},
		&cli.IntFlag{Name: "indicator-current", Usage: "0 (1mA), 1 (2mA), 2 (4mA) or 3 (8mA)"},
		&cli.BoolFlag{Name: "indicator-led", Usage: "switch the indicator LED"},
		&cli.BoolFlag{Name: "main-led", Usage: "switch the main LED"},
	},
	Action: func(c *cli.Context) error {
		settings := settingsFromFlags(c)
		if err := settings.Validate(); err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		ctx := commandContext(c)
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(closer)
		if err := settings.Apply(ctx, s); err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		cfg, err := s.ReadConfiguration(ctx)
		if err != nil {
			return console.Exit(1, "could not read back configuration: %s", console.Red(err))
		}
		return printConfiguration(cfg)
	},
}

func settingsFromFlags(c *cli.Context) as7262.Settings {
	var settings as7262.Settings
	if c.Bool("setup") {
		settings = as7262.DefaultSettings()
	}
	if c.IsSet("reset") {
		settings.Reset = c.Bool("reset")
	}
	if c.IsSet("gain") {
		gain := as7262.Gain(c.Int("gain"))
		settings.Gain = &gain
	}
	if c.IsSet("integration-time") {
		t := c.Int("integration-time")
		settings.IntegrationTime = &t
	}
	if c.IsSet("mode") {
		mode := as7262.Mode(c.Int("mode"))
		settings.Mode = &mode
	}
	if c.IsSet("led-current") {
		current := as7262.LEDCurrent(c.Int("led-current"))
		settings.LEDCurrent = &current
	}
	if c.IsSet("indicator-current") {
		current := as7262.IndicatorCurrent(c.Int("indicator-current"))
		settings.IndicatorCurrent = &current
	}
	if c.IsSet("indicator-led") {
		on := c.Bool("indicator-led")
		settings.IndicatorLED = &on
	}
	if c.IsSet("main-led") {
		on := c.Bool("main-led")
		settings.MainLED = &on
	}
	return settings
}
