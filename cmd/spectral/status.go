package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/spectral/as7262"
	"github.com/mklimuk/spectral/cmd/spectral/console"
)

type configurationReport struct {
	as7262.Configuration `yaml:",inline"`
	ModeName             string  `yaml:"mode_name"`
	GainMultiplier       float64 `yaml:"gain_multiplier"`
	Integration          string  `yaml:"integration"`
	LEDMilliamps         float64 `yaml:"led_milliamps"`
	IndicatorMilliamps   float64 `yaml:"indicator_milliamps"`
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "print the configuration registers",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(closer)
		cfg, err := s.ReadConfiguration(ctx)
		if err != nil {
			return console.Exit(1, "could not read configuration: %s", console.Red(err))
		}
		return printConfiguration(cfg)
	},
}

func printConfiguration(cfg as7262.Configuration) error {
	enc := yaml.NewEncoder(os.Stdout)
	err := enc.Encode(configurationReport{
		Configuration:      cfg,
		ModeName:           cfg.Mode.String(),
		GainMultiplier:     cfg.Gain.Multiplier(),
		Integration:        as7262.IntegrationTime(cfg.IntegrationTime).String(),
		LEDMilliamps:       cfg.LEDCurrent.Milliamps(),
		IndicatorMilliamps: cfg.IndicatorCurrent.Milliamps(),
	})
	if err != nil {
		return err
	}
	return enc.Close()
}
