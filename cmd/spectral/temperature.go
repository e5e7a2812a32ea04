package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/spectral/cmd/spectral/console"
)

var temperatureCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "read the device temperature",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(closer)
		celsius, err := s.TemperatureCelsius(ctx)
		if err != nil {
			return console.Exit(1, "error getting temperature read: %s", console.Red(err))
		}
		fahrenheit, err := s.TemperatureFahrenheit(ctx)
		if err != nil {
			return console.Exit(1, "error getting temperature read: %s", console.Red(err))
		}
		console.Printf("%s  %s°C / %s°F\n", console.PictoThermometer, console.White(celsius), console.White(fahrenheit))
		return nil
	},
}
