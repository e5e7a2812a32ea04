package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/spectral/cmd/spectral/console"
)

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "soft reset the sensor, all configuration is lost",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("reset the sensor?")
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			if answer != console.Yes {
				return nil
			}
		}
		ctx := commandContext(c)
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(closer)
		if err := s.SoftReset(ctx); err != nil {
			return console.Exit(1, "reset error: %s", console.Red(err))
		}
		console.Infof("sensor reset")
		return nil
	},
}
