package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/spectral/as7262"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := newApp()
	err := app.Run(args)
	if err != nil {
		log.Printf("unexpected error: %v", err)
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		return 1
	}
	return 0
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "spectral"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "AS7262 visible spectrum sensor cli"
	// exit codes are handled by run
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Usage:   "bus adapter: mcp2221, generic (periph), nanopi (gobot) or sim",
			Value:   "mcp2221",
			EnvVars: []string{"SPECTRAL_ADAPTER"},
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"d"},
			Usage:   "bus name for the generic adapter, e.g. /dev/i2c-1 (empty opens the first bus)",
			EnvVars: []string{"SPECTRAL_DEVICE"},
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "bus number for the nanopi adapter",
			Value: 0,
		},
		&cli.UintFlag{
			Name:    "addr",
			Usage:   "sensor I2C address",
			Value:   as7262.DefaultAddress,
			EnvVars: []string{"SPECTRAL_ADDR"},
		},
		&cli.IntFlag{
			Name:  "speed",
			Usage: "I2C bus speed in kHz (generic adapter), 0 keeps the current one",
		},
		&cli.DurationFlag{
			Name:  "handshake-timeout",
			Usage: "bound for a single virtual register handshake wait, 0 waits forever",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "data ready timeout",
			Value: 10 * time.Second,
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "yaml settings profile applied after opening the sensor",
			EnvVars: []string{"SPECTRAL_PROFILE"},
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&measureCmd,
		&streamCmd,
		&temperatureCmd,
		&configureCmd,
		&statusCmd,
		&resetCmd,
		&usbCmd,
	}
	return app
}
