package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/spectral/adapter"
	"github.com/mklimuk/spectral/cmd/spectral/console"
)

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "USB adapter utilities",
	Subcommands: cli.Commands{
		&usbLsCmd,
		&usbDetectCmd,
		&usbStatusCmd,
		&usbReleaseCmd,
		&usbSpeedCmd,
	},
}

var usbLsCmd = cli.Command{
	Name: "ls",
	Action: func(c *cli.Context) error {
		// List all HID devices
		devices := hid.Enumerate(0, 0)

		w := tabwriter.NewWriter(os.Stdout, 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")

		for _, dev := range devices {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		_ = w.Flush()
		return nil
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "list connected MCP2221 adapters",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(os.Stdout, 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "ID\tVENDOR\tPRODUCT\tSERIAL\tPATH\n")
		for i, dev := range adapter.Enumerate() {
			_, _ = fmt.Fprintf(w, "%d\t%#x\t%#x\t%s\t%s\n", i, dev.VendorID, dev.ProductID, dev.Serial, dev.Path)
		}
		_ = w.Flush()
		return nil
	},
}

var adapterIDFlag = &cli.IntFlag{
	Name:  "id",
	Usage: "adapter id as listed by detect, needed with more than one adapter",
}

func mcp2221FromFlags(c *cli.Context) *adapter.MCP2221 {
	return adapter.NewMCP2221(adapter.WithOpener(adapter.HIDOpener(c.Int("id"))))
}

var usbStatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the MCP2221 I2C engine status",
	Flags: []cli.Flag{adapterIDFlag},
	Action: func(c *cli.Context) error {
		status, err := mcp2221FromFlags(c).Status(commandContext(c))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		out, err := yaml.Marshal(status)
		if err != nil {
			return err
		}
		console.Printf("%s", out)
		return nil
	},
}

var usbReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current I2C transfer and free the bus",
	Flags: []cli.Flag{adapterIDFlag},
	Action: func(c *cli.Context) error {
		status, err := mcp2221FromFlags(c).ReleaseBus(commandContext(c))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		console.Infof("bus released, %d bytes pending in the engine buffer", status.I2CDataBufferCounter)
		return nil
	},
}

var usbSpeedCmd = cli.Command{
	Name:      "speed",
	Usage:     "set the I2C clock of the adapter",
	ArgsUsage: "<kHz>",
	Flags:     []cli.Flag{adapterIDFlag},
	Action: func(c *cli.Context) error {
		var khz int
		if _, err := fmt.Sscanf(c.Args().First(), "%d", &khz); err != nil {
			return console.Exit(1, "invalid speed %q", c.Args().First())
		}
		if err := mcp2221FromFlags(c).SetSpeed(commandContext(c), khz*1000); err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		console.Infof("i2c speed set to %dkHz", khz)
		return nil
	},
}
