package console

import (
	"github.com/fatih/color"

	"github.com/mklimuk/spectral/as7262"
)

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

// approximate sRGB of the channel peak wavelengths
var channelColors = map[as7262.Channel]*color.Color{
	as7262.Red:    color.RGB(255, 40, 0),
	as7262.Orange: color.RGB(255, 120, 0),
	as7262.Yellow: color.RGB(225, 255, 0),
	as7262.Green:  color.RGB(160, 255, 0),
	as7262.Blue:   color.RGB(0, 255, 255),
	as7262.Violet: color.RGB(100, 0, 255),
}

// Channel renders a in the color of channel c.
func Channel(c as7262.Channel, a ...interface{}) string {
	col, ok := channelColors[c]
	if !ok {
		return White(a...)
	}
	return col.Sprint(a...)
}
