package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mklimuk/spectral/as7262"
)

const PictoThermometer = "🌡"
const PictoBulb = "💡"
const PictoStop = "🚫"
const PictoRainbow = "🌈"

var writer io.Writer
var errWriter io.Writer

func init() {
	writer = os.Stdout
	errWriter = os.Stderr
}

func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Format(err error) string {
	return fmt.Sprintf("%s: %s\n", Red("ERROR"), err.Error())
}

func Errorf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warnf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}

func Infof(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", White("..."), fmt.Sprintf(msg, args...))
}

func PInfof(picto, msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", picto, fmt.Sprintf(msg, args...))
}

func Print(msg string) {
	_, _ = fmt.Fprintln(writer, msg)
}

func Printf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}

// barWidth is the bar length of the strongest channel
const barWidth = 40

// PrintSpectrum prints one line per channel with a bar scaled to the strongest reading.
func PrintSpectrum(s as7262.Spectrum) {
	_, _ = fmt.Fprint(writer, FormatSpectrum(s))
}

func FormatSpectrum(s as7262.Spectrum) string {
	var peak float32
	for _, v := range s {
		if v > peak {
			peak = v
		}
	}
	var b strings.Builder
	for _, c := range as7262.Channels {
		v := s.Value(c)
		n := 0
		if peak > 0 && v > 0 {
			n = int(v / peak * barWidth)
		}
		_, _ = fmt.Fprintf(&b, "%-7s %3dnm %12.2f %s\n", c, c.Wavelength(), v, Channel(c, strings.Repeat("█", n)))
	}
	return b.String()
}
