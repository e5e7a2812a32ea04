package console

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/spectral/as7262"
)

func TestFormatSpectrum(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	out := FormatSpectrum(as7262.Spectrum{100, 50, 0, 25, 10, 0})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "red     610nm       100.00"))
	assert.Equal(t, barWidth, strings.Count(lines[0], "█"))
	assert.Equal(t, barWidth/2, strings.Count(lines[1], "█"))
	assert.Zero(t, strings.Count(lines[2], "█"))
	assert.True(t, strings.HasPrefix(lines[5], "violet  450nm"))
}

func TestFormatSpectrum_AllZero(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	out := FormatSpectrum(as7262.Spectrum{})
	assert.NotContains(t, out, "█")
}
