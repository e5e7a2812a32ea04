package as7262

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]byte(`
reset: true
gain: 2
integration_time: 100
led_current: 1
indicator_led: false
main_led: true
mode: 2
`))
	require.NoError(t, err)
	assert.True(t, s.Reset)
	require.NotNil(t, s.Gain)
	assert.Equal(t, Gain16x, *s.Gain)
	require.NotNil(t, s.IntegrationTime)
	assert.Equal(t, 100, *s.IntegrationTime)
	require.NotNil(t, s.LEDCurrent)
	assert.Equal(t, LEDCurrent25mA, *s.LEDCurrent)
	assert.Nil(t, s.IndicatorCurrent)
	require.NotNil(t, s.IndicatorLED)
	assert.False(t, *s.IndicatorLED)
	require.NotNil(t, s.MainLED)
	assert.True(t, *s.MainLED)
	require.NotNil(t, s.Mode)
	assert.Equal(t, ModeContinuous, *s.Mode)
}

func TestParseSettings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		invalid bool
	}{
		{name: "unknown key", profile: "gian: 2\n"},
		{name: "bad type", profile: "gain: high\n"},
		{name: "gain out of range", profile: "gain: 4\n", invalid: true},
		{name: "integration time zero", profile: "integration_time: 0\n", invalid: true},
		{name: "integration time too long", profile: "integration_time: 256\n", invalid: true},
		{name: "mode out of range", profile: "mode: 4\n", invalid: true},
		{name: "indicator current out of range", profile: "indicator_current: -1\n", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.profile))
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			}
		})
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("integration_time: 20\n"), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	require.NotNil(t, s.IntegrationTime)
	assert.Equal(t, 20, *s.IntegrationTime)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSettings_Apply(t *testing.T) {
	sim := NewSimulator(WithRegisters(map[byte]byte{RegLEDControl: 0x01}))
	s := NewAS7262(sim, WithResetDelay(time.Millisecond))

	settings := DefaultSettings()
	mode := ModeContinuous
	settings.Mode = &mode
	require.NoError(t, settings.Apply(context.Background(), s))

	writes := sim.Writes()
	require.NotEmpty(t, writes)
	assert.Equal(t, VirtualWrite{Register: RegControlSetup, Value: 0x80}, writes[0])
	last := writes[len(writes)-1]
	assert.Equal(t, RegControlSetup, last.Register, "mode goes last")

	cfg, err := s.ReadConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Gain64x, cfg.Gain)
	assert.Equal(t, 50, cfg.IntegrationTime)
	assert.Equal(t, ModeContinuous, cfg.Mode)
	assert.False(t, cfg.IndicatorLED)
}

func TestSettings_ApplyInvalidTouchesNothing(t *testing.T) {
	sim := NewSimulator()
	s := NewAS7262(sim)
	integration := 300
	settings := Settings{Reset: true, IntegrationTime: &integration}

	err := settings.Apply(context.Background(), s)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, sim.Calls())
}
