package as7262

import (
	"context"
	"fmt"
	"time"
)

// Mode selects which channels are sampled and whether sampling repeats.
type Mode int

const (
	// ModeVBGY continuously samples the V, B, G and Y channels.
	ModeVBGY Mode = iota
	// ModeGYOR continuously samples the G, Y, O and R channels.
	ModeGYOR
	// ModeContinuous continuously samples all channels.
	ModeContinuous
	// ModeOneShot samples all channels once and stops.
	ModeOneShot
)

func (m Mode) String() string {
	switch m {
	case ModeVBGY:
		return "continuous VBGY"
	case ModeGYOR:
		return "continuous GYOR"
	case ModeContinuous:
		return "continuous all"
	case ModeOneShot:
		return "one-shot all"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Gain is the channel amplifier setting.
type Gain int

const (
	Gain1x Gain = iota
	Gain3_7x
	Gain16x
	Gain64x
)

var gainMultipliers = [...]float64{1, 3.7, 16, 64}

// Multiplier returns the amplification factor, 0 for an unknown setting.
func (g Gain) Multiplier() float64 {
	if g < 0 || int(g) >= len(gainMultipliers) {
		return 0
	}
	return gainMultipliers[g]
}

// LEDCurrent is the drive current of the main illumination LED.
type LEDCurrent int

const (
	LEDCurrent12_5mA LEDCurrent = iota
	LEDCurrent25mA
	LEDCurrent50mA
	LEDCurrent100mA
)

var ledCurrents = [...]float64{12.5, 25, 50, 100}

func (c LEDCurrent) Milliamps() float64 {
	if c < 0 || int(c) >= len(ledCurrents) {
		return 0
	}
	return ledCurrents[c]
}

// IndicatorCurrent is the drive current of the indicator LED.
type IndicatorCurrent int

const (
	IndicatorCurrent1mA IndicatorCurrent = iota
	IndicatorCurrent2mA
	IndicatorCurrent4mA
	IndicatorCurrent8mA
)

func (c IndicatorCurrent) Milliamps() float64 {
	if c < 0 || c > IndicatorCurrent8mA {
		return 0
	}
	return float64(int(1) << c)
}

// integrationStep is the duration of one integration time unit.
const integrationStep = 2800 * time.Microsecond

// IntegrationTime converts an integration time register value to a duration.
func IntegrationTime(value int) time.Duration {
	return time.Duration(value) * integrationStep
}

// Configuration is a decoded snapshot of the configuration registers.
type Configuration struct {
	Mode             Mode             `yaml:"mode"`
	Gain             Gain             `yaml:"gain"`
	DataReady        bool             `yaml:"data_ready"`
	IntegrationTime  int              `yaml:"integration_time"`
	MainLED          bool             `yaml:"main_led"`
	LEDCurrent       LEDCurrent       `yaml:"led_current"`
	IndicatorLED     bool             `yaml:"indicator_led"`
	IndicatorCurrent IndicatorCurrent `yaml:"indicator_current"`
}

// SetMeasurementMode changes the acquisition mode. Writing ModeOneShot starts a single acquisition.
func (s *AS7262) SetMeasurementMode(ctx context.Context, mode Mode) error {
	return s.updateField(ctx, fieldMode, int(mode))
}

func (s *AS7262) SetGain(ctx context.Context, gain Gain) error {
	return s.updateField(ctx, fieldGain, int(gain))
}

// SetIntegrationTime accepts 1-255; the effective integration time is value * 2.8ms.
// Modes ModeVBGY and ModeGYOR take one integration time per result, the all-channel modes take two.
func (s *AS7262) SetIntegrationTime(ctx context.Context, value int) error {
	if value < 1 || value > 255 {
		return fmt.Errorf("%w: integration time requires a value of 1-255, got %d", ErrInvalidArgument, value)
	}
	err := s.regs.Write(ctx, RegIntegrationTime, byte(value))
	if err != nil {
		return fmt.Errorf("as7262: could not set integration time: %w", err)
	}
	return nil
}

func (s *AS7262) EnableMainLED(ctx context.Context) error {
	return s.updateField(ctx, fieldMainLEDEnable, 1)
}

func (s *AS7262) DisableMainLED(ctx context.Context) error {
	return s.updateField(ctx, fieldMainLEDEnable, 0)
}

func (s *AS7262) EnableIndicatorLED(ctx context.Context) error {
	return s.updateField(ctx, fieldIndicatorEnable, 1)
}

func (s *AS7262) DisableIndicatorLED(ctx context.Context) error {
	return s.updateField(ctx, fieldIndicatorEnable, 0)
}

func (s *AS7262) SetIndicatorCurrent(ctx context.Context, current IndicatorCurrent) error {
	return s.updateField(ctx, fieldIndicatorCurrent, int(current))
}

// SetLEDCurrent sets the main LED drive current (bits 6-7 of the LED control register).
func (s *AS7262) SetLEDCurrent(ctx context.Context, current LEDCurrent) error {
	return s.updateField(ctx, fieldMainLEDCurrent, int(current))
}

// ReadConfiguration reads back the control setup, integration time and LED control registers.
func (s *AS7262) ReadConfiguration(ctx context.Context) (Configuration, error) {
	var cfg Configuration
	control, err := s.regs.Read(ctx, RegControlSetup)
	if err != nil {
		return cfg, fmt.Errorf("as7262: could not read control setup: %w", err)
	}
	integration, err := s.regs.Read(ctx, RegIntegrationTime)
	if err != nil {
		return cfg, fmt.Errorf("as7262: could not read integration time: %w", err)
	}
	led, err := s.regs.Read(ctx, RegLEDControl)
	if err != nil {
		return cfg, fmt.Errorf("as7262: could not read led control: %w", err)
	}
	cfg.Mode = Mode(fieldMode.get(control))
	cfg.Gain = Gain(fieldGain.get(control))
	cfg.DataReady = control&controlDataReady != 0
	cfg.IntegrationTime = int(integration)
	cfg.MainLED = fieldMainLEDEnable.get(led) == 1
	cfg.LEDCurrent = LEDCurrent(fieldMainLEDCurrent.get(led))
	cfg.IndicatorLED = fieldIndicatorEnable.get(led) == 1
	cfg.IndicatorCurrent = IndicatorCurrent(fieldIndicatorCurrent.get(led))
	return cfg, nil
}
