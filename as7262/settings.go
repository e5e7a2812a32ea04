package as7262

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is a device profile. Nil fields are left untouched by Apply.
//
// Example profile:
//
//	reset: true
//	gain: 3
//	integration_time: 50
//	indicator_led: false
//	mode: 2
type Settings struct {
	Reset            bool              `yaml:"reset"`
	Gain             *Gain             `yaml:"gain,omitempty"`
	IntegrationTime  *int              `yaml:"integration_time,omitempty"`
	LEDCurrent       *LEDCurrent       `yaml:"led_current,omitempty"`
	IndicatorCurrent *IndicatorCurrent `yaml:"indicator_current,omitempty"`
	IndicatorLED     *bool             `yaml:"indicator_led,omitempty"`
	MainLED          *bool             `yaml:"main_led,omitempty"`
	Mode             *Mode             `yaml:"mode,omitempty"`
}

// DefaultSettings resets the device, selects 64x gain with a ~140ms integration time and switches the indicator
// LED off, which sometimes comes on after a reset.
func DefaultSettings() Settings {
	gain := Gain64x
	integration := 50
	indicator := false
	return Settings{
		Reset:           true,
		Gain:            &gain,
		IntegrationTime: &integration,
		IndicatorLED:    &indicator,
	}
}

func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("as7262: could not read settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes a yaml profile. Unknown keys are rejected.
func ParseSettings(data []byte) (Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("as7262: could not decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.Gain != nil {
		if err := fieldGain.validate(int(*s.Gain)); err != nil {
			return err
		}
	}
	if s.IntegrationTime != nil && (*s.IntegrationTime < 1 || *s.IntegrationTime > 255) {
		return fmt.Errorf("%w: integration time requires a value of 1-255, got %d", ErrInvalidArgument, *s.IntegrationTime)
	}
	if s.LEDCurrent != nil {
		if err := fieldMainLEDCurrent.validate(int(*s.LEDCurrent)); err != nil {
			return err
		}
	}
	if s.IndicatorCurrent != nil {
		if err := fieldIndicatorCurrent.validate(int(*s.IndicatorCurrent)); err != nil {
			return err
		}
	}
	if s.Mode != nil {
		if err := fieldMode.validate(int(*s.Mode)); err != nil {
			return err
		}
	}
	return nil
}

// Apply validates the whole profile before touching the device, then resets (if requested) and writes every set
// field. The mode goes last since it may start an acquisition.
func (s Settings) Apply(ctx context.Context, dev *AS7262) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Reset {
		if err := dev.SoftReset(ctx); err != nil {
			return err
		}
	}
	if s.Gain != nil {
		if err := dev.SetGain(ctx, *s.Gain); err != nil {
			return err
		}
	}
	if s.IntegrationTime != nil {
		if err := dev.SetIntegrationTime(ctx, *s.IntegrationTime); err != nil {
			return err
		}
	}
	if s.LEDCurrent != nil {
		if err := dev.SetLEDCurrent(ctx, *s.LEDCurrent); err != nil {
			return err
		}
	}
	if s.IndicatorCurrent != nil {
		if err := dev.SetIndicatorCurrent(ctx, *s.IndicatorCurrent); err != nil {
			return err
		}
	}
	if s.IndicatorLED != nil {
		if err := switchLED(ctx, *s.IndicatorLED, dev.EnableIndicatorLED, dev.DisableIndicatorLED); err != nil {
			return err
		}
	}
	if s.MainLED != nil {
		if err := switchLED(ctx, *s.MainLED, dev.EnableMainLED, dev.DisableMainLED); err != nil {
			return err
		}
	}
	if s.Mode != nil {
		if err := dev.SetMeasurementMode(ctx, *s.Mode); err != nil {
			return err
		}
	}
	return nil
}

func switchLED(ctx context.Context, on bool, enable, disable func(context.Context) error) error {
	if on {
		return enable(ctx)
	}
	return disable(ctx)
}
