package as7262

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
)

// Channel indexes a Spectrum.
type Channel int

const (
	Red Channel = iota
	Orange
	Yellow
	Green
	Blue
	Violet
)

// Channels lists all channels in Spectrum order.
var Channels = [...]Channel{Red, Orange, Yellow, Green, Blue, Violet}

var channelNames = [...]string{"red", "orange", "yellow", "green", "blue", "violet"}

// channel peak wavelengths in nm
var channelWavelengths = [...]int{610, 600, 570, 550, 500, 450}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// Wavelength returns the channel peak wavelength in nanometers.
func (c Channel) Wavelength() int {
	if c < 0 || int(c) >= len(channelWavelengths) {
		return 0
	}
	return channelWavelengths[c]
}

// Spectrum holds calibrated channel readings in R,O,Y,G,B,V order.
type Spectrum [6]float32

func (s Spectrum) Value(c Channel) float32 {
	return s[c]
}

// Map returns readings keyed by channel name.
func (s Spectrum) Map() map[string]float32 {
	res := make(map[string]float32, len(s))
	for _, c := range Channels {
		res[c.String()] = s[c]
	}
	return res
}

// SpectralSensor is implemented by AS7262 and by MockSpectralSensor.
type SpectralSensor interface {
	ReadCalibratedValues(ctx context.Context) (Spectrum, error)
	TakeSingleMeasurement(ctx context.Context) (Spectrum, error)
	TakeSingleMeasurementWithLED(ctx context.Context) (Spectrum, error)
}

var _ SpectralSensor = &AS7262{}

// WaitForDataReady polls the DATA_RDY bit of the control setup register until it is set. It fails with ErrTimeout
// once more than timeout elapsed; a non-positive timeout uses the configured default (10s).
// Something has to have started an acquisition first (see SetMeasurementMode).
func (s *AS7262) WaitForDataReady(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.config.DataReadyTimeout
	}
	clk := s.config.Clock
	start := clk.Now()
	for polls := 1; ; polls++ {
		control, err := s.regs.Read(ctx, RegControlSetup)
		if err != nil {
			return fmt.Errorf("as7262: could not read data ready state: %w", err)
		}
		if control&controlDataReady != 0 {
			s.logger.Debug("as7262 data ready", "polls", polls, "elapsed", clk.Since(start))
			return nil
		}
		if elapsed := clk.Since(start); elapsed > timeout {
			return fmt.Errorf("%w: no data available after %s (%d polls), was a measurement mode set?", ErrTimeout, elapsed, polls)
		}
		if err := sleep(ctx, clk, s.config.DataReadyPollInterval); err != nil {
			return err
		}
	}
}

// ReadCalibratedValues waits for data and reads the calibrated channel block.
// It is the building block of continuous acquisition loops (modes 0-2).
func (s *AS7262) ReadCalibratedValues(ctx context.Context) (Spectrum, error) {
	if err := s.WaitForDataReady(ctx, s.config.DataReadyTimeout); err != nil {
		return Spectrum{}, err
	}
	block := make([]byte, channelBlockSize)
	if err := s.regs.ReadBlock(ctx, RegChannelData, block); err != nil {
		return Spectrum{}, fmt.Errorf("as7262: could not read channel data: %w", err)
	}
	return decodeSpectrum(block), nil
}

// TakeSingleMeasurement triggers a one-shot acquisition and returns its result.
func (s *AS7262) TakeSingleMeasurement(ctx context.Context) (Spectrum, error) {
	if err := s.SetMeasurementMode(ctx, ModeOneShot); err != nil {
		return Spectrum{}, err
	}
	return s.ReadCalibratedValues(ctx)
}

// TakeSingleMeasurementWithLED lights the main LED for the duration of a one-shot acquisition.
// The LED is switched off on every exit path, also when ctx is already cancelled.
func (s *AS7262) TakeSingleMeasurementWithLED(ctx context.Context) (Spectrum, error) {
	var spectrum Spectrum
	err := s.EnableMainLED(ctx)
	if err == nil {
		spectrum, err = s.TakeSingleMeasurement(ctx)
	}
	err = multierr.Append(err, s.DisableMainLED(context.WithoutCancel(ctx)))
	if err != nil {
		return Spectrum{}, err
	}
	return spectrum, nil
}

// TemperatureCelsius returns the raw device temperature.
func (s *AS7262) TemperatureCelsius(ctx context.Context) (int, error) {
	temp, err := s.regs.Read(ctx, RegTemperature)
	if err != nil {
		return 0, fmt.Errorf("as7262: could not read temperature: %w", err)
	}
	return int(temp), nil
}

func (s *AS7262) TemperatureFahrenheit(ctx context.Context) (float64, error) {
	celsius, err := s.TemperatureCelsius(ctx)
	if err != nil {
		return 0, err
	}
	return float64(celsius)*1.8 + 32, nil
}

// decodeSpectrum turns the V,B,G,Y,O,R wire block into R,O,Y,G,B,V order.
func decodeSpectrum(block []byte) Spectrum {
	var res Spectrum
	for i := range res {
		res[len(res)-1-i] = decodeFloat(block[i*4 : i*4+4])
	}
	return res
}

// decodeFloat decodes a big-endian IEEE-754 single precision value.
func decodeFloat(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

func encodeFloat(b []byte, v float32) {
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
}
