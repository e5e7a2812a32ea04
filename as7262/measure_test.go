package as7262

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDecodeFloat(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		expected float32
	}{
		{"pi", []byte{0x40, 0x48, 0xF5, 0xC3}, 3.14},
		{"negative", []byte{0xC0, 0x20, 0x00, 0x00}, -2.5},
		{"zero", []byte{0x00, 0x00, 0x00, 0x00}, 0},
		{"subnormal", []byte{0x00, 0x00, 0x00, 0x01}, math.SmallestNonzeroFloat32},
		{"max", []byte{0x7F, 0x7F, 0xFF, 0xFF}, math.MaxFloat32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decodeFloat(tt.raw))
			buf := make([]byte, 4)
			encodeFloat(buf, tt.expected)
			assert.Equal(t, tt.raw, buf)
		})
	}
}

func channelBlock(values ...float32) map[byte]byte {
	regs := make(map[byte]byte, len(values)*4)
	buf := make([]byte, 4)
	for i, v := range values {
		encodeFloat(buf, v)
		for j, b := range buf {
			regs[RegChannelData+byte(i*4+j)] = b
		}
	}
	return regs
}

func TestAS7262_ReadCalibratedValuesOrder(t *testing.T) {
	regs := channelBlock(1, 2, 3, 4, 5, 6)
	regs[RegControlSetup] = controlDataReady
	s := NewAS7262(NewRegisterFile(WithRegisters(regs)))

	spectrum, err := s.ReadCalibratedValues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Spectrum{6, 5, 4, 3, 2, 1}, spectrum)
	assert.Equal(t, float32(6), spectrum.Value(Red))
	assert.Equal(t, float32(1), spectrum.Value(Violet))
}

func TestAS7262_WaitForDataReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		sim := NewRegisterFile(WithRegisters(map[byte]byte{RegControlSetup: 0x0E}))
		s := NewAS7262(sim)

		require.NoError(t, s.WaitForDataReady(context.Background(), time.Second))
	})

	t.Run("timeout on mock clock", func(t *testing.T) {
		mockClock := clock.NewMock()
		reads := 0
		sim := NewRegisterFile(WithReadHook(func(register byte) {
			if register == regRead {
				reads++
				mockClock.Add(50 * time.Millisecond)
			}
		}))
		s := NewAS7262(sim, WithClock(mockClock), WithDataReadyPollInterval(0))

		start := mockClock.Now()
		err := s.WaitForDataReady(context.Background(), 200*time.Millisecond)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Contains(t, err.Error(), "was a measurement mode set?")
		assert.GreaterOrEqual(t, mockClock.Since(start), 200*time.Millisecond)
		assert.Equal(t, 5, reads)
	})

	t.Run("timeout on wall clock", func(t *testing.T) {
		s := NewAS7262(NewRegisterFile(), WithDataReadyPollInterval(5*time.Millisecond))

		start := time.Now()
		err := s.WaitForDataReady(context.Background(), 50*time.Millisecond)
		elapsed := time.Since(start)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
		assert.Less(t, elapsed, time.Second)
	})

	t.Run("default timeout", func(t *testing.T) {
		s := NewAS7262(NewRegisterFile(), WithDataReadyTimeout(20*time.Millisecond), WithDataReadyPollInterval(time.Millisecond))

		assert.ErrorIs(t, s.WaitForDataReady(context.Background(), 0), ErrTimeout)
	})

	t.Run("cancelled", func(t *testing.T) {
		s := NewAS7262(NewRegisterFile(), WithDataReadyPollInterval(time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, s.WaitForDataReady(ctx, time.Minute), context.DeadlineExceeded)
	})
}

func TestAS7262_TakeSingleMeasurement(t *testing.T) {
	expected := Spectrum{10.5, 20, 30, 40, 50, 60.25}
	sim := NewSimulator(WithSpectrum(expected), WithAcquisitionReads(2))
	s := NewAS7262(sim, WithDataReadyPollInterval(0))

	spectrum, err := s.TakeSingleMeasurement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, spectrum)
	assert.Equal(t, ModeOneShot, Mode(fieldMode.get(sim.Register(RegControlSetup))))
	// result consumed, nothing pending
	assert.Zero(t, sim.Register(RegControlSetup)&controlDataReady)
}

func TestAS7262_ContinuousAcquisition(t *testing.T) {
	sim := NewSimulator(WithSpectrum(Spectrum{1, 1, 1, 1, 1, 1}))
	s := NewAS7262(sim, WithDataReadyPollInterval(0))
	ctx := context.Background()

	require.NoError(t, s.SetMeasurementMode(ctx, ModeContinuous))
	first, err := s.ReadCalibratedValues(ctx)
	require.NoError(t, err)
	assert.Equal(t, Spectrum{1, 1, 1, 1, 1, 1}, first)

	sim.SetSpectrum(Spectrum{2, 2, 2, 2, 2, 2})
	second, err := s.ReadCalibratedValues(ctx)
	require.NoError(t, err)
	assert.Equal(t, Spectrum{2, 2, 2, 2, 2, 2}, second)
}

func TestAS7262_OneShotIsNotRepeated(t *testing.T) {
	sim := NewSimulator()
	s := NewAS7262(sim, WithDataReadyTimeout(20*time.Millisecond), WithDataReadyPollInterval(time.Millisecond))
	ctx := context.Background()

	_, err := s.TakeSingleMeasurement(ctx)
	require.NoError(t, err)
	_, err = s.ReadCalibratedValues(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAS7262_TakeSingleMeasurementWithLED(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		sim := NewSimulator(WithSpectrum(Spectrum{1, 2, 3, 4, 5, 6}))
		s := NewAS7262(sim, WithDataReadyPollInterval(0))

		spectrum, err := s.TakeSingleMeasurementWithLED(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Spectrum{1, 2, 3, 4, 5, 6}, spectrum)
		assert.Zero(t, sim.Register(RegLEDControl)&0x08)

		var led []byte
		for _, w := range sim.Writes() {
			if w.Register == RegLEDControl {
				led = append(led, w.Value)
			}
		}
		assert.Equal(t, []byte{0x08, 0x00}, led)
	})

	t.Run("timeout turns the led off", func(t *testing.T) {
		sim := NewSimulator(WithAcquisitionReads(-1))
		s := NewAS7262(sim, WithDataReadyTimeout(20*time.Millisecond), WithDataReadyPollInterval(time.Millisecond))

		_, err := s.TakeSingleMeasurementWithLED(context.Background())
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Zero(t, sim.Register(RegLEDControl)&0x08)
	})

	t.Run("cancelled context turns the led off", func(t *testing.T) {
		sim := NewSimulator(WithAcquisitionReads(-1))
		s := NewAS7262(sim, WithDataReadyPollInterval(time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := s.TakeSingleMeasurementWithLED(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Zero(t, sim.Register(RegLEDControl)&0x08)
	})

	t.Run("both errors reported", func(t *testing.T) {
		sim := NewSimulator(WithFault(func(op string, register byte) error {
			if op == "write" {
				return ErrSimulatedFault
			}
			return nil
		}))
		s := NewAS7262(sim)

		_, err := s.TakeSingleMeasurementWithLED(context.Background())
		assert.ErrorIs(t, err, ErrSimulatedFault)
		assert.Len(t, multierr.Errors(err), 2)
	})
}

func TestAS7262_Temperature(t *testing.T) {
	s := NewAS7262(NewSimulator(WithTemperature(30)))
	ctx := context.Background()

	c, err := s.TemperatureCelsius(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, c)

	f, err := s.TemperatureFahrenheit(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 86.0, f, 1e-9)
}

func TestSpectrum_Map(t *testing.T) {
	m := Spectrum{1, 2, 3, 4, 5, 6}.Map()
	assert.Equal(t, map[string]float32{
		"red": 1, "orange": 2, "yellow": 3, "green": 4, "blue": 5, "violet": 6,
	}, m)
	assert.Equal(t, 610, Red.Wavelength())
	assert.Equal(t, 450, Violet.Wavelength())
	assert.Equal(t, "Channel(6)", Channel(6).String())
}
