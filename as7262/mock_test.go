package as7262

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSpectralSensor_StaticValue(t *testing.T) {
	sensor := NewMockSpectralSensor(func(ctx context.Context) (Spectrum, error) {
		return Spectrum{1, 2, 3, 4, 5, 6}, nil
	})
	ctx := context.Background()

	s, err := sensor.TakeSingleMeasurement(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1), s.Value(Red))
	assert.Equal(t, float32(6), s.Value(Violet))

	s, err = sensor.ReadCalibratedValues(ctx)
	require.NoError(t, err)
	assert.Equal(t, Spectrum{1, 2, 3, 4, 5, 6}, s)
}

func TestMockSpectralSensor_LEDState(t *testing.T) {
	var sensor *MockSpectralSensor
	sensor = NewMockSpectralSensor(func(ctx context.Context) (Spectrum, error) {
		assert.True(t, sensor.LEDOn, "LED should be on while measuring")
		return Spectrum{}, nil
	})

	_, err := sensor.TakeSingleMeasurementWithLED(context.Background())
	require.NoError(t, err)
	assert.False(t, sensor.LEDOn)
}

func TestMockSpectralSensor_ErrorHandling(t *testing.T) {
	sensor := NewMockSpectralSensor(func(ctx context.Context) (Spectrum, error) {
		return Spectrum{}, fmt.Errorf("%w: sensor malfunction", ErrTimeout)
	})

	_, err := sensor.TakeSingleMeasurementWithLED(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, sensor.LEDOn)
}
