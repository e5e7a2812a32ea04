package as7262

import (
	"context"
)

// SpectrumBehaviorFunc produces a spectrum or an error.
type SpectrumBehaviorFunc func(ctx context.Context) (Spectrum, error)

// MockSpectralSensor is a mock implementation of SpectralSensor that uses a behavior function
// to produce results without requiring any hardware.
type MockSpectralSensor struct {
	behavior SpectrumBehaviorFunc
	// LEDOn reports whether the last call was TakeSingleMeasurementWithLED and it has not returned yet.
	LEDOn bool
}

// NewMockSpectralSensor creates a new mock spectral sensor. The behavior function is called by every measurement
// method.
//
// Example usage:
//
//	sensor := NewMockSpectralSensor(func(ctx context.Context) (Spectrum, error) {
//		return Spectrum{10, 20, 30, 40, 50, 60}, nil
//	})
func NewMockSpectralSensor(behavior SpectrumBehaviorFunc) *MockSpectralSensor {
	return &MockSpectralSensor{
		behavior: behavior,
	}
}

var _ SpectralSensor = &MockSpectralSensor{}

func (m *MockSpectralSensor) ReadCalibratedValues(ctx context.Context) (Spectrum, error) {
	return m.behavior(ctx)
}

func (m *MockSpectralSensor) TakeSingleMeasurement(ctx context.Context) (Spectrum, error) {
	return m.behavior(ctx)
}

func (m *MockSpectralSensor) TakeSingleMeasurementWithLED(ctx context.Context) (Spectrum, error) {
	m.LEDOn = true
	defer func() { m.LEDOn = false }()
	return m.behavior(ctx)
}
