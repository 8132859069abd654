package accel

import (
	"context"
)

// SampleBehaviorFunc produces a raw sample or an error.
type SampleBehaviorFunc func(ctx context.Context) (RawSample, error)

// MockAccelerometer is a mock accelerometer that uses a behavior function to
// produce samples without requiring any hardware.
//
// Example usage:
//
//	// sensor lying flat
//	sensor := NewMockAccelerometer(func(ctx context.Context) (RawSample, error) {
//		return RawSample{Z: 16384}, nil
//	})
type MockAccelerometer struct {
	behavior SampleBehaviorFunc
}

func NewMockAccelerometer(behavior SampleBehaviorFunc) *MockAccelerometer {
	return &MockAccelerometer{behavior: behavior}
}

// ReadSample returns the sample by calling the behavior function.
func (m *MockAccelerometer) ReadSample(ctx context.Context) (RawSample, error) {
	return m.behavior(ctx)
}

// Acceleration returns the converted behavior sample.
func (m *MockAccelerometer) Acceleration(ctx context.Context) (Sample, error) {
	raw, err := m.behavior(ctx)
	if err != nil {
		return Sample{}, err
	}
	return Convert(raw), nil
}

// NewMockMPU6500 creates a mock MPU6500 (alias for NewMockAccelerometer).
func NewMockMPU6500(behavior SampleBehaviorFunc) *MockAccelerometer {
	return NewMockAccelerometer(behavior)
}
