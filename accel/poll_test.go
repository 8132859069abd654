package accel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/imu"
)

func TestPoll_ContinuesAfterReadError(t *testing.T) {
	calls := 0
	sensor := NewMockAccelerometer(func(ctx context.Context) (RawSample, error) {
		calls++
		if calls == 1 {
			return RawSample{}, &imu.TransportError{Kind: imu.ErrTimeout, Op: "read", Err: imu.ErrTimeout}
		}
		return RawSample{X: 16384, Z: -16384}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var readings []Reading
	err := Poll(ctx, sensor, time.Millisecond, func(r Reading) {
		readings = append(readings, r)
		if len(readings) == 3 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, readings, 3)
	assert.ErrorIs(t, readings[0].Err, imu.ErrTimeout)
	assert.Equal(t, Sample{}, readings[0].Accel)
	for _, r := range readings[1:] {
		assert.NoError(t, r.Err)
		assert.Equal(t, RawSample{X: 16384, Z: -16384}, r.Raw)
		assert.Equal(t, Sample{X: 1, Z: -1}, r.Accel)
		assert.False(t, r.Time.IsZero())
	}
}

func TestPoll_Interval(t *testing.T) {
	interval := 20 * time.Millisecond
	sensor := NewMockAccelerometer(func(ctx context.Context) (RawSample, error) {
		return RawSample{}, errors.New("i2c read failed")
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var times []time.Time
	err := Poll(ctx, sensor, interval, func(r Reading) {
		times = append(times, r.Time)
		if len(times) == 3 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, times, 3)
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), interval-time.Millisecond)
	}
}

func TestPoll_StopsOnDeadline(t *testing.T) {
	var mu sync.Mutex
	count := 0
	sensor := NewMockAccelerometer(func(ctx context.Context) (RawSample, error) {
		return RawSample{Z: 16384}, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := Poll(ctx, sensor, time.Hour, func(r Reading) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, count, "first read is immediate, the next one waits the interval")
}

func TestMockAccelerometer_Acceleration(t *testing.T) {
	sensor := NewMockMPU6500(func(ctx context.Context) (RawSample, error) {
		return RawSample{Z: 16384}, nil
	})
	g, err := sensor.Acceleration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sample{Z: 1}, g)

	failing := NewMockAccelerometer(func(ctx context.Context) (RawSample, error) {
		return RawSample{}, errors.New("sensor error")
	})
	_, err = failing.Acceleration(context.Background())
	assert.EqualError(t, err, "sensor error")
}
