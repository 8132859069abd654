package accel

import (
	"context"
	"time"
)

const DefaultPollInterval = 500 * time.Millisecond

// SampleReader is anything producing raw accelerometer samples.
type SampleReader interface {
	ReadSample(ctx context.Context) (RawSample, error)
}

var (
	_ SampleReader = &MPU6500{}
	_ SampleReader = &MockAccelerometer{}
)

// Reading is the outcome of one polling iteration. Raw and Accel are zero
// when Err is set.
type Reading struct {
	Time  time.Time
	Raw   RawSample
	Accel Sample
	Err   error
}

// Poll reads src, hands every reading to emit and waits interval before the
// next read. Read failures are reported through emit and do not stop the
// loop; Poll only returns when ctx is done.
func Poll(ctx context.Context, src SampleReader, interval time.Duration, emit func(Reading)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		r := Reading{Time: time.Now()}
		r.Raw, r.Err = src.ReadSample(ctx)
		if r.Err == nil {
			r.Accel = Convert(r.Raw)
		}
		emit(r)
		timer.Reset(interval)
	}
}
