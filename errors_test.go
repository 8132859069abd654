package imu

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		given    error
		expected ErrorKind
	}{
		{"nil", nil, ""},
		{"kind", ErrNack, ErrNack},
		{"wrapped kind", fmt.Errorf("write failed: %w", ErrNack), ErrNack},
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"transport error", &TransportError{Kind: ErrTimeout, Op: "read"}, ErrTimeout},
		{"busy", ErrBusBusy, ErrBusFault},
		{"unknown", errors.New("remote I/O error"), ErrBusFault},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, KindOf(test.given))
		})
	}
}

func TestTransportError_Is(t *testing.T) {
	cause := errors.New("i2c read failed")
	err := fmt.Errorf("mpu6500: %w", &TransportError{Kind: ErrBusFault, Op: "read", Address: 0x68, Register: 0x3B, Err: cause})

	assert.ErrorIs(t, err, ErrBusFault)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "mpu6500: read bus-fault at 0x68 reg 0x3b: i2c read failed", err.Error())
}

func TestTransportError_NoDuplicateKind(t *testing.T) {
	err := &TransportError{Kind: ErrTimeout, Op: "write", Address: 0x68, Register: 0x6B, Err: ErrTimeout}
	assert.Equal(t, "write timeout at 0x68 reg 0x6b", err.Error())
}
