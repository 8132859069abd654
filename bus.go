package imu

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// RegisterWriter writes a single register of a device on the bus.
type RegisterWriter interface {
	WriteRegister(ctx context.Context, address byte, register byte, value byte) error
}

// RegisterReader reads len(buffer) consecutive registers starting at register.
// Select and read happen in one transaction so auto-incrementing devices
// are addressed correctly.
type RegisterReader interface {
	ReadRegisters(ctx context.Context, address byte, register byte, buffer []byte) error
}

type RegisterBus interface {
	RegisterWriter
	RegisterReader
}
