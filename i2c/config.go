package i2c

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/imu"
)

type Role int

const (
	RoleController Role = iota
	RolePeripheral
)

func (r Role) String() string {
	switch r {
	case RoleController:
		return "controller"
	case RolePeripheral:
		return "peripheral"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

const (
	DefaultTimeout   = 1000 * time.Millisecond
	DefaultFrequency = 100 * physic.KiloHertz
	MaxFrequency     = 1 * physic.MegaHertz
)

// BusConfig describes a bus before installation. It is not changed afterwards.
type BusConfig struct {
	Index            int
	Role             Role
	SCL              int
	SDA              int
	SCLPullUp        bool
	SDAPullUp        bool
	Frequency        physic.Frequency
	RxBufferDisabled bool
	TxBufferDisabled bool
	// Timeout bounds every transfer; zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultBusConfig returns the board wiring the sensor ships on: bus 0,
// SCL on pin 9, SDA on pin 8, internal pull-ups, 100 kHz.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		Index:            0,
		Role:             RoleController,
		SCL:              9,
		SDA:              8,
		SCLPullUp:        true,
		SDAPullUp:        true,
		Frequency:        DefaultFrequency,
		RxBufferDisabled: true,
		TxBufferDisabled: true,
		Timeout:          DefaultTimeout,
	}
}

func (c BusConfig) Validate() error {
	if c.Role != RoleController {
		return fmt.Errorf("bus %d: role %s not supported: %w", c.Index, c.Role, imu.ErrInvalidConfig)
	}
	if c.Index < 0 {
		return fmt.Errorf("bus index %d: %w", c.Index, imu.ErrInvalidConfig)
	}
	if c.SCL < 0 || c.SDA < 0 {
		return fmt.Errorf("bus %d: negative pin (scl %d, sda %d): %w", c.Index, c.SCL, c.SDA, imu.ErrInvalidConfig)
	}
	if c.SCL == c.SDA {
		return fmt.Errorf("bus %d: scl and sda share pin %d: %w", c.Index, c.SCL, imu.ErrPinConflict)
	}
	if c.Frequency <= 0 || c.Frequency > MaxFrequency {
		return fmt.Errorf("bus %d: frequency %s out of range: %w", c.Index, c.Frequency, imu.ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("bus %d: negative timeout: %w", c.Index, imu.ErrInvalidConfig)
	}
	return nil
}

func (c BusConfig) timeout() time.Duration {
	if c.Timeout == 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c BusConfig) pins() []int {
	return []int{c.SCL, c.SDA}
}
