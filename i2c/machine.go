//go:build tinygo

package i2c

import (
	"fmt"
	"machine"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// MachineOpener configures the on-chip controller of a TinyGo target.
// Only bus 0 is wired on the supported boards.
func MachineOpener() Opener {
	return func(cfg BusConfig) (drivers.I2C, error) {
		if cfg.Index != 0 {
			return nil, fmt.Errorf("bus %d not available on this target", cfg.Index)
		}
		scl, sda := machine.Pin(cfg.SCL), machine.Pin(cfg.SDA)
		if cfg.SCLPullUp {
			scl.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		}
		if cfg.SDAPullUp {
			sda.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		}
		bus := machine.I2C0
		err := bus.Configure(machine.I2CConfig{
			Frequency: uint32(cfg.Frequency / physic.Hertz),
			SCL:       scl,
			SDA:       sda,
		})
		if err != nil {
			return nil, fmt.Errorf("could not configure i2c0: %w", err)
		}
		return bus, nil
	}
}
