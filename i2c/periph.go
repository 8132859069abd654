//go:build !tinygo

package i2c

import (
	"fmt"
	"log/slog"
	"strings"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"github.com/mklimuk/imu"
)

// PeriphOpener opens a Linux bus through periph.io. An empty dev selects the
// first registered bus. Pins and pull-ups are fixed by the board on Linux,
// the config values are only checked against what the bus reports.
func PeriphOpener(dev string) Opener {
	return func(cfg BusConfig) (drivers.I2C, error) {
		state, err := host.Init()
		if err != nil {
			return nil, fmt.Errorf("could not init host: %w", err)
		}
		for _, driver := range state.Loaded {
			slog.Debug("periph driver loaded", "driver", driver.String())
		}
		bus, err := i2creg.Open(dev)
		if err != nil {
			return nil, fmt.Errorf("could not open i2c bus: %w", err)
		}
		err = bus.SetSpeed(cfg.Frequency)
		if err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("could not set i2c bus speed to %s: %w", cfg.Frequency, err)
		}
		if p, ok := bus.(i2c.Pins); ok {
			slog.Debug("periph bus pins", "bus", bus.String(), "scl", p.SCL().String(), "sda", p.SDA().String())
		}
		return &periphBus{bus: bus}, nil
	}
}

type periphBus struct {
	bus i2c.BusCloser
}

func (b *periphBus) Tx(addr uint16, w, r []byte) error {
	err := b.bus.Tx(addr, w, r)
	if err == nil {
		return nil
	}
	// the Linux i2c-dev driver reports a missing ACK as EREMOTEIO
	if strings.Contains(err.Error(), "remote I/O error") {
		return fmt.Errorf("i2c tx to %#x: %w: %w", addr, imu.ErrNack, err)
	}
	return fmt.Errorf("i2c tx to %#x: %w", addr, err)
}

func (b *periphBus) Close() error {
	return b.bus.Close()
}
