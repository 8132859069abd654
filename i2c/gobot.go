//go:build !tinygo

package i2c

import (
	"errors"
	"fmt"
	"sync"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"
	"tinygo.org/x/drivers"
)

// GobotOpener opens a bus through a gobot adaptor (e.g. nanopi.NewNeoAdaptor).
// The adaptor must be connected already; cfg.Index selects the bus number.
func GobotOpener(connector gobot.Connector) Opener {
	return func(cfg BusConfig) (drivers.I2C, error) {
		return &gobotBus{connector: connector, busNr: cfg.Index, conns: map[uint16]gobot.Connection{}}, nil
	}
}

// gobotBus maps address based transfers onto gobot's per device connections.
type gobotBus struct {
	mx        sync.Mutex
	connector gobot.Connector
	busNr     int
	conns     map[uint16]gobot.Connection
}

func (b *gobotBus) connection(addr uint16) (gobot.Connection, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if c, ok := b.conns[addr]; ok {
		return c, nil
	}
	c, err := b.connector.GetI2cConnection(int(addr), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not get connection to %#x on bus %d: %w", addr, b.busNr, err)
	}
	b.conns[addr] = c
	return c, nil
}

func (b *gobotBus) Tx(addr uint16, w, r []byte) error {
	c, err := b.connection(addr)
	if err != nil {
		return err
	}
	switch {
	case len(r) == 0:
		return c.WriteBytes(w)
	case len(w) == 1:
		// i2c block read: register select and read under one repeated start
		return c.ReadBlockData(w[0], r)
	default:
		if len(w) > 0 {
			if err := c.WriteBytes(w); err != nil {
				return err
			}
		}
		_, err := c.Read(r)
		return err
	}
}

func (b *gobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for addr, c := range b.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %#x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	return errors.Join(errs...)
}
