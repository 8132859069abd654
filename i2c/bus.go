package i2c

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"tinygo.org/x/drivers"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/snsctx"
)

var _ imu.RegisterBus = &Bus{}

var errBusClosed = errors.New("bus closed")

// Opener connects a validated config to a physical bus. The returned value
// is closed on Bus.Close when it implements io.Closer.
type Opener func(cfg BusConfig) (drivers.I2C, error)

var (
	installedMx sync.Mutex
	installed   = map[int]BusConfig{}
)

// Bus is an installed bus. Transfers are serialised and bounded by the
// configured timeout; nothing is retried.
type Bus struct {
	mx  sync.Mutex
	cfg BusConfig
	tx  drivers.I2C
}

// Install validates cfg, claims its index and pins and opens the backend.
func Install(cfg BusConfig, open Opener) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &imu.TransportError{Kind: imu.KindOf(err), Op: "install", Err: err}
	}
	installedMx.Lock()
	defer installedMx.Unlock()
	if _, ok := installed[cfg.Index]; ok {
		return nil, &imu.TransportError{Kind: imu.ErrAlreadyInstalled, Op: "install",
			Err: fmt.Errorf("bus %d already installed", cfg.Index)}
	}
	for idx, other := range installed {
		for _, p := range other.pins() {
			if p == cfg.SCL || p == cfg.SDA {
				return nil, &imu.TransportError{Kind: imu.ErrPinConflict, Op: "install",
					Err: fmt.Errorf("pin %d already used by bus %d", p, idx)}
			}
		}
	}
	tx, err := open(cfg)
	if err != nil {
		return nil, &imu.TransportError{Kind: imu.KindOf(err), Op: "install",
			Err: fmt.Errorf("could not open bus %d: %w", cfg.Index, err)}
	}
	installed[cfg.Index] = cfg
	slog.Debug("i2c bus installed", "bus", cfg.Index, "scl", cfg.SCL, "sda", cfg.SDA, "frequency", cfg.Frequency.String())
	return &Bus{cfg: cfg, tx: tx}, nil
}

func (b *Bus) Config() BusConfig {
	return b.cfg
}

// WriteRegister sends the two byte frame [register, value].
func (b *Bus) WriteRegister(ctx context.Context, address byte, register byte, value byte) error {
	return b.transfer(ctx, "write", address, register, []byte{register, value}, nil)
}

// ReadRegisters selects register and reads len(buffer) bytes without
// releasing the bus in between.
func (b *Bus) ReadRegisters(ctx context.Context, address byte, register byte, buffer []byte) error {
	return b.transfer(ctx, "read", address, register, []byte{register}, buffer)
}

func (b *Bus) transfer(ctx context.Context, op string, address, register byte, w, r []byte) error {
	if snsctx.IsVerbose(ctx) {
		slog.Debug("i2c transfer", "op", op, "bus", b.cfg.Index, "addr", fmt.Sprintf("%#02x", address), "w", hex.EncodeToString(w), "rlen", len(r))
	}
	tctx, cancel := context.WithTimeout(ctx, b.cfg.timeout())
	defer cancel()

	// the backend call cannot be interrupted, so it reads into its own buffer
	// and a timed out transfer never touches r
	var rbuf []byte
	if len(r) > 0 {
		rbuf = make([]byte, len(r))
	}
	done := make(chan error, 1)
	go func() {
		b.mx.Lock()
		defer b.mx.Unlock()
		if err := tctx.Err(); err != nil {
			done <- err
			return
		}
		if b.tx == nil {
			done <- errBusClosed
			return
		}
		done <- b.tx.Tx(uint16(address), w, rbuf)
	}()

	var err error
	select {
	case err = <-done:
	case <-tctx.Done():
		err = tctx.Err()
	}
	if err == nil {
		copy(r, rbuf)
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s at %#02x cancelled: %w", op, address, err)
	}
	return &imu.TransportError{Kind: imu.KindOf(err), Op: op, Address: address, Register: register, Err: err}
}

// Close releases the backend and the bus index.
func (b *Bus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.tx == nil {
		return nil
	}
	installedMx.Lock()
	delete(installed, b.cfg.Index)
	installedMx.Unlock()
	tx := b.tx
	b.tx = nil
	if c, ok := tx.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
