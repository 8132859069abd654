package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/i2c"
	"github.com/mklimuk/imu/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// HID report commands
const (
	cmdStatus          = 0x10
	cmdWrite           = 0x90
	cmdRead            = 0x91
	cmdReadRepeated    = 0x93
	cmdWriteNoStop     = 0x94
	cmdGetData         = 0x40
	statusCancel       = 0x10
	statusSetSpeed     = 0x20
	statusSpeedOK      = 0x20
	responseBusy       = 0x01
	responseReadError  = 0x41
	reportSize         = 64
	maxChunk           = 60
	systemClock        = 12 * physic.MegaHertz
	defaultReportDelay = 50 * time.Millisecond
)

var _ drivers.I2C = &MCP2221{}

var ErrCommandFailed = errors.New("command failed")

// MCP2221 is a Microchip MCP2221 USB to I2C bridge. The HID device is opened
// per request so several processes can share the adapter.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	// Device selects the adapter when more than one is plugged in.
	Device int
	// Verbose dumps every HID report.
	Verbose bool
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
	AckMissing             bool   `yaml:"ack_missing"`
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: defaultReportDelay,
		Device:       -1,
	}
}

// Opener sets the bus clock and hands the adapter to i2c.Install.
func (d *MCP2221) Opener() i2c.Opener {
	return func(cfg i2c.BusConfig) (drivers.I2C, error) {
		err := d.SetSpeed(context.Background(), cfg.Frequency)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// SetSpeed programs the I2C clock divider.
func (d *MCP2221) SetSpeed(ctx context.Context, freq physic.Frequency) error {
	if freq <= 0 || freq > 400*physic.KiloHertz {
		return fmt.Errorf("mcp2221: unsupported speed %s: %w", freq, imu.ErrInvalidConfig)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[3] = statusSetSpeed
	d.request[4] = byte(systemClock/freq - 3)
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("mcp2221: set speed failed: %w", err)
	}
	if d.response[3] != statusSpeedOK {
		return fmt.Errorf("mcp2221: speed %s rejected: %w", freq, ErrCommandFailed)
	}
	return nil
}

// Tx writes w and then reads r. When both are present the write ends without
// STOP and the read starts with a repeated START.
func (d *MCP2221) Tx(addr uint16, w, r []byte) error {
	ctx := context.Background()
	d.mx.Lock()
	defer d.mx.Unlock()
	if len(r) == 0 {
		return d.write(ctx, cmdWrite, byte(addr), w)
	}
	if len(r) > maxChunk {
		return fmt.Errorf("mcp2221: read of %d bytes exceeds %d", len(r), maxChunk)
	}
	readCmd := byte(cmdRead)
	if len(w) > 0 {
		if err := d.write(ctx, cmdWriteNoStop, byte(addr), w); err != nil {
			return err
		}
		readCmd = cmdReadRepeated
	}
	return d.read(ctx, readCmd, byte(addr), r)
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if d.response[1] == responseBusy {
		slog.Debug("mcp2221 adapter busy")
		return imu.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == responseBusy {
		return imu.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdGetData
	err = d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == responseReadError {
		return fmt.Errorf("reading %x from the I2C engine: %w", address, imu.ErrNack)
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// ReleaseBus cancels the current transfer and frees the bus.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancel
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
		20: bit 6 set when the addressed slave did not acknowledge
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
		AckMissing:           buffer[20]&0x40 != 0,
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) open() (*hid.Device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, fmt.Errorf("MCP2221 device not found")
	}
	idx := d.Device
	if idx < 0 {
		if len(devs) > 1 {
			return nil, fmt.Errorf("ambiguous device identification")
		}
		idx = 0
	}
	if idx >= len(devs) {
		return nil, fmt.Errorf("no device with id %d", idx)
	}
	dev, err := devs[idx].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Debug("mcp2221 close failed", "error", err)
		}
	}()
	verbose := d.Verbose || snsctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "report", hex.EncodeToString(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("read message from adapter", "report", hex.EncodeToString(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
