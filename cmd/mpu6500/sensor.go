package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/imu/accel"
	"github.com/mklimuk/imu/adapter"
	"github.com/mklimuk/imu/cmd/mpu6500/console"
	"github.com/mklimuk/imu/i2c"
	"github.com/mklimuk/imu/snsctx"
)

const (
	adapterGeneric = "generic"
	adapterNanoPi  = "nanopi"
	adapterMCP2221 = "mcp2221"
	adapterMock    = "mock"
)

func busFlags() []cli.Flag {
	def := i2c.DefaultBusConfig()
	return []cli.Flag{
		&cli.BoolFlag{Name: "verbose", Usage: "enable verbose logging"},
		&cli.StringFlag{Name: "adapter", Aliases: []string{"a"}, Value: adapterGeneric, Usage: "bus adapter: generic, nanopi, mcp2221 or mock"},
		&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Value: "/dev/i2c-1", Usage: "periph bus name for the generic adapter"},
		&cli.IntFlag{Name: "bus", Value: def.Index, Usage: "bus index"},
		&cli.IntFlag{Name: "scl", Value: def.SCL, Usage: "clock line pin"},
		&cli.IntFlag{Name: "sda", Value: def.SDA, Usage: "data line pin"},
		&cli.StringFlag{Name: "freq", Value: def.Frequency.String(), Usage: "bus clock frequency"},
		&cli.DurationFlag{Name: "timeout", Value: def.Timeout, Usage: "per transfer timeout"},
		&cli.StringFlag{Name: "address", Value: "0x68", Usage: "7-bit sensor address"},
	}
}

func busConfig(c *cli.Context) (i2c.BusConfig, error) {
	cfg := i2c.DefaultBusConfig()
	cfg.Index = c.Int("bus")
	cfg.SCL = c.Int("scl")
	cfg.SDA = c.Int("sda")
	cfg.Timeout = c.Duration("timeout")
	var freq physic.Frequency
	if err := freq.Set(c.String("freq")); err != nil {
		return cfg, fmt.Errorf("invalid frequency %q: %w", c.String("freq"), err)
	}
	cfg.Frequency = freq
	return cfg, nil
}

func sensorOpts(c *cli.Context) ([]accel.MPU6500Opt, error) {
	addr, err := strconv.ParseUint(c.String("address"), 0, 7)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", c.String("address"), err)
	}
	return []accel.MPU6500Opt{accel.WithAddress(byte(addr))}, nil
}

// opener returns the bus backend selected by --adapter and a cleanup func.
func opener(c *cli.Context) (i2c.Opener, func(), error) {
	switch c.String("adapter") {
	case adapterGeneric:
		return i2c.PeriphOpener(c.String("device")), func() {}, nil
	case adapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		return i2c.GobotOpener(npi), func() {
			if err := npi.Finalize(); err != nil {
				console.Errorf("error finalizing adaptor: %s", console.Red(err))
			}
		}, nil
	case adapterMCP2221:
		mcp := adapter.NewMCP2221()
		mcp.Verbose = c.Bool("verbose")
		return mcp.Opener(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported adapter %q", c.String("adapter"))
	}
}

func commandContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}

// openBus installs the bus and wraps the sensor without configuring it.
func openBus(c *cli.Context) (*accel.MPU6500, func(), error) {
	cfg, err := busConfig(c)
	if err != nil {
		return nil, nil, err
	}
	opts, err := sensorOpts(c)
	if err != nil {
		return nil, nil, err
	}
	open, cleanup, err := opener(c)
	if err != nil {
		return nil, nil, err
	}
	bus, err := i2c.Install(cfg, open)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return accel.NewMPU6500(bus, opts...), func() {
		if err := bus.Close(); err != nil {
			console.Errorf("error closing bus: %s", console.Red(err))
		}
		cleanup()
	}, nil
}

// initSensor runs the full bring-up. The mock adapter skips the hardware and
// returns a sensor lying flat.
func initSensor(ctx context.Context, c *cli.Context) (accel.SampleReader, func(), error) {
	if c.String("adapter") == adapterMock {
		return mockSensor(), func() {}, nil
	}
	cfg, err := busConfig(c)
	if err != nil {
		return nil, nil, err
	}
	opts, err := sensorOpts(c)
	if err != nil {
		return nil, nil, err
	}
	open, cleanup, err := opener(c)
	if err != nil {
		return nil, nil, err
	}
	sensor, bus, err := accel.Init(ctx, cfg, open, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return sensor, func() {
		if err := bus.Close(); err != nil {
			console.Errorf("error closing bus: %s", console.Red(err))
		}
		cleanup()
	}, nil
}

func mockSensor() *accel.MockAccelerometer {
	start := time.Now()
	return accel.NewMockAccelerometer(func(ctx context.Context) (accel.RawSample, error) {
		// slow wobble around 1g on Z
		phase := time.Since(start).Seconds()
		return accel.RawSample{
			X: int16(800 * math.Sin(phase)),
			Y: int16(800 * math.Cos(phase)),
			Z: 16384,
		}, nil
	})
}
