package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/accel"
	"github.com/mklimuk/imu/cmd/mpu6500/console"
)

var whoAmICmd = cli.Command{
	Name:    "whoami",
	Aliases: []string{"id"},
	Usage:   "read the identity register",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		sensor, closeBus, err := openBus(c)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		defer closeBus()
		id, err := sensor.WhoAmI(ctx)
		if err != nil {
			return console.Exit(1, "error reading identity: %s", console.Red(err))
		}
		switch id {
		case accel.WhoAmIMPU6500, accel.WhoAmIMPU6500Alt:
			console.PInfof(console.PictoChip, "MPU6500 at %s answers %s", console.Hex(sensor.Address()), console.Hex(id))
		default:
			console.Warnf("unexpected identity %s at %s", console.Hex(id), console.Hex(sensor.Address()))
		}
		return nil
	},
}

var initCmd = cli.Command{
	Name:  "init",
	Usage: "run the sensor bring-up sequence",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		_, closeBus, err := initSensor(ctx, c)
		if err != nil {
			return initError(err)
		}
		defer closeBus()
		console.PInfof(console.PictoCheck, "sensor configured")
		return nil
	},
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "initialize the sensor and print a single sample",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatText, Usage: "output format: text or raw"},
	},
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		sensor, closeBus, err := initSensor(ctx, c)
		if err != nil {
			return initError(err)
		}
		defer closeBus()
		f, err := newFormatter(c.String("format"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		raw, err := sensor.ReadSample(ctx)
		if err != nil {
			return console.Exit(1, "error reading sample: %s", console.Red(err))
		}
		f(console.Writer(), accel.Reading{Time: timeNow(), Raw: raw, Accel: accel.Convert(raw)})
		return nil
	},
}

var registersCmd = cli.Command{
	Name:    "registers",
	Aliases: []string{"regs"},
	Usage:   "dump the configuration registers as yaml",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		sensor, closeBus, err := openBus(c)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		defer closeBus()
		dump, err := sensor.Registers(ctx)
		if err != nil {
			return console.Exit(1, "error reading registers: %s", console.Red(err))
		}
		enc := yaml.NewEncoder(console.Writer())
		defer func() { _ = enc.Close() }()
		if err := enc.Encode(dump); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "issue a device reset",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			ok, err := console.Confirm("reset the sensor to power-on defaults?", false)
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if !ok {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		ctx := commandContext(c)
		sensor, closeBus, err := openBus(c)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		defer closeBus()
		if err := sensor.Reset(ctx); err != nil {
			return console.Exit(1, "error resetting sensor: %s", console.Red(err))
		}
		console.PInfof(console.PictoCheck, "sensor reset")
		return nil
	},
}

var pollCmd = cli.Command{
	Name:  "poll",
	Usage: "initialize the sensor and print samples until interrupted",
	Flags: []cli.Flag{
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Value: accel.DefaultPollInterval},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatText, Usage: "output format: text or raw"},
	},
	Action: func(c *cli.Context) error {
		ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
		defer stop()
		f, err := newFormatter(c.String("format"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		sensor, closeBus, err := initSensor(ctx, c)
		if err != nil {
			return initError(err)
		}
		defer closeBus()
		console.PInfof(console.PictoAccel, "polling every %s, press Ctrl+C to stop", c.Duration("interval"))
		_ = accel.Poll(ctx, sensor, c.Duration("interval"), func(r accel.Reading) {
			if r.Err != nil {
				slog.Warn("sample read failed", "kind", imu.KindOf(r.Err), "error", r.Err)
				console.Errorf("error reading sample: %s", console.Red(r.Err))
				return
			}
			f(console.Writer(), r)
		})
		return nil
	},
}

func initError(err error) error {
	var mismatch *accel.IdentityMismatchError
	var cfgErr *accel.ConfigurationError
	switch {
	case errors.As(err, &mismatch):
		return console.Exit(1, "no MPU6500 found: %s", console.Red(err))
	case errors.As(err, &cfgErr):
		return console.Exit(1, "sensor configuration failed at %s (%s): %s", cfgErr.Step, imu.KindOf(err), console.Red(err))
	default:
		return console.Exit(1, "sensor initialization error (%s): %s", imu.KindOf(err), console.Red(err))
	}
}
