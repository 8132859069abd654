//go:build tinygo

// Command firmware runs the accelerometer bring-up on a TinyGo board and
// prints a sample every 500ms on the serial console.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/accel"
	"github.com/mklimuk/imu/i2c"
)

func main() {
	ctx := context.Background()
	// give the USB console a moment to enumerate
	time.Sleep(2 * time.Second)

	sensor, _, err := accel.Init(ctx, i2c.DefaultBusConfig(), i2c.MachineOpener())
	if err != nil {
		report(err)
		halt()
	}
	println("MPU6500 configured")

	_ = accel.Poll(ctx, sensor, accel.DefaultPollInterval, func(r accel.Reading) {
		if r.Err != nil {
			println("read failed:", r.Err.Error())
			return
		}
		s := r.Accel
		fmt.Printf("Accel X: %.2f \t Accel Y: %.2f \t Accel Z: %.2f\n", s.X, s.Y, s.Z)
	})
}

func report(err error) {
	var mismatch *accel.IdentityMismatchError
	var cfgErr *accel.ConfigurationError
	switch {
	case errors.As(err, &mismatch):
		println("MPU6500 not detected:", err.Error())
	case errors.As(err, &cfgErr):
		println("configuration failed at", cfgErr.Step.String(), string(imu.KindOf(err)))
	default:
		println("bus initialization failed:", err.Error())
	}
}

func halt() {
	for {
		time.Sleep(time.Hour)
	}
}
