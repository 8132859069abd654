package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/imu/i2c"
)

func parseFlags(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	var captured *cli.Context
	app := cli.NewApp()
	app.Flags = busFlags()
	app.Action = func(c *cli.Context) error {
		captured = c
		return nil
	}
	require.NoError(t, app.Run(append([]string{"mpu6500"}, args...)))
	require.NotNil(t, captured)
	return captured
}

func TestBusConfigDefaults(t *testing.T) {
	cfg, err := busConfig(parseFlags(t))
	require.NoError(t, err)
	assert.Equal(t, i2c.DefaultBusConfig(), cfg)
}

func TestBusConfigFlags(t *testing.T) {
	c := parseFlags(t, "--bus", "1", "--scl", "5", "--sda", "4", "--freq", "400kHz", "--timeout", "250ms")
	cfg, err := busConfig(c)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Index)
	assert.Equal(t, 5, cfg.SCL)
	assert.Equal(t, 4, cfg.SDA)
	assert.Equal(t, 400*physic.KiloHertz, cfg.Frequency)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
}

func TestBusConfigInvalidFrequency(t *testing.T) {
	_, err := busConfig(parseFlags(t, "--freq", "fast"))
	assert.ErrorContains(t, err, `invalid frequency "fast"`)
}

func TestSensorOpts(t *testing.T) {
	tests := []struct {
		given   string
		wantErr bool
	}{
		{"0x68", false},
		{"0x69", false},
		{"105", false},
		{"0x80", true},
		{"sensor", true},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			opts, err := sensorOpts(parseFlags(t, "--address", test.given))
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, opts, 1)
		})
	}
}

func TestUnsupportedAdapter(t *testing.T) {
	_, _, err := opener(parseFlags(t, "--adapter", "ftdi"))
	assert.EqualError(t, err, `unsupported adapter "ftdi"`)
}
