package main

import (
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/imu/adapter"
	"github.com/mklimuk/imu/cmd/mpu6500/console"
)

var adapterCmd = cli.Command{
	Name:  "adapter",
	Usage: "MCP2221 USB bridge maintenance",
	Subcommands: []*cli.Command{
		&adapterStatusCmd,
		&adapterReleaseCmd,
	},
}

var adapterStatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		a.Verbose = c.Bool("verbose")
		status, err := a.Status(commandContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return encodeStatus(status)
	},
}

var adapterReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and release the bus",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		a.Verbose = c.Bool("verbose")
		status, err := a.ReleaseBus(commandContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return encodeStatus(status)
	},
}

func encodeStatus(status *adapter.MCP2221Status) error {
	enc := yaml.NewEncoder(console.Writer())
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(status); err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}
