package cmd

import (
	"fmt"
	"os"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// IntegrationDeviceEnv names the bus used by the integration tests.
const IntegrationDeviceEnv = "MPU6500_DEVICE"

func TestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Test()
			if err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func LintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Lint()
			if err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func IntegrationTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration testing against a wired sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			device, err := cmd.Flags().GetString("device")
			if err != nil {
				return fmt.Errorf("could not get device flag: %w", err)
			}
			if err := os.Setenv(IntegrationDeviceEnv, device); err != nil {
				return fmt.Errorf("could not export %s: %w", IntegrationDeviceEnv, err)
			}
			err = test.Integ()
			if err != nil {
				return fmt.Errorf("failed to run integration testing: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("device", "/dev/i2c-1", "bus the sensor is wired to")
	return cmd
}
