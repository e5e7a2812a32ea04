package cmd

import (
	"fmt"
	"log/slog"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func task(use, short, what string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(); err != nil {
				return fmt.Errorf("failed to run %s: %w", what, err)
			}
			return nil
		},
	}
}

func TestCmd() *cobra.Command {
	return task("test", "Run unit tests", "tests", func() error { return test.Test() })
}

func LintCmd() *cobra.Command {
	return task("lint", "Run linting", "linting", func() error { return test.Lint() })
}

// IntegrationTestCmd runs the integration suite, it expects a sensor on the default adapter.
func IntegrationTestCmd() *cobra.Command {
	return task("integration-test", "Run integration testing", "integration testing", func() error { return test.Integ() })
}

// CheckCmd runs linting and unit tests and reports the failures of both.
func CheckCmd() *cobra.Command {
	return task("check", "Run linting and unit tests", "checks", func() error {
		slog.Info("running lint and tests")
		return multierr.Combine(test.Lint(), test.Test())
	})
}
