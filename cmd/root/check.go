package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gosdccc/gosdccc/pkg/sdccc"
)

func newCheckCmd() *cobra.Command {
	var exe string

	cmd := &cobra.Command{
		Use:   "check <requirements.toml>",
		Short: "Check a requirement selection against the installed release",
		Long: `Verify that every requirement enabled in the given file is provided and
enabled by the installed SDCcc release, before spending a test run on it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newConfigRunner(exe)
			if err != nil {
				return err
			}
			if err := runner.CheckRequirements(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All enabled requirements are supported.")
			return nil
		},
	}

	cmd.Flags().StringVar(&exe, "exe", "", "Path to the SDCcc executable (defaults to the installed release)")

	return cmd
}

// newConfigRunner builds a Runner for configuration-only operations, which
// do not need a dedicated test run directory.
func newConfigRunner(exe string) (*sdccc.Runner, error) {
	cwd, err := absWorkingDir()
	if err != nil {
		return nil, err
	}
	return sdccc.New(exe, cwd)
}
