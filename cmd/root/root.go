// Package root assembles the gosdccc command line interface.
package root

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the gosdccc root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "gosdccc",
		Short: "Manage and run the SDCcc conformance test suite",
		Long: `gosdccc downloads, configures and runs SDCcc, the conformance test
suite for SDC devices, and parses the reports it writes.

Releases can be found at https://github.com/Draegerwerk/SDCcc/releases.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(debug)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newInstallCmd(),
		newUninstallCmd(),
		newListCmd(),
		newRunCmd(),
		newCheckCmd(),
		newVersionCmd(),
		newSdcccCmd(),
	)

	return cmd
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
