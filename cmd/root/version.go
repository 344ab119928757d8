package root

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gosdccc/gosdccc/pkg/paths"
	"github.com/gosdccc/gosdccc/pkg/sdccc"
	"github.com/gosdccc/gosdccc/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gosdccc and installed SDCcc versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "gosdccc", version.Version)

			exe, err := sdccc.FindExecutable(paths.GetStorageDir())
			if err != nil {
				fmt.Fprintln(out, "sdccc not installed")
				return nil
			}
			toolVersion, err := sdccc.ExeVersion(cmd.Context(), exe)
			if err != nil {
				return fmt.Errorf("querying installed sdccc: %w", err)
			}
			fmt.Fprintln(out, "sdccc", toolVersion)
			return nil
		},
	}
}

// absWorkingDir returns the current working directory as an absolute path.
func absWorkingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return filepath.Abs(cwd)
}
