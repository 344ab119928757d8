package root

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gosdccc/gosdccc/pkg/paths"
	"github.com/gosdccc/gosdccc/pkg/sdccc"
)

// newSdcccCmd exposes the installed executable directly, for tool options
// the wrapper does not model.
func newSdcccCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sdccc [args...]",
		Short: "Invoke the installed SDCcc executable directly",
		Example: `  # Ask the tool for its version
  gosdccc sdccc --version`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := sdccc.FindExecutable(paths.GetStorageDir())
			if err != nil {
				if errors.Is(err, sdccc.ErrNotInstalled) {
					return fmt.Errorf("%w, install it with 'gosdccc install <url>'", err)
				}
				return err
			}

			c := exec.CommandContext(cmd.Context(), exe, args...)
			c.Dir = filepath.Dir(exe)
			c.Stdin = os.Stdin
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()

			if err := c.Run(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					return &exitCodeError{
						code: exitErr.ExitCode(),
						msg:  fmt.Sprintf("sdccc exited with code %d", exitErr.ExitCode()),
					}
				}
				return fmt.Errorf("running sdccc: %w", err)
			}
			return nil
		},
	}
}
