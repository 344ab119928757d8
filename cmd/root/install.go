package root

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosdccc/gosdccc/pkg/download"
)

type installFlags struct {
	proxy   string
	timeout time.Duration
}

func newInstallCmd() *cobra.Command {
	var flags installFlags

	cmd := &cobra.Command{
		Use:   "install <url>",
		Short: "Download and install an SDCcc release",
		Example: `  # Install a release zip
  gosdccc install https://github.com/Draegerwerk/SDCcc/releases/download/v9.1.0/sdccc-9.1.0.zip

  # Install through a proxy
  gosdccc install --proxy http://proxy.example.com:3128 https://example.com/sdccc-9.1.0.zip`,
		Args: cobra.ExactArgs(1),
		RunE: flags.run,
	}

	cmd.Flags().StringVar(&flags.proxy, "proxy", "", "Proxy server URL to use for the download")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Abort the download after this duration (0 waits indefinitely)")

	return cmd
}

func (f *installFlags) run(cmd *cobra.Command, args []string) error {
	url := args[0]

	var opts []download.Option
	if f.proxy != "" {
		opts = append(opts, download.WithProxy(f.proxy))
	}
	if f.timeout > 0 {
		opts = append(opts, download.WithTimeout(f.timeout))
	}

	exe, err := download.Download(cmd.Context(), url, opts...)
	if err != nil {
		return fmt.Errorf("installing sdccc from %s: %w", url, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Installed", exe)
	return nil
}
