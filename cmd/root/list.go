package root

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosdccc/gosdccc/pkg/download"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed SDCcc releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			installs, err := download.Installed()
			if err != nil {
				return err
			}
			if len(installs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No SDCcc releases installed.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tINSTALLED\tPATH")
			for _, install := range installs {
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					install.Version,
					install.InstalledAt.Format(time.RFC3339),
					install.Path)
			}
			return w.Flush()
		},
	}
}
