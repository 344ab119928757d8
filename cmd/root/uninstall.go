package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gosdccc/gosdccc/pkg/download"
)

func newUninstallCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "uninstall [version]",
		Short: "Remove an installed SDCcc release",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case all:
				if err := download.UninstallAll(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Removed", download.StorageDir())
			case len(args) == 1:
				if err := download.Uninstall(args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Removed", args[0])
			default:
				return fmt.Errorf("specify a version to remove or --all")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove all installed releases and the storage directory")

	return cmd
}
