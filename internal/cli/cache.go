package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the geocode cache",
	}

	var addresses []string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached geocode outcomes so they are asked again",
		Long: `Without --address the whole cache is cleared. Only shared backends
(redis, tiered) keep anything between runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a, o.errOut)

			if err := a.Resolver.Forget(cmd.Context(), addresses...); err != nil {
				return err
			}
			if len(addresses) == 0 {
				fmt.Fprintln(o.out, "cache cleared")
			} else {
				fmt.Fprintf(o.out, "%d address(es) forgotten\n", len(addresses))
			}
			return nil
		},
	}
	clearCmd.Flags().StringArrayVar(&addresses, "address", nil, "address to forget (repeatable)")

	cmd.AddCommand(clearCmd)
	return cmd
}
