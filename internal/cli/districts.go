package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/garage-geo/internal/gazetteer"
)

func newDistrictsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "districts",
		Short: "List the district table in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := gazetteer.FromFileOrDefault(o.config(cmd).GazetteerFile)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(o.out, 0, 4, 1, '\t', 0)
			for _, d := range g.Districts() {
				fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Center)
			}
			return tw.Flush()
		},
	}
}
