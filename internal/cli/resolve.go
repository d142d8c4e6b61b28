package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

func newResolveCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "resolve ADDRESS...",
		Short: "Resolve addresses given as arguments",
		Long: `Resolves each argument and prints one line per address:

$ garage-resolve resolve "서울 강남구 테헤란로 123"
서울 강남구 테헤란로 123	district	강남구	37.517236,127.047325
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a, o.errOut)

			locs := make([]model.ResolvedLocation, 0, len(args))
			for _, addr := range args {
				loc, err := a.Resolver.Resolve(cmd.Context(), addr)
				if err != nil {
					return err
				}
				locs = append(locs, loc)
			}
			if asJSON {
				enc := json.NewEncoder(o.out)
				enc.SetIndent("", "  ")
				return enc.Encode(locs)
			}
			return writeTable(o.out, locs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of tab separated lines")
	return cmd
}

func writeTable(w io.Writer, locs []model.ResolvedLocation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, '\t', 0)
	for _, l := range locs {
		detail := l.District
		if l.Outcome == model.OutcomeGeocoded {
			detail = l.Provider
		}
		coord := l.Coordinate.String()
		if !l.Resolved() {
			detail, coord = "-", l.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Address, l.Outcome, detail, coord)
	}
	return tw.Flush()
}
