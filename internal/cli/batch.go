package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
	"github.com/mohammed-shakir/garage-geo/internal/records"
	"github.com/mohammed-shakir/garage-geo/internal/resolver"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

type batchOutput struct {
	Records []model.PlacedRecord `json:"records"`
	Summary resolver.Summary     `json:"summary"`
	Partial bool                 `json:"partial,omitempty"`
}

func newBatchCmd(o *rootOptions) *cobra.Command {
	var input, output, format string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Place every record of a garage CSV file",
		Long: `Reads a facility CSV (UTF-8 or CP949), detects the name, address, capacity
and coordinate columns from the header and places every row. Rows that
already carry coordinates are kept as they are.

$ garage-resolve batch --input garages.csv --output placed.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == "" {
				format = formatFromPath(output)
			}
			if format != formatJSON && format != formatCSV {
				return fmt.Errorf("unknown output format %q", format)
			}

			recs, err := records.LoadFile(input)
			if err != nil {
				return err
			}

			a, cfg, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a, o.errOut)

			var opts []resolver.BatchOption
			if bar := o.progressBar(len(recs)); bar != nil {
				opts = append(opts, resolver.WithProgress(func(done, _ int) { _ = bar.Set(done) }))
				defer func() { _ = bar.Finish() }()
			}

			placed, runErr := a.Resolver.ResolveRecords(cmd.Context(), recs, opts...)
			res := batchOutput{
				Records: placed,
				Summary: resolver.SummarizeRecords(placed),
				Partial: runErr != nil,
			}

			if err := o.writeBatch(output, format, res); err != nil {
				return err
			}
			o.report(res, cfg.UnresolvedWarnRatio)
			return runErr
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "facility CSV file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	cmd.Flags().StringVar(&format, "format", "", "output format (json, csv); taken from --output when empty")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func formatFromPath(p string) string {
	if strings.EqualFold(filepath.Ext(p), ".csv") {
		return formatCSV
	}
	return formatJSON
}

// progressBar draws on stderr only when stderr is a terminal.
func (o *rootOptions) progressBar(n int) *progressbar.ProgressBar {
	f, ok := o.errOut.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) || n == 0 {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Resolving"),
		progressbar.OptionSetWriter(f),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (o *rootOptions) writeBatch(path, format string, res batchOutput) (err error) {
	w := o.out
	if path != "" {
		f, ferr := os.Create(path)
		if ferr != nil {
			return fmt.Errorf("create output: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	if format == formatCSV {
		return writeCSV(w, res.Records)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

var csvHeader = []string{"name", "address", "capacity", "outcome", "district", "lat", "lng", "h3_cell", "provider", "reason"}

func writeCSV(w io.Writer, placed []model.PlacedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range placed {
		loc := p.Location
		lat, lng, capacity := "", "", ""
		if loc.Resolved() {
			lat = strconv.FormatFloat(loc.Coordinate.Lat, 'f', 6, 64)
			lng = strconv.FormatFloat(loc.Coordinate.Lng, 'f', 6, 64)
		}
		if p.Record.Capacity != nil {
			capacity = strconv.FormatFloat(*p.Record.Capacity, 'f', -1, 64)
		}
		row := []string{
			p.Record.Name, p.Record.Address, capacity,
			string(loc.Outcome), loc.District, lat, lng,
			loc.Cell, loc.Provider, loc.Reason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (o *rootOptions) report(res batchOutput, warnRatio float64) {
	s := res.Summary
	fmt.Fprintf(o.errOut, "%d records: %d district, %d geocoded, %d provided, %d unresolved (%d cache hits, %d provider calls)\n",
		s.Total, s.District, s.Geocoded, s.Provided, s.Unresolved, s.CacheHits, s.ProviderCalls)
	if res.Partial {
		fmt.Fprintln(o.errOut, "interrupted: output holds the records finished so far")
	}
	if s.Exceeds(warnRatio) {
		fmt.Fprintf(o.errOut, "warning: %.0f%% of records are unresolved (threshold %.0f%%)\n",
			100*s.UnresolvedRatio(), 100*warnRatio)
	}
}
