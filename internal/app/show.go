package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Show prints the samples of the snapshot file, the last Limit of them when
// Limit is positive.
func (a *App) Show(ctx context.Context, w io.Writer, opts ShowOptions) error {
	seq, err := a.loadSequence(ctx)
	if err != nil {
		return err
	}
	if seq.IsEmpty() {
		fmt.Fprintln(w, "no samples found")
		return nil
	}

	samples := seq.All()
	if opts.Limit > 0 && len(samples) > opts.Limit {
		samples = samples[len(samples)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "#\tTime\tPrice (USD)\tTimestamp")

	offset := seq.Len() - len(samples)
	for i, sample := range samples {
		stamp := ""
		if sample.At.Year() > 1 {
			stamp = sample.At.Format(time.RFC3339)
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", offset+i+1, sample.Clock(), sample.Price.StringFixed(2), stamp)
	}

	if best, err := seq.Max(); err == nil {
		fmt.Fprintf(writer, "max\t%s\t%s\t\n", best.Clock(), best.Price.StringFixed(2))
	}

	return writer.Flush()
}
