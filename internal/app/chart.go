package app

import (
	"context"

	"bpi-tracker/internal/chart"
)

// Chart re-renders the chart from the snapshot file.
func (a *App) Chart(ctx context.Context, opts ChartOptions) error {
	seq, err := a.loadSequence(ctx)
	if err != nil {
		return err
	}

	chartOpts := a.chartOptions()
	if opts.PNGPath != "" || opts.HTMLPath != "" {
		chartOpts.PNGPath = opts.PNGPath
		chartOpts.HTMLPath = opts.HTMLPath
	}

	written, err := chart.WriteFiles(seq.All(), chartOpts)
	if err != nil {
		return err
	}
	a.Logger.Info().Strs("files", written).Int("samples", seq.Len()).Msg("chart rendered")
	return nil
}
