package app

import (
	"context"
	"errors"

	"bpi-tracker/internal/report"
)

// Report re-sends the maximum-price notification from the snapshot file.
func (a *App) Report(ctx context.Context) error {
	notifier := a.newNotifier(a.Logger)
	if notifier == nil {
		return errors.New("notify 未启用")
	}

	seq, err := a.loadSequence(ctx)
	if err != nil {
		return err
	}

	best, err := report.New(notifier, a.Logger).ReportMax(ctx, seq)
	if err != nil {
		return err
	}
	a.Logger.Info().Str("time", best.Clock()).Str("price", best.Price.StringFixed(2)).Msg("report sent")
	return nil
}
