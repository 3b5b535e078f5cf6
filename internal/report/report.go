package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bpi-tracker/internal/alerting"
	"bpi-tracker/internal/domain"
)

// Subject is the fixed notification subject.
const Subject = "Bitcoin Price Index (BPI) - Maximum Price Last Hour"

// Reporter selects the session maximum and dispatches it.
type Reporter struct {
	notifier alerting.Notifier
	logger   zerolog.Logger
}

// New constructs a Reporter. A nil notifier only logs the maximum.
func New(notifier alerting.Notifier, logger zerolog.Logger) *Reporter {
	return &Reporter{notifier: notifier, logger: logger.With().Str("component", "reporter").Logger()}
}

// ReportMax finds the stable maximum of seq and notifies it. The chosen sample
// is returned even when delivery fails.
func (r *Reporter) ReportMax(ctx context.Context, seq *domain.Sequence) (domain.Sample, error) {
	best, err := seq.Max()
	if err != nil {
		return domain.Sample{}, err
	}

	note := BuildNotification(best)
	r.logger.Info().Str("time", best.Clock()).Str("price", best.Price.StringFixed(2)).Msg("maximum price selected")

	if r.notifier == nil {
		r.logger.Warn().Msg("notifications disabled; maximum not delivered")
		return best, nil
	}

	if err := r.notifier.Notify(ctx, note); err != nil {
		r.logger.Error().Err(err).Msg("Error sending email")
		return best, fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}
	return best, nil
}

// BuildNotification formats the maximum into the fixed notification layout.
func BuildNotification(best domain.Sample) alerting.Notification {
	return alerting.Notification{
		Subject: Subject,
		Body:    fmt.Sprintf("The maximum Bitcoin price in the last hour was $%s at %s", best.Price.StringFixed(2), best.Clock()),
		Price:   best.Price,
		At:      best.At,
	}
}
