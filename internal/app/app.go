package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bpi-tracker/internal/alerting"
	"bpi-tracker/internal/chart"
	"bpi-tracker/internal/config"
	"bpi-tracker/internal/domain"
	"bpi-tracker/internal/fetcher"
	"bpi-tracker/internal/report"
	"bpi-tracker/internal/retry"
	"bpi-tracker/internal/scheduler"
	"bpi-tracker/internal/service"
	"bpi-tracker/internal/storage"
	"bpi-tracker/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	// tests swap these in
	fetcher  fetcher.PriceFetcher
	notifier alerting.Notifier
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher(logger zerolog.Logger) (fetcher.PriceFetcher, error) {
	if a.fetcher != nil {
		return a.fetcher, nil
	}

	loc, err := a.Config.Location()
	if err != nil {
		return nil, err
	}
	return fetcher.NewCoinDesk(fetcher.CoinDeskOptions{
		URL:       a.Config.Source.URL,
		Timeout:   a.Config.Source.RequestTimeout,
		UserAgent: a.Config.Source.UserAgent,
		Location:  loc,
	}, logger), nil
}

func (a *App) newPolicy() retry.Policy {
	cfg := a.Config.Collector
	if cfg.FailurePolicy != config.PolicyRetry {
		return retry.Skip{}
	}
	return retry.NewBackoff(
		retry.WithMaxRetries(cfg.Retry.MaxRetries),
		retry.WithInitialInterval(cfg.Retry.InitialInterval),
		retry.WithMaxInterval(cfg.Retry.MaxInterval),
		retry.WithMultiplier(cfg.Retry.Multiplier),
		retry.WithJitter(cfg.Retry.Jitter),
	)
}

func (a *App) newNotifier(logger zerolog.Logger) alerting.Notifier {
	if a.notifier != nil {
		return a.notifier
	}
	if !a.Config.Notify.Enabled {
		return nil
	}

	cfg := a.Config.Notify
	switch cfg.Channel {
	case config.ChannelTelegram:
		return alerting.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.APIBase, cfg.Timeout, logger)
	default:
		return alerting.NewMailNotifier(alerting.MailOptions{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: a.Config.MailUsername(),
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			To:       cfg.Mail.To,
			Timeout:  cfg.Timeout,
		}, logger)
	}
}

func (a *App) openStore() *storage.FileStore {
	return storage.NewFileStore(a.Config.Snapshot.Path)
}

func (a *App) chartOptions() chart.Options {
	cfg := a.Config.Chart
	return chart.Options{
		Width:    cfg.Width,
		Height:   cfg.Height,
		MaxTicks: cfg.MaxTicks,
		PNGPath:  cfg.PNGPath,
		HTMLPath: cfg.HTMLPath,
	}
}

// Run executes one sampling session: collect, report the maximum, chart.
// Failures are logged, never returned; the session always ends with a
// completion line.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := a.Logger.With().Str("run_id", uuid.NewString()).Logger()
	logger.Info().Str("version", version.Version).Msg("Starting the Bitcoin price tracking script.")

	if err := a.session(ctx, logger); err != nil {
		logger.WithLevel(zerolog.FatalLevel).Err(err).Msg("An error occurred")
	}

	logger.Info().Msg("Script completed.")
	return nil
}

func (a *App) session(ctx context.Context, logger zerolog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrFatal, r)
		}
	}()

	f, err := a.newFetcher(logger)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrFatal, err)
	}

	sched := scheduler.New(scheduler.Options{
		Interval: a.Config.Collector.Interval,
		Cycles:   a.Config.Collector.Cycles,
	}, logger)
	svc := service.New(sched, f, a.newPolicy(), a.openStore(), logger)

	seq, err := svc.Collect(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w", domain.ErrFatal, err)
		}
		logger.Warn().Int("collected", seq.Len()).Msg("collection interrupted")
	}

	if seq.IsEmpty() {
		logger.Warn().Msg("No prices were collected, skipping graph generation and email.")
		return nil
	}
	logger.Info().Int("count", seq.Len()).Msg("Collected prices successfully.")

	// 发信失败不影响出图
	reporter := report.New(a.newNotifier(logger), logger)
	if _, err := reporter.ReportMax(context.WithoutCancel(ctx), seq); err != nil {
		logger.Warn().Err(err).Msg("maximum price not delivered")
	}

	if !a.Config.Chart.Enabled {
		return nil
	}
	written, err := chart.WriteFiles(seq.All(), a.chartOptions())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrFatal, err)
	}
	logger.Info().Strs("files", written).Msg("chart rendered")
	return nil
}

// loadSequence reads the snapshot file into a sequence.
func (a *App) loadSequence(ctx context.Context) (*domain.Sequence, error) {
	samples, err := a.openStore().Load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewSequence(samples...), nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ChartOptions override chart output paths for the chart command.
type ChartOptions struct {
	PNGPath  string
	HTMLPath string
}
