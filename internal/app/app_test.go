package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpi-tracker/internal/alerting"
	"bpi-tracker/internal/config"
	"bpi-tracker/internal/domain"
	"bpi-tracker/internal/fetcher"
	"bpi-tracker/internal/retry"
	"bpi-tracker/internal/storage"
)

type captureNotifier struct {
	notes []alerting.Notification
	err   error
}

func (c *captureNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	c.notes = append(c.notes, note)
	return c.err
}

var _ alerting.Notifier = (*captureNotifier)(nil)

func testConfig(t *testing.T, cycles int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Source:    config.SourceConfig{URL: "http://unused", Timezone: "UTC"},
		Collector: config.CollectorConfig{Cycles: cycles, FailurePolicy: config.PolicySkip},
		Snapshot:  config.SnapshotConfig{Path: filepath.Join(dir, "btc_price.json")},
		Chart: config.ChartConfig{
			Enabled:  true,
			PNGPath:  filepath.Join(dir, "btc_price.png"),
			Width:    600,
			Height:   400,
			MaxTicks: 10,
		},
	}
}

func priceSequence(prices ...float64) fetcher.PriceFetcher {
	base := time.Date(2024, 3, 25, 10, 0, 0, 0, time.UTC)
	i := 0
	return fetcher.Func(func(ctx context.Context) (domain.Sample, error) {
		p := prices[i]
		at := base.Add(time.Duration(i) * time.Minute)
		i++
		if p < 0 {
			return domain.Sample{}, domain.ErrFetch
		}
		return domain.NewSample(at, decimal.NewFromFloat(p)), nil
	})
}

func newTestApp(cfg *config.Config, f fetcher.PriceFetcher, n alerting.Notifier) (*App, *bytes.Buffer) {
	var buf bytes.Buffer
	a := NewApp(cfg, zerolog.New(&buf))
	a.fetcher = f
	a.notifier = n
	return a, &buf
}

func TestRunFullSession(t *testing.T) {
	cfg := testConfig(t, 4)
	notifier := &captureNotifier{}
	a, logs := newTestApp(cfg, priceSequence(100, 300, -1, 300), notifier)

	require.NoError(t, a.Run(context.Background()))

	require.Len(t, notifier.notes, 1, "应发送一次通知")
	assert.Equal(t, "The maximum Bitcoin price in the last hour was $300.00 at 10:01:00", notifier.notes[0].Body)

	samples, err := storage.NewFileStore(cfg.Snapshot.Path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, samples, 3)

	info, err := os.Stat(cfg.Chart.PNGPath)
	require.NoError(t, err, "应生成图表")
	assert.Positive(t, info.Size())

	out := logs.String()
	assert.Contains(t, out, "Starting the Bitcoin price tracking script.")
	assert.Contains(t, out, "Collected prices successfully.")
	assert.Contains(t, out, "Script completed.")
	assert.Contains(t, out, `"run_id"`)
	assert.NotContains(t, out, `"level":"fatal"`)
}

func TestRunNothingCollected(t *testing.T) {
	cfg := testConfig(t, 3)
	notifier := &captureNotifier{}
	a, logs := newTestApp(cfg, priceSequence(-1, -1, -1), notifier)

	require.NoError(t, a.Run(context.Background()))

	assert.Empty(t, notifier.notes, "无数据时不应发送通知")
	_, err := os.Stat(cfg.Chart.PNGPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "无数据时不应生成图表")
	_, err = os.Stat(cfg.Snapshot.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "无数据时不应生成快照")

	out := logs.String()
	assert.Contains(t, out, "No prices were collected, skipping graph generation and email.")
	assert.Contains(t, out, "Script completed.")
}

func TestRunDeliveryFailureStillCharts(t *testing.T) {
	cfg := testConfig(t, 2)
	notifier := &captureNotifier{err: errors.New("smtp down")}
	a, logs := newTestApp(cfg, priceSequence(1, 2), notifier)

	require.NoError(t, a.Run(context.Background()))

	_, err := os.Stat(cfg.Chart.PNGPath)
	require.NoError(t, err, "发信失败后仍应出图")
	assert.Contains(t, logs.String(), "Error sending email")
	assert.NotContains(t, logs.String(), `"level":"fatal"`)
}

func TestRunRecoversPanic(t *testing.T) {
	cfg := testConfig(t, 1)
	boom := fetcher.Func(func(ctx context.Context) (domain.Sample, error) {
		panic("boom")
	})
	a, logs := newTestApp(cfg, boom, &captureNotifier{})

	require.NoError(t, a.Run(context.Background()))

	out := logs.String()
	assert.Equal(t, 1, strings.Count(out, `"level":"fatal"`), "致命错误只记录一次")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "Script completed.")
}

func TestRunCancelledKeepsPartial(t *testing.T) {
	cfg := testConfig(t, 5)
	cfg.Collector.Interval = time.Hour
	notifier := &captureNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	f := fetcher.Func(func(context.Context) (domain.Sample, error) {
		defer cancel()
		return domain.NewSample(time.Date(2024, 3, 25, 10, 0, 0, 0, time.UTC), decimal.NewFromInt(42)), nil
	})
	a, logs := newTestApp(cfg, f, notifier)

	require.NoError(t, a.Run(ctx))

	require.Len(t, notifier.notes, 1, "中断后仍应报告已采集数据")
	assert.Contains(t, logs.String(), "collection interrupted")

	onDisk, err := storage.NewFileStore(cfg.Snapshot.Path).Load(context.Background())
	require.NoError(t, err, "报告的样本必须已落盘")
	assert.Len(t, onDisk, 1)
}

func TestShow(t *testing.T) {
	cfg := testConfig(t, 1)
	store := storage.NewFileStore(cfg.Snapshot.Path)
	base := time.Date(2024, 3, 25, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), []domain.Sample{
		domain.NewSample(base, decimal.NewFromFloat(10.5)),
		domain.NewSample(base.Add(time.Minute), decimal.NewFromFloat(20)),
		domain.NewSample(base.Add(2*time.Minute), decimal.NewFromFloat(15)),
	}))

	a, _ := newTestApp(cfg, nil, nil)
	var out bytes.Buffer
	require.NoError(t, a.Show(context.Background(), &out, ShowOptions{Limit: 2}))

	text := out.String()
	assert.NotContains(t, text, "10.50", "limit 应只显示最后两条")
	assert.Contains(t, text, "10:01:00")
	assert.Contains(t, text, "15.00")
	assert.Contains(t, text, "max")
}

func TestShowMissingSnapshot(t *testing.T) {
	a, _ := newTestApp(testConfig(t, 1), nil, nil)
	err := a.Show(context.Background(), &bytes.Buffer{}, ShowOptions{})
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)
}

func TestChartAndReportFromSnapshot(t *testing.T) {
	cfg := testConfig(t, 1)
	store := storage.NewFileStore(cfg.Snapshot.Path)
	base := time.Date(2024, 3, 25, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), []domain.Sample{
		domain.NewSample(base, decimal.NewFromFloat(7)),
		domain.NewSample(base.Add(time.Minute), decimal.NewFromFloat(9)),
	}))

	notifier := &captureNotifier{}
	a, _ := newTestApp(cfg, nil, notifier)

	htmlPath := filepath.Join(t.TempDir(), "btc_price.html")
	require.NoError(t, a.Chart(context.Background(), ChartOptions{HTMLPath: htmlPath}))
	_, err := os.Stat(htmlPath)
	require.NoError(t, err)

	require.NoError(t, a.Report(context.Background()))
	require.Len(t, notifier.notes, 1)
	assert.Equal(t, "The maximum Bitcoin price in the last hour was $9.00 at 10:01:00", notifier.notes[0].Body)
}

func TestReportRequiresNotifier(t *testing.T) {
	a, _ := newTestApp(testConfig(t, 1), nil, nil)
	assert.Error(t, a.Report(context.Background()))
}

func TestNewPolicy(t *testing.T) {
	cfg := testConfig(t, 1)
	a, _ := newTestApp(cfg, nil, nil)
	_, isSkip := a.newPolicy().(retry.Skip)
	assert.True(t, isSkip, "默认策略应为 skip")

	cfg.Collector.FailurePolicy = config.PolicyRetry
	cfg.Collector.Retry = config.RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 2}
	calls := 0
	err := a.newPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return domain.ErrFetch
	})
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Equal(t, 3, calls, "retry 策略应重试两次")
}
