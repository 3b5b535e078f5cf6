package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bpi-tracker/internal/domain"
)

const (
	defaultCoinDeskURL = "https://api.coindesk.com/v1/bpi/currentprice.json"
	// updatedLayout matches values such as "Mar 25, 2024 10:15:00 UTC".
	updatedLayout = "Jan 2, 2006 15:04:05 UTC"
	maxErrorBody  = 256
)

// CoinDeskOptions parameterise the BPI fetcher.
type CoinDeskOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
	Location  *time.Location
}

// CoinDesk fetches the current USD rate from the CoinDesk Bitcoin Price Index.
type CoinDesk struct {
	opts   CoinDeskOptions
	logger zerolog.Logger
	client *http.Client
}

// NewCoinDesk constructs a BPI fetcher.
func NewCoinDesk(opts CoinDeskOptions, logger zerolog.Logger) *CoinDesk {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(opts.URL) == "" {
		opts.URL = defaultCoinDeskURL
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &CoinDesk{
		opts:   opts,
		logger: logger.With().Str("component", "bpi_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// FetchPrice retrieves the BPI and returns it as a sample in the configured zone.
func (c *CoinDesk) FetchPrice(ctx context.Context) (domain.Sample, error) {
	sample, err := c.fetch(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error fetching Bitcoin price")
		return domain.Sample{}, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}

	c.logger.Info().
		Str("time", sample.Clock()).
		Str("price", sample.Price.StringFixed(2)).
		Msgf("Fetched Bitcoin price at %s: $%s", sample.Clock(), sample.Price.StringFixed(2))
	return sample, nil
}

func (c *CoinDesk) fetch(ctx context.Context) (domain.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL, nil)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Sample{}, parseHTTPError(resp.StatusCode, payload)
	}

	return decodePrice(payload, c.opts.Location)
}

type bpiResponse struct {
	Time struct {
		Updated string `json:"updated"`
	} `json:"time"`
	BPI struct {
		USD struct {
			RateFloat json.RawMessage `json:"rate_float"`
		} `json:"USD"`
	} `json:"bpi"`
}

func decodePrice(payload []byte, loc *time.Location) (domain.Sample, error) {
	var res bpiResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return domain.Sample{}, fmt.Errorf("decode body: %w", err)
	}

	raw := bytes.TrimSpace(res.BPI.USD.RateFloat)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.Sample{}, errors.New("bpi.USD.rate_float missing")
	}
	// 只接受 JSON 数字, 字符串形式的价格视为格式错误
	if raw[0] == '"' {
		return domain.Sample{}, fmt.Errorf("bpi.USD.rate_float is not a number: %s", raw)
	}
	price, err := decimal.NewFromString(string(raw))
	if err != nil {
		return domain.Sample{}, fmt.Errorf("parse rate_float: %w", err)
	}

	if res.Time.Updated == "" {
		return domain.Sample{}, errors.New("time.updated missing")
	}
	updated, err := time.ParseInLocation(updatedLayout, res.Time.Updated, time.UTC)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("parse time.updated: %w", err)
	}

	return domain.NewSample(updated.In(loc), price), nil
}

func parseHTTPError(status int, payload []byte) error {
	if body := strings.TrimSpace(string(payload)); body != "" {
		body = truncate(body, maxErrorBody)
		return fmt.Errorf("bpi api error (%d): %s", status, body)
	}
	return fmt.Errorf("bpi api error (%d)", status)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

var _ PriceFetcher = (*CoinDesk)(nil)
