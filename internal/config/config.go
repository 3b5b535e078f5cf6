package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bpi-tracker/internal/logging"
)

const (
	// PolicySkip drops a failed cycle.
	PolicySkip = "skip"
	// PolicyRetry retries a failed fetch with bounded backoff inside the same cycle.
	PolicyRetry = "retry"

	ChannelMail     = "mail"
	ChannelTelegram = "telegram"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Source    SourceConfig    `mapstructure:"source"`
	Collector CollectorConfig `mapstructure:"collector"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Chart     ChartConfig     `mapstructure:"chart"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SourceConfig describes the price index endpoint.
type SourceConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timezone       string        `mapstructure:"timezone"`
}

// CollectorConfig governs sampling cadence and the per-cycle failure policy.
type CollectorConfig struct {
	Cycles        int           `mapstructure:"cycles"`
	Interval      time.Duration `mapstructure:"interval"`
	FailurePolicy string        `mapstructure:"failure_policy"`
	Retry         RetryConfig   `mapstructure:"retry"`
}

// RetryConfig tunes the retry policy.
type RetryConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	Jitter          float64       `mapstructure:"jitter"`
}

// SnapshotConfig locates the JSON snapshot file.
type SnapshotConfig struct {
	Path string `mapstructure:"path"`
}

// NotifyConfig selects and configures the notification channel.
type NotifyConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Channel  string         `mapstructure:"channel"`
	Timeout  time.Duration  `mapstructure:"timeout"`
	Mail     MailConfig     `mapstructure:"mail"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// MailConfig 描述 SMTP 发信参数。密码只能来自环境变量或 .env。
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ChartConfig sets chart output.
type ChartConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	PNGPath  string `mapstructure:"png_path"`
	HTMLPath string `mapstructure:"html_path"`
	Width    int    `mapstructure:"width"`
	Height   int    `mapstructure:"height"`
	MaxTicks int    `mapstructure:"max_ticks"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("BPITRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bpitracker")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.time_format", "2006-01-02 15:04:05")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file.path", "bitcoin_price_log.log")
	v.SetDefault("logging.file.max_size_mb", 10)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.fresh_per_run", true)

	v.SetDefault("source.url", "https://api.coindesk.com/v1/bpi/currentprice.json")
	v.SetDefault("source.request_timeout", "10s")
	v.SetDefault("source.user_agent", "bpitracker/1.0")
	v.SetDefault("source.timezone", "Asia/Jerusalem")

	v.SetDefault("collector.cycles", 60)
	v.SetDefault("collector.interval", "1m")
	v.SetDefault("collector.failure_policy", PolicySkip)
	v.SetDefault("collector.retry.max_retries", 3)
	v.SetDefault("collector.retry.initial_interval", "2s")
	v.SetDefault("collector.retry.max_interval", "15s")
	v.SetDefault("collector.retry.multiplier", 2.0)
	v.SetDefault("collector.retry.jitter", 0.1)

	v.SetDefault("snapshot.path", "btc_price.json")

	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.channel", ChannelMail)
	v.SetDefault("notify.timeout", "30s")
	v.SetDefault("notify.mail.host", "smtp.gmail.com")
	v.SetDefault("notify.mail.port", 465)
	v.SetDefault("notify.mail.username", "")
	v.SetDefault("notify.mail.password", "")
	v.SetDefault("notify.mail.from", "")
	v.SetDefault("notify.mail.to", "")
	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("notify.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("chart.enabled", true)
	v.SetDefault("chart.png_path", "btc_price.png")
	v.SetDefault("chart.html_path", "")
	v.SetDefault("chart.width", 1500)
	v.SetDefault("chart.height", 900)
	v.SetDefault("chart.max_ticks", 10)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Collector.Cycles <= 0 {
		return fmt.Errorf("collector.cycles must be greater than zero")
	}
	if c.Collector.Interval <= 0 {
		return fmt.Errorf("collector.interval must be greater than zero")
	}
	switch c.Collector.FailurePolicy {
	case PolicySkip, PolicyRetry:
	default:
		return fmt.Errorf("collector.failure_policy must be %q or %q, got %q", PolicySkip, PolicyRetry, c.Collector.FailurePolicy)
	}
	if c.Source.URL == "" {
		return fmt.Errorf("source.url must be configured")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path must be configured")
	}
	if c.Chart.Enabled {
		if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
			return fmt.Errorf("chart.width and chart.height must be greater than zero")
		}
		if c.Chart.MaxTicks <= 0 {
			return fmt.Errorf("chart.max_ticks must be greater than zero")
		}
	}
	if c.Notify.Enabled {
		return c.validateNotify()
	}
	return nil
}

func (c *Config) validateNotify() error {
	switch c.Notify.Channel {
	case ChannelMail:
		mail := c.Notify.Mail
		if mail.Host == "" || mail.Port <= 0 {
			return fmt.Errorf("notify.mail.host and notify.mail.port 必须配置")
		}
		if mail.From == "" || mail.To == "" {
			return fmt.Errorf("notify.mail.from and notify.mail.to 必须配置")
		}
		if mail.Password == "" {
			return fmt.Errorf("notify.mail.password 必须通过 BPITRACKER_NOTIFY_MAIL_PASSWORD 配置")
		}
	case ChannelTelegram:
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token 必须配置")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id 必须配置")
		}
	default:
		return fmt.Errorf("notify.channel must be %q or %q, got %q", ChannelMail, ChannelTelegram, c.Notify.Channel)
	}
	return nil
}

// Location resolves the configured target timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Source.Timezone)
	if err != nil {
		return nil, fmt.Errorf("source.timezone %q: %w", c.Source.Timezone, err)
	}
	return loc, nil
}

// MailUsername falls back to the sender address, which is what most relays expect.
func (c *Config) MailUsername() string {
	if c.Notify.Mail.Username != "" {
		return c.Notify.Mail.Username
	}
	return c.Notify.Mail.From
}
