package alerting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Notification 封装一次通知内容。
type Notification struct {
	Subject string
	Body    string
	Price   decimal.Decimal
	At      time.Time
}

// Notifier 定义通知输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}
