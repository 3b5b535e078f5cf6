package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ClockLayout is the wall-clock format used wherever a sample time is shown.
const ClockLayout = "15:04:05"

// Sample is one observed BPI price. At carries the full zoned timestamp.
type Sample struct {
	At    time.Time
	Price decimal.Decimal
}

// NewSample builds a sample.
func NewSample(at time.Time, price decimal.Decimal) Sample {
	return Sample{At: at, Price: price}
}

// Clock returns the HH:MM:SS representation of the sample time.
func (s Sample) Clock() string {
	return s.At.Format(ClockLayout)
}

type sampleJSON struct {
	Time      string      `json:"time"`
	Price     json.Number `json:"price"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

// MarshalJSON writes {"time","price","timestamp"} with price as a JSON number.
func (s Sample) MarshalJSON() ([]byte, error) {
	at := s.At
	return json.Marshal(sampleJSON{
		Time:      s.Clock(),
		Price:     json.Number(s.Price.String()),
		Timestamp: &at,
	})
}

// UnmarshalJSON accepts both the current form and legacy objects that only
// carry "time" and "price".
func (s *Sample) UnmarshalJSON(data []byte) error {
	var raw sampleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Price == "" {
		return fmt.Errorf("sample: missing price")
	}
	price, err := decimal.NewFromString(raw.Price.String())
	if err != nil {
		return fmt.Errorf("sample: parse price: %w", err)
	}

	var at time.Time
	switch {
	case raw.Timestamp != nil:
		at = *raw.Timestamp
	case raw.Time != "":
		at, err = time.Parse(ClockLayout, raw.Time)
		if err != nil {
			return fmt.Errorf("sample: parse time: %w", err)
		}
	default:
		return fmt.Errorf("sample: missing time")
	}

	s.At = at
	s.Price = price
	return nil
}
