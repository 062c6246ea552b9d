package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar.
type Candle struct {
	OpenTime time.Time       `ch:"open_time"`
	Open     decimal.Decimal `ch:"open"`
	High     decimal.Decimal `ch:"high"`
	Low      decimal.Decimal `ch:"low"`
	Close    decimal.Decimal `ch:"close"`
	Volume   decimal.Decimal `ch:"volume"`
}

// Provider serves historical market data consumed by the market and
// fundamentals analysts. Failures surface to the owning agent; the
// workflow core never handles them directly.
type Provider interface {
	// Candles returns daily bars for the lookback window ending at date.
	Candles(ctx context.Context, ticker string, date time.Time, lookbackDays int) ([]Candle, error)

	// Fundamentals returns a rendered fundamentals document for the
	// ticker as of date.
	Fundamentals(ctx context.Context, ticker string, date time.Time) (string, error)
}
