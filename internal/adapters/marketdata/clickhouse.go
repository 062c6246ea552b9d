package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"consilium/pkg/errors"
)

// ClickHouseProvider reads candles and fundamentals snapshots from
// ClickHouse.
type ClickHouseProvider struct {
	conn driver.Conn
}

var _ Provider = (*ClickHouseProvider)(nil)

// Options configures the ClickHouse connection.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// NewClickHouseProvider connects to ClickHouse and verifies the
// connection.
func NewClickHouseProvider(opts Options) (*ClickHouseProvider, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.User,
			Password: opts.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to clickhouse")
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to ping clickhouse")
	}

	return &ClickHouseProvider{conn: conn}, nil
}

// Close closes the connection.
func (p *ClickHouseProvider) Close() error {
	return p.conn.Close()
}

// Candles returns daily bars for the lookback window ending at date.
func (p *ClickHouseProvider) Candles(ctx context.Context, ticker string, date time.Time, lookbackDays int) ([]Candle, error) {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	from := date.AddDate(0, 0, -lookbackDays)

	var candles []Candle
	query := `
		SELECT open_time, open, high, low, close, volume
		FROM daily_candles
		WHERE ticker = ? AND open_time >= ? AND open_time < ?
		ORDER BY open_time`

	if err := p.conn.Select(ctx, &candles, query, ticker, from, date.AddDate(0, 0, 1)); err != nil {
		return nil, errors.Wrapf(err, "query candles for %s", ticker)
	}
	return candles, nil
}

// Fundamentals returns the latest fundamentals snapshot on or before
// date, rendered as a key/value document.
func (p *ClickHouseProvider) Fundamentals(ctx context.Context, ticker string, date time.Time) (string, error) {
	var rows []struct {
		Metric string `ch:"metric"`
		Value  string `ch:"value"`
	}

	query := `
		SELECT metric, value
		FROM fundamentals
		WHERE ticker = ? AND as_of <= ?
		ORDER BY as_of DESC
		LIMIT 1 BY metric`

	if err := p.conn.Select(ctx, &rows, query, ticker, date); err != nil {
		return "", errors.Wrapf(err, "query fundamentals for %s", ticker)
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%s: %s\n", row.Metric, row.Value)
	}
	return b.String(), nil
}

// RenderCandles formats candles for prompt construction.
func RenderCandles(candles []Candle) string {
	var b strings.Builder
	for _, c := range candles {
		fmt.Fprintf(&b, "%s O:%s H:%s L:%s C:%s V:%s\n",
			c.OpenTime.Format("2006-01-02"),
			c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume.String())
	}
	return b.String()
}
