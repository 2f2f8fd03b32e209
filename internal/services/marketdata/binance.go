// Package marketdata provides price feeds for the tracked basket.
package marketdata

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
	"github.com/dsox1/amplalgo-app-sub000/pkg/retrier"
)

// Binance allows 1200 request weight per minute; stay well under it.
const binanceRequestsPerSecond = 5

// BinanceProvider fetches spot prices from Binance. A fetch never fails as a
// whole: symbols the exchange cannot price this round are simply absent from
// the result, and the caller's snapshot merge keeps their stale prices.
type BinanceProvider struct {
	client        *binance.Client
	logger        *zap.Logger
	quoteCurrency string
	limiter       *rate.Limiter
	retrier       *retrier.Retrier
}

// NewBinanceProvider creates a rate-limited Binance price provider. Prices
// are quoted against quoteCurrency (e.g. "USDT").
func NewBinanceProvider(client *binance.Client, logger *zap.Logger, quoteCurrency string) *BinanceProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BinanceProvider{
		client:        client,
		logger:        logger,
		quoteCurrency: quoteCurrency,
		limiter:       rate.NewLimiter(rate.Limit(binanceRequestsPerSecond), binanceRequestsPerSecond),
		retrier: retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(200*time.Millisecond),
			retrier.WithMaxInterval(2*time.Second),
		),
	}
}

// FetchPrices returns the prices it could obtain for the requested symbols.
func (p *BinanceProvider) FetchPrices(ctx context.Context, symbols []domain.Symbol) (map[domain.Symbol]decimal.Decimal, error) {
	prices := make(map[domain.Symbol]decimal.Decimal, len(symbols))

	for _, symbol := range symbols {
		if err := p.limiter.Wait(ctx); err != nil {
			return prices, err
		}

		price, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
			return p.fetchPrice(ctx, symbol)
		})
		if err != nil {
			p.logger.Warn("price fetch failed, keeping stale price",
				zap.String("symbol", string(symbol)),
				zap.Error(err))
			continue
		}

		prices[symbol] = price
	}

	return prices, nil
}

func (p *BinanceProvider) fetchPrice(ctx context.Context, symbol domain.Symbol) (decimal.Decimal, error) {
	listed, err := p.client.NewListPricesService().
		Symbol(string(symbol) + p.quoteCurrency).
		Do(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(listed) == 0 {
		return decimal.Zero, errors.Errorf("no price returned for %s", symbol)
	}

	return decimal.NewFromString(listed[0].Price)
}
