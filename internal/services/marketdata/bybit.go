package marketdata

import (
	"context"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
	"github.com/dsox1/amplalgo-app-sub000/pkg/retrier"
)

const bybitRequestsPerSecond = 5

// BybitProvider fetches spot tickers from Bybit with the same partial-result
// contract as the Binance provider.
type BybitProvider struct {
	client        *bybit.Client
	logger        *zap.Logger
	quoteCurrency string
	limiter       *rate.Limiter
	retrier       *retrier.Retrier
}

// NewBybitProvider creates a rate-limited Bybit price provider.
func NewBybitProvider(client *bybit.Client, logger *zap.Logger, quoteCurrency string) *BybitProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BybitProvider{
		client:        client,
		logger:        logger,
		quoteCurrency: quoteCurrency,
		limiter:       rate.NewLimiter(rate.Limit(bybitRequestsPerSecond), bybitRequestsPerSecond),
		retrier: retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(200*time.Millisecond),
			retrier.WithMaxInterval(2*time.Second),
		),
	}
}

// FetchPrices returns the prices it could obtain for the requested symbols.
func (p *BybitProvider) FetchPrices(ctx context.Context, symbols []domain.Symbol) (map[domain.Symbol]decimal.Decimal, error) {
	prices := make(map[domain.Symbol]decimal.Decimal, len(symbols))

	for _, symbol := range symbols {
		if err := p.limiter.Wait(ctx); err != nil {
			return prices, err
		}

		price, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
			return p.fetchPrice(symbol)
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

func (p *BybitProvider) fetchPrice(symbol domain.Symbol) (decimal.Decimal, error) {
	ticker := bybit.SymbolV5(string(symbol) + p.quoteCurrency)
	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &ticker,
	})
	if err != nil {
		return decimal.Zero, err
	}
	if len(result.Result.Spot.List) == 0 {
		return decimal.Zero, errors.Errorf("no price returned for %s", symbol)
	}

	return decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
}
