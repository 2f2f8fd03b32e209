package trader

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

type BybitExecutor struct {
	client        *bybit.Client
	quoteCurrency string
}

func NewBybitExecutor(client *bybit.Client, quoteCurrency string) *BybitExecutor {
	return &BybitExecutor{client: client, quoteCurrency: quoteCurrency}
}

func (e *BybitExecutor) symbol(s domain.Symbol) bybit.SymbolV5 {
	return bybit.SymbolV5(string(s) + e.quoteCurrency)
}

// PlaceMarketBuy spends the given notional quote amount on the symbol. Bybit
// spot market buys take the quantity in quote currency.
func (e *BybitExecutor) PlaceMarketBuy(ctx context.Context, symbol domain.Symbol, notional decimal.Decimal, clientOrderID string) (domain.OrderResult, error) {
	res, err := e.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    bybit.CategoryV5Spot,
		Symbol:      e.symbol(symbol),
		Side:        bybit.SideBuy,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         notional.RoundFloor(2).String(),
		OrderLinkID: &clientOrderID,
	})
	if err != nil {
		return domain.OrderResult{}, errors.Wrap(err, "bybit market buy")
	}

	// bybit does not return fill details on creation; the fill quantity is
	// derived from the notional by the caller's snapshot price
	return domain.OrderResult{OrderID: res.Result.OrderID}, nil
}

// PlaceLimitSell places a limit sell and returns the exchange order id.
func (e *BybitExecutor) PlaceLimitSell(ctx context.Context, symbol domain.Symbol, quantity, limitPrice decimal.Decimal, clientOrderID string) (string, error) {
	price := limitPrice.String()
	res, err := e.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    bybit.CategoryV5Spot,
		Symbol:      e.symbol(symbol),
		Side:        bybit.SideSell,
		OrderType:   bybit.OrderTypeLimit,
		Qty:         quantity.RoundFloor(quantityPrecision).String(),
		Price:       &price,
		OrderLinkID: &clientOrderID,
	})
	if err != nil {
		return "", errors.Wrap(err, "bybit limit sell")
	}

	return res.Result.OrderID, nil
}

// PlaceMarketSell sells the given base quantity at market.
func (e *BybitExecutor) PlaceMarketSell(ctx context.Context, symbol domain.Symbol, quantity decimal.Decimal, clientOrderID string) (domain.OrderResult, error) {
	res, err := e.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    bybit.CategoryV5Spot,
		Symbol:      e.symbol(symbol),
		Side:        bybit.SideSell,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         quantity.RoundFloor(quantityPrecision).String(),
		OrderLinkID: &clientOrderID,
	})
	if err != nil {
		return domain.OrderResult{}, errors.Wrap(err, "bybit market sell")
	}

	return domain.OrderResult{OrderID: res.Result.OrderID, FilledQuantity: quantity}, nil
}

// ListOpenOrders returns the symbol's currently open orders.
func (e *BybitExecutor) ListOpenOrders(ctx context.Context, symbol domain.Symbol) ([]domain.OpenOrder, error) {
	sym := e.symbol(symbol)
	res, err := e.client.V5().Order().GetOpenOrders(bybit.V5GetOpenOrdersParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &sym,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list bybit open orders")
	}

	out := make([]domain.OpenOrder, 0, len(res.Result.List))
	for _, o := range res.Result.List {
		out = append(out, domain.OpenOrder{
			OrderID: o.OrderID,
			Status:  string(o.OrderStatus),
		})
	}
	return out, nil
}

// GetBalance returns the unified-account wallet balance for the currency.
func (e *BybitExecutor) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	res, err := e.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get bybit wallet balance")
	}

	for _, account := range res.Result.List {
		for _, coin := range account.Coin {
			if string(coin.Coin) == currency {
				balance, err := decimal.NewFromString(coin.WalletBalance)
				if err != nil {
					return decimal.Zero, errors.Wrap(err, "parse balance")
				}
				return balance, nil
			}
		}
	}

	return decimal.Zero, nil
}
