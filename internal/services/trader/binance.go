// Package trader implements order execution against supported exchanges and
// an in-process simulator.
package trader

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

// quantityPrecision keeps order sizes within common exchange lot filters.
const quantityPrecision = 4

type BinanceExecutor struct {
	client        *binance.Client
	quoteCurrency string
}

func NewBinanceExecutor(client *binance.Client, quoteCurrency string) *BinanceExecutor {
	return &BinanceExecutor{client: client, quoteCurrency: quoteCurrency}
}

func (e *BinanceExecutor) symbol(s domain.Symbol) string {
	return string(s) + e.quoteCurrency
}

// PlaceMarketBuy spends the given notional quote amount on the symbol.
func (e *BinanceExecutor) PlaceMarketBuy(ctx context.Context, symbol domain.Symbol, notional decimal.Decimal, clientOrderID string) (domain.OrderResult, error) {
	res, err := e.client.NewCreateOrderService().
		Symbol(e.symbol(symbol)).
		Side(binance.SideTypeBuy).
		Type(binance.OrderTypeMarket).
		QuoteOrderQty(notional.RoundFloor(2).String()).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return domain.OrderResult{}, wrapOrderErr(err, "binance market buy")
	}

	return orderResultFromCreate(res)
}

// PlaceLimitSell places a GTC limit sell and returns the exchange order id.
func (e *BinanceExecutor) PlaceLimitSell(ctx context.Context, symbol domain.Symbol, quantity, limitPrice decimal.Decimal, clientOrderID string) (string, error) {
	res, err := e.client.NewCreateOrderService().
		Symbol(e.symbol(symbol)).
		Side(binance.SideTypeSell).
		Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeGTC).
		Quantity(quantity.RoundFloor(quantityPrecision).String()).
		Price(limitPrice.String()).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return "", wrapOrderErr(err, "binance limit sell")
	}

	return strconv.FormatInt(res.OrderID, 10), nil
}

// PlaceMarketSell sells the given base quantity at market.
func (e *BinanceExecutor) PlaceMarketSell(ctx context.Context, symbol domain.Symbol, quantity decimal.Decimal, clientOrderID string) (domain.OrderResult, error) {
	res, err := e.client.NewCreateOrderService().
		Symbol(e.symbol(symbol)).
		Side(binance.SideTypeSell).
		Type(binance.OrderTypeMarket).
		Quantity(quantity.RoundFloor(quantityPrecision).String()).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return domain.OrderResult{}, wrapOrderErr(err, "binance market sell")
	}

	return orderResultFromCreate(res)
}

// ListOpenOrders returns the symbol's currently open orders.
func (e *BinanceExecutor) ListOpenOrders(ctx context.Context, symbol domain.Symbol) ([]domain.OpenOrder, error) {
	orders, err := e.client.NewListOpenOrdersService().
		Symbol(e.symbol(symbol)).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list binance open orders")
	}

	out := make([]domain.OpenOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, domain.OpenOrder{
			OrderID: strconv.FormatInt(o.OrderID, 10),
			Status:  string(o.Status),
		})
	}
	return out, nil
}

// GetBalance returns the free spot balance for the currency.
func (e *BinanceExecutor) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	account, err := e.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get binance account balance")
	}

	for _, balance := range account.Balances {
		if balance.Asset == currency {
			free, err := decimal.NewFromString(balance.Free)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "parse balance")
			}
			return free, nil
		}
	}

	return decimal.Zero, nil
}

func orderResultFromCreate(res *binance.CreateOrderResponse) (domain.OrderResult, error) {
	executedQty, err := decimal.NewFromString(res.ExecutedQuantity)
	if err != nil {
		return domain.OrderResult{}, errors.Wrap(err, "parse executed quantity")
	}

	result := domain.OrderResult{
		OrderID:        strconv.FormatInt(res.OrderID, 10),
		FilledQuantity: executedQty,
	}

	// average fill price from the cumulative quote spend
	if cumQuote, err := decimal.NewFromString(res.CummulativeQuoteQuantity); err == nil &&
		cumQuote.IsPositive() && executedQty.IsPositive() {
		result.FilledPrice = cumQuote.Div(executedQty)
	}

	return result, nil
}

// wrapOrderErr maps exchange-side rejections onto the shared sentinel so
// callers can match with errors.Is.
func wrapOrderErr(err error, msg string) error {
	if apiErr, ok := err.(*common.APIError); ok && apiErr.Code == -2010 {
		return errors.Wrapf(domain.ErrOrderRejected, "%s: %s", msg, apiErr.Message)
	}
	return errors.Wrap(err, msg)
}
