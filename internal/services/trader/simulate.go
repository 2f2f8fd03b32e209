package trader

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
	"github.com/dsox1/amplalgo-app-sub000/internal/storage/simstate"
)

type priceSource interface {
	FetchPrices(ctx context.Context, symbols []domain.Symbol) (map[domain.Symbol]decimal.Decimal, error)
}

type simOrder struct {
	symbol   domain.Symbol
	quantity decimal.Decimal
	limit    decimal.Decimal
}

// SimulateExecutor fills market orders instantly against a price source and
// keeps limit sells open until FillSell or CancelSell is called. Used for dry
// runs and tests; no network involved.
type SimulateExecutor struct {
	mu            sync.Mutex
	logger        *zap.Logger
	prices        priceSource
	quoteCurrency string
	wallet        map[string]decimal.Decimal
	open          map[string]simOrder
	nextID        int
	stateStore    *simstate.Store
}

// NewSimulateExecutor creates a simulator funded with the given quote balance.
func NewSimulateExecutor(logger *zap.Logger, prices priceSource, quoteCurrency string, startingBalance decimal.Decimal) *SimulateExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulateExecutor{
		logger:        logger,
		prices:        prices,
		quoteCurrency: quoteCurrency,
		wallet:        map[string]decimal.Decimal{quoteCurrency: startingBalance},
		open:          make(map[string]simOrder),
	}
}

func (e *SimulateExecutor) price(ctx context.Context, symbol domain.Symbol) (decimal.Decimal, error) {
	prices, err := e.prices.FetchPrices(ctx, []domain.Symbol{symbol})
	if err != nil {
		return decimal.Zero, err
	}

	price, ok := prices[symbol]
	if !ok || !price.IsPositive() {
		return decimal.Zero, errors.Errorf("no price available for %s", symbol)
	}
	return price, nil
}

// WithStateStore restores previously persisted wallet and open orders and
// keeps the store updated after every mutation. The starting balance only
// applies when no prior state exists.
func (e *SimulateExecutor) WithStateStore(store *simstate.Store) (*SimulateExecutor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stateStore = store

	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	if state == nil {
		return e, nil
	}

	wallet := make(map[string]decimal.Decimal, len(state.Wallet))
	for currency, raw := range state.Wallet {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "decode wallet balance for %s", currency)
		}
		wallet[currency] = amount
	}

	open := make(map[string]simOrder, len(state.OpenOrders))
	for _, stored := range state.OpenOrders {
		quantity, err := decimal.NewFromString(stored.Quantity)
		if err != nil {
			return nil, errors.Wrapf(err, "decode order %s quantity", stored.OrderID)
		}
		limit, err := decimal.NewFromString(stored.Limit)
		if err != nil {
			return nil, errors.Wrapf(err, "decode order %s limit", stored.OrderID)
		}
		open[stored.OrderID] = simOrder{symbol: domain.Symbol(stored.Symbol), quantity: quantity, limit: limit}
	}

	e.wallet = wallet
	e.open = open
	e.nextID = state.NextID
	return e, nil
}

// persistLocked saves the current state; callers hold e.mu.
func (e *SimulateExecutor) persistLocked() {
	if e.stateStore == nil {
		return
	}

	state := simstate.State{
		Wallet: make(map[string]string, len(e.wallet)),
		NextID: e.nextID,
	}
	for currency, amount := range e.wallet {
		state.Wallet[currency] = amount.String()
	}
	for id, order := range e.open {
		state.OpenOrders = append(state.OpenOrders, simstate.StoredOrder{
			OrderID:  id,
			Symbol:   string(order.symbol),
			Quantity: order.quantity.String(),
			Limit:    order.limit.String(),
		})
	}

	if err := e.stateStore.Save(state); err != nil {
		e.logger.Warn("failed to persist simulate state", zap.Error(err))
	}
}

func (e *SimulateExecutor) newOrderID() string {
	e.nextID++
	return "sim-" + decimal.NewFromInt(int64(e.nextID)).String()
}

// PlaceMarketBuy converts the notional into base quantity at the current
// price and fills immediately.
func (e *SimulateExecutor) PlaceMarketBuy(ctx context.Context, symbol domain.Symbol, notional decimal.Decimal, _ string) (domain.OrderResult, error) {
	price, err := e.price(ctx, symbol)
	if err != nil {
		return domain.OrderResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.wallet[e.quoteCurrency].LessThan(notional) {
		return domain.OrderResult{}, errors.Wrapf(domain.ErrOrderRejected,
			"simulated %s balance %s below %s", e.quoteCurrency, e.wallet[e.quoteCurrency].String(), notional.String())
	}

	quantity := notional.Div(price)
	e.wallet[e.quoteCurrency] = e.wallet[e.quoteCurrency].Sub(notional)
	e.wallet[string(symbol)] = e.wallet[string(symbol)].Add(quantity)
	e.persistLocked()

	e.logger.Debug("simulated market buy",
		zap.String("symbol", string(symbol)),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()))

	return domain.OrderResult{
		OrderID:        e.newOrderID(),
		FilledQuantity: quantity,
		FilledPrice:    price,
	}, nil
}

// PlaceLimitSell records an open order; nothing fills until FillSell.
func (e *SimulateExecutor) PlaceLimitSell(_ context.Context, symbol domain.Symbol, quantity, limitPrice decimal.Decimal, _ string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.wallet[string(symbol)].LessThan(quantity) {
		return "", errors.Wrapf(domain.ErrOrderRejected,
			"simulated %s balance %s below %s", symbol, e.wallet[string(symbol)].String(), quantity.String())
	}

	orderID := e.newOrderID()
	e.open[orderID] = simOrder{symbol: symbol, quantity: quantity, limit: limitPrice}
	e.persistLocked()
	return orderID, nil
}

// PlaceMarketSell fills immediately at the current price.
func (e *SimulateExecutor) PlaceMarketSell(ctx context.Context, symbol domain.Symbol, quantity decimal.Decimal, _ string) (domain.OrderResult, error) {
	price, err := e.price(ctx, symbol)
	if err != nil {
		return domain.OrderResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.wallet[string(symbol)].LessThan(quantity) {
		return domain.OrderResult{}, errors.Wrapf(domain.ErrOrderRejected,
			"simulated %s balance %s below %s", symbol, e.wallet[string(symbol)].String(), quantity.String())
	}

	e.wallet[string(symbol)] = e.wallet[string(symbol)].Sub(quantity)
	e.wallet[e.quoteCurrency] = e.wallet[e.quoteCurrency].Add(quantity.Mul(price))
	e.persistLocked()

	return domain.OrderResult{
		OrderID:        e.newOrderID(),
		FilledQuantity: quantity,
		FilledPrice:    price,
	}, nil
}

// ListOpenOrders returns the still-open simulated orders for the symbol.
// Before listing, limit sells whose limit the market has reached are filled,
// as a real exchange would have done; a price lookup failure just skips the
// fill check for this call.
func (e *SimulateExecutor) ListOpenOrders(ctx context.Context, symbol domain.Symbol) ([]domain.OpenOrder, error) {
	price, priceErr := e.price(ctx, symbol)

	e.mu.Lock()
	defer e.mu.Unlock()

	if priceErr == nil {
		e.fillReachedLocked(symbol, price)
	}

	out := make([]domain.OpenOrder, 0, len(e.open))
	for id, order := range e.open {
		if order.symbol == symbol {
			out = append(out, domain.OpenOrder{OrderID: id, Status: "open"})
		}
	}
	return out, nil
}

// fillReachedLocked fills every open sell for the symbol whose limit is at or
// below the current price. Callers hold e.mu.
func (e *SimulateExecutor) fillReachedLocked(symbol domain.Symbol, price decimal.Decimal) {
	filled := false
	for id, order := range e.open {
		if order.symbol != symbol || price.LessThan(order.limit) {
			continue
		}

		e.wallet[string(order.symbol)] = e.wallet[string(order.symbol)].Sub(order.quantity)
		e.wallet[e.quoteCurrency] = e.wallet[e.quoteCurrency].Add(order.quantity.Mul(order.limit))
		delete(e.open, id)
		filled = true

		e.logger.Info("simulated limit sell filled",
			zap.String("symbol", string(symbol)),
			zap.String("quantity", order.quantity.String()),
			zap.String("limit", order.limit.String()))
	}
	if filled {
		e.persistLocked()
	}
}

// GetBalance returns the simulated wallet balance for the currency.
func (e *SimulateExecutor) GetBalance(_ context.Context, currency string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wallet[currency], nil
}

// FillSell completes an open limit sell at its limit price, crediting the
// wallet and removing the order from the open list.
func (e *SimulateExecutor) FillSell(orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.open[orderID]
	if !ok {
		return errors.Errorf("no open order %s", orderID)
	}

	e.wallet[string(order.symbol)] = e.wallet[string(order.symbol)].Sub(order.quantity)
	e.wallet[e.quoteCurrency] = e.wallet[e.quoteCurrency].Add(order.quantity.Mul(order.limit))
	delete(e.open, orderID)
	e.persistLocked()
	return nil
}

// CancelSell drops an open limit sell without filling it.
func (e *SimulateExecutor) CancelSell(orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.open[orderID]; !ok {
		return errors.Errorf("no open order %s", orderID)
	}
	delete(e.open, orderID)
	e.persistLocked()
	return nil
}
