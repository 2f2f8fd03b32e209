// Command amplrebalancer runs the AMPL basket rebalancing engine. It watches
// the primary rebasing token, buys the whole basket in equal parts when the
// price crosses below the trigger, takes profit per position, and protects
// against deep rebase breaks. It supports Binance, Bybit and a local
// simulation mode, configured via a YAML file or command-line arguments.
//
// Usage:
//
//	amplrebalancer --config config.yaml
//	amplrebalancer setup   (interactive wizard, then starts with the result)
//	amplrebalancer         (uses CLI arguments)
//
// Required environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dsox1/amplalgo-app-sub000/config"
	"github.com/dsox1/amplalgo-app-sub000/internal"
	"github.com/dsox1/amplalgo-app-sub000/internal/clients"
	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/ledger"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/marketdata"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/profit"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/rebalance"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/rebase"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/trader"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/trigger"
	"github.com/dsox1/amplalgo-app-sub000/internal/setup"
	"github.com/dsox1/amplalgo-app-sub000/internal/storage/settings"
	"github.com/dsox1/amplalgo-app-sub000/internal/storage/simstate"
	"github.com/dsox1/amplalgo-app-sub000/internal/web"
)

// simulateStartingBalance funds a fresh simulator wallet.
var simulateStartingBalance = decimal.NewFromInt(1000)

type orderExecutor interface {
	PlaceMarketBuy(ctx context.Context, symbol domain.Symbol, notional decimal.Decimal, clientOrderID string) (domain.OrderResult, error)
	PlaceLimitSell(ctx context.Context, symbol domain.Symbol, quantity, limitPrice decimal.Decimal, clientOrderID string) (string, error)
	PlaceMarketSell(ctx context.Context, symbol domain.Symbol, quantity decimal.Decimal, clientOrderID string) (domain.OrderResult, error)
	ListOpenOrders(ctx context.Context, symbol domain.Symbol) ([]domain.OpenOrder, error)
	GetBalance(ctx context.Context, currency string) (decimal.Decimal, error)
}

func main() {
	_ = godotenv.Load()

	conf, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(conf, logger); err != nil && err != context.Canceled {
		logger.Fatal("engine exited", zap.Error(err))
	}
}

func loadConfig() (config.Config, error) {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			return config.Config{}, err
		}
		return config.GetFromFile("config.gen.yaml")
	}
	return config.Get()
}

func run(conf config.Config, logger *zap.Logger) error {
	store, err := settings.NewStore(conf.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	// operator overrides from previous runs win over the config file
	triggerPrice := store.GetDecimal(settings.KeyTriggerPrice, conf.TriggerPrice)
	profitThreshold := store.GetDecimal(settings.KeyProfitThresholdPercent, conf.ProfitThresholdPercent)
	protectionActive := store.GetBool(settings.KeyProtectionActive, conf.ProtectionActive)

	provider, executor, err := createProviderAndExecutor(conf, logger)
	if err != nil {
		return err
	}

	actionLog := domain.NewActionLog(domain.DefaultActionLogCapacity)

	book, err := ledger.New(logger.Named("ledger"), store, profitThreshold)
	if err != nil {
		return err
	}

	monitor := trigger.NewMonitor(logger.Named("trigger"), triggerPrice, conf.RebalanceCooldown)

	estimator := rebase.NewEstimator(logger.Named("rebase"), conf.Basket.Primary, executor, book, actionLog, protectionActive)
	estimator.SetSkipBuyDeviation(conf.SkipBuyDeviation)

	rebalancer := rebalance.NewEngine(logger.Named("rebalance"), conf.Basket, executor, book,
		estimator, actionLog, conf.QuoteCurrency, conf.MinimumTotal)

	profitEngine := profit.NewEngine(logger.Named("profit"), executor, book, actionLog)

	engine, err := internal.NewEngine(logger.Named("engine"), conf, internal.Deps{
		Provider:  provider,
		Monitor:   monitor,
		Ledger:    book,
		Estimator: estimator,
		Rebalance: rebalancer,
		Profit:    profitEngine,
		Store:     store,
		ActionLog: actionLog,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return engine.Run(ctx)
	})
	group.Go(func() error {
		logger.Info("dashboard listening", zap.String("addr", conf.WebListen))
		return web.NewServer(conf.WebListen, engine).Start(ctx)
	})

	return group.Wait()
}

func createProviderAndExecutor(conf config.Config, logger *zap.Logger) (internal.PriceProvider, orderExecutor, error) {
	switch conf.Platform {
	case "binance":
		client, err := clients.NewBinanceClient()
		if err != nil {
			return nil, nil, err
		}
		provider := marketdata.NewBinanceProvider(client, logger.Named("marketdata"), conf.QuoteCurrency)
		return provider, trader.NewBinanceExecutor(client, conf.QuoteCurrency), nil

	case "bybit":
		client, err := clients.NewBybitClient()
		if err != nil {
			return nil, nil, err
		}
		provider := marketdata.NewBybitProvider(client, logger.Named("marketdata"), conf.QuoteCurrency)
		return provider, trader.NewBybitExecutor(client, conf.QuoteCurrency), nil

	default: // simulate: real public market data, simulated wallet
		provider := marketdata.NewBinanceProvider(clients.NewPublicBinanceClient(), logger.Named("marketdata"), conf.QuoteCurrency)
		simStore, err := simstate.NewStore(conf.DataDir)
		if err != nil {
			return nil, nil, err
		}
		executor, err := trader.NewSimulateExecutor(logger.Named("simulate"), provider, conf.QuoteCurrency, simulateStartingBalance).
			WithStateStore(simStore)
		if err != nil {
			return nil, nil, err
		}
		return provider, executor, nil
	}
}
