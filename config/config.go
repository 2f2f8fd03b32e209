// Package config loads engine configuration from a YAML file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

// Defaults applied when a value is absent from both YAML and flags.
var (
	DefaultTriggerPrice     = decimal.NewFromFloat(1.16)
	DefaultProfitThreshold  = decimal.NewFromFloat(1.5)
	DefaultMinimumTotal     = decimal.NewFromInt(40)
	DefaultSkipBuyDeviation = decimal.NewFromFloat(0.05)
)

const (
	defaultCooldown     = 5 * time.Minute
	defaultPollInterval = 30 * time.Second
	defaultQuote        = "USDT"
	defaultWebListen    = ":8080"
	defaultDataDir      = "./wal"
)

// Config holds everything the engine needs to run against one basket.
type Config struct {
	Platform               string
	QuoteCurrency          string
	Basket                 domain.Basket
	TriggerPrice           decimal.Decimal
	RebalanceCooldown      time.Duration
	ProfitThresholdPercent decimal.Decimal
	MinimumTotal           decimal.Decimal
	SkipBuyDeviation       decimal.Decimal
	ProtectionActive       bool
	PollPriceInterval      time.Duration
	WebListen              string
	DataDir                string
}

// FileConfig mirrors the YAML config file layout. The setup wizard writes
// it and getYaml reads it back.
type FileConfig struct {
	Platform               string        `yaml:"platform"`
	QuoteCurrency          string        `yaml:"quote_currency,omitempty"`
	Basket                 []string      `yaml:"basket"`
	PrimarySymbol          string        `yaml:"primary_symbol"`
	TriggerPrice           string        `yaml:"trigger_price,omitempty"`
	RebalanceCooldown      time.Duration `yaml:"rebalance_cooldown,omitempty"`
	ProfitThresholdPercent string        `yaml:"profit_threshold_percent,omitempty"`
	MinimumTotal           string        `yaml:"minimum_total,omitempty"`
	SkipBuyDeviation       string        `yaml:"skip_buy_deviation,omitempty"`
	ProtectionActive       bool          `yaml:"protection_active,omitempty"`
	PollPriceInterval      time.Duration `yaml:"poll_price_interval,omitempty"`
	WebListen              string        `yaml:"web_listen,omitempty"`
	DataDir                string        `yaml:"data_dir,omitempty"`
}

// Get reads configuration from --config when given, otherwise from CLI flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	platform := flag.String("platform", "simulate", "trading platform: binance, bybit or simulate")
	basketFlag := flag.String("basket", "AMPL,SOL,SUI,BTC", "comma-separated basket symbols")
	primaryFlag := flag.String("primary", "AMPL", "primary rebasing symbol, must be in the basket")
	triggerFlag := flag.String("triggerprice", DefaultTriggerPrice.String(), "lower trigger price for rebalance")
	cooldownFlag := flag.Duration("cooldown", defaultCooldown, "minimum interval between rebalance attempts")
	thresholdFlag := flag.String("profitthreshold", DefaultProfitThreshold.String(), "profit-taking threshold percent")
	pollFlag := flag.Duration("pollpriceinterval", defaultPollInterval, "poll market price interval")
	webFlag := flag.String("weblisten", defaultWebListen, "dashboard listen address")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	basket, err := parseBasket(strings.Split(*basketFlag, ","), *primaryFlag)
	if err != nil {
		return Config{}, err
	}

	triggerPrice, err := decimal.NewFromString(*triggerFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --triggerprice provided: %w", err)
	}

	threshold, err := decimal.NewFromString(*thresholdFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --profitthreshold provided: %w", err)
	}

	return applyDefaults(Config{
		Platform:               *platform,
		Basket:                 basket,
		TriggerPrice:           triggerPrice,
		RebalanceCooldown:      *cooldownFlag,
		ProfitThresholdPercent: threshold,
		PollPriceInterval:      *pollFlag,
		WebListen:              *webFlag,
	})
}

// GetFromFile loads configuration from a specific YAML file, bypassing flags.
// Used after the setup wizard writes its generated config.
func GetFromFile(path string) (Config, error) {
	return getYaml(path)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var raw FileConfig
	if err := yaml.Unmarshal(f, &raw); err != nil {
		return Config{}, err
	}

	basket, err := parseBasket(raw.Basket, raw.PrimarySymbol)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'basket' in yaml config: %w", err)
	}

	conf := Config{
		Platform:          raw.Platform,
		QuoteCurrency:     raw.QuoteCurrency,
		Basket:            basket,
		RebalanceCooldown: raw.RebalanceCooldown,
		ProtectionActive:  raw.ProtectionActive,
		PollPriceInterval: raw.PollPriceInterval,
		WebListen:         raw.WebListen,
		DataDir:           raw.DataDir,
	}

	if conf.TriggerPrice, err = parseDecimal(raw.TriggerPrice, DefaultTriggerPrice); err != nil {
		return Config{}, fmt.Errorf("incorrect 'trigger_price' in yaml config: %w", err)
	}
	if conf.ProfitThresholdPercent, err = parseDecimal(raw.ProfitThresholdPercent, DefaultProfitThreshold); err != nil {
		return Config{}, fmt.Errorf("incorrect 'profit_threshold_percent' in yaml config: %w", err)
	}
	if conf.MinimumTotal, err = parseDecimal(raw.MinimumTotal, DefaultMinimumTotal); err != nil {
		return Config{}, fmt.Errorf("incorrect 'minimum_total' in yaml config: %w", err)
	}
	if conf.SkipBuyDeviation, err = parseDecimal(raw.SkipBuyDeviation, DefaultSkipBuyDeviation); err != nil {
		return Config{}, fmt.Errorf("incorrect 'skip_buy_deviation' in yaml config: %w", err)
	}

	return applyDefaults(conf)
}

func applyDefaults(conf Config) (Config, error) {
	if conf.Platform == "" {
		conf.Platform = "simulate"
	}
	if conf.QuoteCurrency == "" {
		conf.QuoteCurrency = defaultQuote
	}
	if conf.RebalanceCooldown <= 0 {
		conf.RebalanceCooldown = defaultCooldown
	}
	if conf.PollPriceInterval <= 0 {
		conf.PollPriceInterval = defaultPollInterval
	}
	if conf.WebListen == "" {
		conf.WebListen = defaultWebListen
	}
	if conf.DataDir == "" {
		conf.DataDir = defaultDataDir
	}
	if conf.MinimumTotal.IsZero() {
		conf.MinimumTotal = DefaultMinimumTotal
	}
	if conf.SkipBuyDeviation.IsZero() {
		conf.SkipBuyDeviation = DefaultSkipBuyDeviation
	}

	if !conf.TriggerPrice.IsPositive() {
		return Config{}, fmt.Errorf("trigger price must be positive, got %s", conf.TriggerPrice.String())
	}
	if !conf.ProfitThresholdPercent.IsPositive() {
		return Config{}, fmt.Errorf("profit threshold must be positive, got %s", conf.ProfitThresholdPercent.String())
	}

	switch conf.Platform {
	case "binance", "bybit", "simulate":
	default:
		return Config{}, fmt.Errorf("unsupported platform %q", conf.Platform)
	}

	return conf, nil
}

func parseBasket(symbols []string, primary string) (domain.Basket, error) {
	cleaned := make([]domain.Symbol, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s != "" {
			cleaned = append(cleaned, domain.Symbol(strings.ToUpper(s)))
		}
	}

	return domain.NewBasket(domain.Symbol(strings.ToUpper(strings.TrimSpace(primary))), cleaned)
}

func parseDecimal(raw string, def decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return def, nil
	}
	return decimal.NewFromString(raw)
}
