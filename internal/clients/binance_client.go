// Package clients builds authenticated exchange API clients from environment
// credentials.
package clients

import (
	"os"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
)

// NewBinanceClient builds a Binance client from BINANCE_API_KEY and
// BINANCE_API_SECRET.
func NewBinanceClient() (*binance.Client, error) {
	apiKey := os.Getenv("BINANCE_API_KEY")
	apiSecret := os.Getenv("BINANCE_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
	}

	return binance.NewClient(apiKey, apiSecret), nil
}

// NewPublicBinanceClient builds a keyless client for public market data.
// Simulation mode uses it to price against real markets.
func NewPublicBinanceClient() *binance.Client {
	return binance.NewClient("", "")
}
