package clients

import (
	"os"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
)

// NewBybitClient builds a Bybit client from BYBIT_API_KEY and
// BYBIT_API_SECRET.
func NewBybitClient() (*bybit.Client, error) {
	apiKey := os.Getenv("BYBIT_API_KEY")
	apiSecret := os.Getenv("BYBIT_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
	}

	return bybit.NewClient().WithAuth(apiKey, apiSecret), nil
}
