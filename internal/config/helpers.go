package config

import (
	"smartmoney/pkg/market"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on error.
// It lets tools build providers without a full service config.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}

// MustBuildMarketProvider builds the default provider from etc/market.yaml.
func MustBuildMarketProvider() (market.Provider, string) {
	provider, name, err := MustLoadMarket().BuildDefault("")
	if err != nil {
		panic(err)
	}
	return provider, name
}
