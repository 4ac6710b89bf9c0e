package database

import _ "embed"

//go:embed fallback/services.json
var fallbackServices []byte

//go:embed fallback/prices.json
var fallbackPrices []byte

// FallbackServices returns the embedded services.json used when neither the
// remote documents nor a persisted snapshot can be loaded.
func FallbackServices() []byte {
	return fallbackServices
}

// FallbackPrices returns the embedded prices.json paired with FallbackServices.
// The two are always used together.
func FallbackPrices() []byte {
	return fallbackPrices
}
