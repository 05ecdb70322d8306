package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstrumentIdSymbolAndVenue(t *testing.T) {
	id := NewInstrumentId("BTCUSD", "SIM")

	assert.Equal(t, InstrumentId("BTCUSD.SIM"), id)
	assert.Equal(t, "BTCUSD", id.Symbol())
	assert.Equal(t, Venue("SIM"), id.Venue())
}

func TestInstrumentIdSymbolWithoutVenueReturnsWholeString(t *testing.T) {
	id := InstrumentId("BTCUSD")

	assert.Equal(t, "BTCUSD", id.Symbol())
	assert.Equal(t, Venue(""), id.Venue())
}

func TestAccountIdIssuer(t *testing.T) {
	id := NewAccountId("ACME", "001")

	assert.Equal(t, AccountId("ACME-001"), id)
	assert.Equal(t, "ACME", id.Issuer())
}

func TestAccountIdIssuerWithoutSeparatorReturnsWholeString(t *testing.T) {
	id := AccountId("solo")

	assert.Equal(t, "solo", id.Issuer())
}
