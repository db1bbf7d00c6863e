package btc

import (
	"context"

	"github.com/shopspring/decimal"
)

// Totals is what a provider knows about one address, in satoshis.
type Totals struct {
	Address  string
	Received decimal.Decimal
	Final    decimal.Decimal
}

func (t Totals) ReceivedBTC() float64 { return ToBTC(t.Received) }
func (t Totals) FinalBTC() float64    { return ToBTC(t.Final) }

// ToBTC converts a satoshi amount to BTC. Equal satoshi counts always give
// equal floats, which the status classifier relies on.
func ToBTC(sats decimal.Decimal) float64 {
	return sats.Shift(-8).InexactFloat64()
}

// BulkProvider answers for many addresses in one request.
// Addresses the service does not know about are left out of the map.
type BulkProvider interface {
	Balances(ctx context.Context, addresses []string) (map[string]Totals, error)
	Name() string
}

// AddressProvider answers for a single address per request.
type AddressProvider interface {
	AddressTotals(ctx context.Context, address string) (Totals, error)
	Name() string
}
