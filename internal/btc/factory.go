package btc

import (
	"fmt"

	"github.com/luxlogik/raritycheck/internal/config"
)

func NewBulkProviderFromConfig(pc config.Provider) (BulkProvider, error) {
	switch pc.Type {
	case "blockchaininfo":
		return NewBlockchainInfoProvider(pc.BaseURL, pc.UserAgent, pc.Timeout), nil
	case "":
		return nil, fmt.Errorf("blockchain.primary.type is required")
	default:
		return nil, fmt.Errorf("unsupported primary provider: %s", pc.Type)
	}
}

func NewAddressProviderFromConfig(pc config.Provider) (AddressProvider, error) {
	switch pc.Type {
	case "esplora", "mempool", "blockstream":
		return NewEsploraProvider(pc.Type, pc.BaseURL, pc.UserAgent, pc.Timeout), nil
	case "":
		return nil, fmt.Errorf("blockchain.secondary.type is required")
	default:
		return nil, fmt.Errorf("unsupported secondary provider: %s", pc.Type)
	}
}
