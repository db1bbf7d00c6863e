package btc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxlogik/raritycheck/internal/util"
)

const DefaultEsploraURL = "https://mempool.space/api/address/"

// EsploraProvider reads /address/<addr> from an Esplora compatible API
// (mempool.space, blockstream.info). Only confirmed chain stats are used.
type EsploraProvider struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
	name      string
}

type addressResp struct {
	ChainStats struct {
		FundedTxoSum *decimal.Decimal `json:"funded_txo_sum"`
		SpentTxoSum  *decimal.Decimal `json:"spent_txo_sum"`
	} `json:"chain_stats"`
}

func NewEsploraProvider(name, baseURL, userAgent string, timeout time.Duration) *EsploraProvider {
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = DefaultEsploraURL
	}
	if name == "" {
		name = "esplora"
	}
	return &EsploraProvider{
		BaseURL:   baseURL,
		HTTP:      util.NewHTTPClient(timeout),
		UserAgent: userAgent,
		name:      name,
	}
}

func (p *EsploraProvider) Name() string { return p.name }

func (p *EsploraProvider) AddressTotals(ctx context.Context, address string) (Totals, error) {
	u := p.BaseURL + url.PathEscape(address)
	var ar addressResp
	if err := util.GetJSON(ctx, p.HTTP, u, p.UserAgent, &ar); err != nil {
		return Totals{}, fmt.Errorf("%s: %w", p.name, err)
	}
	funded, spent := ar.ChainStats.FundedTxoSum, ar.ChainStats.SpentTxoSum
	if funded == nil || spent == nil {
		return Totals{}, fmt.Errorf("%s: %s: missing chain_stats", p.name, address)
	}
	return Totals{
		Address:  address,
		Received: *funded,
		Final:    funded.Sub(*spent),
	}, nil
}
