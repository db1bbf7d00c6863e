package btc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxlogik/raritycheck/internal/util"
)

const DefaultBlockchainInfoURL = "https://blockchain.info/balance?active="

// BlockchainInfoProvider queries the multi-address balance endpoint.
// BaseURL is a prefix; addresses are appended joined by "|".
type BlockchainInfoProvider struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
}

type balanceEntry struct {
	FinalBalance  *decimal.Decimal `json:"final_balance"`
	TotalReceived *decimal.Decimal `json:"total_received"`
}

func NewBlockchainInfoProvider(baseURL, userAgent string, timeout time.Duration) *BlockchainInfoProvider {
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = DefaultBlockchainInfoURL
	}
	return &BlockchainInfoProvider{
		BaseURL:   baseURL,
		HTTP:      util.NewHTTPClient(timeout),
		UserAgent: userAgent,
	}
}

func (p *BlockchainInfoProvider) Name() string { return "blockchaininfo" }

func (p *BlockchainInfoProvider) Balances(ctx context.Context, addresses []string) (map[string]Totals, error) {
	url := p.BaseURL + strings.Join(addresses, "|")
	var body map[string]*balanceEntry
	if err := util.GetJSON(ctx, p.HTTP, url, p.UserAgent, &body); err != nil {
		return nil, fmt.Errorf("blockchaininfo: %w", err)
	}
	if body == nil {
		return nil, fmt.Errorf("blockchaininfo: empty response body")
	}

	out := make(map[string]Totals, len(addresses))
	for _, addr := range addresses {
		e := body[addr]
		if e == nil {
			continue
		}
		if e.FinalBalance == nil || e.TotalReceived == nil {
			return nil, fmt.Errorf("blockchaininfo: %s: missing final_balance or total_received", addr)
		}
		out[addr] = Totals{Address: addr, Received: *e.TotalReceived, Final: *e.FinalBalance}
	}
	return out, nil
}
