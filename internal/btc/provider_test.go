package btc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxlogik/raritycheck/internal/config"
	"github.com/luxlogik/raritycheck/internal/util"
)

func TestToBTC(t *testing.T) {
	cases := map[string]float64{
		"500000000": 5,
		"0":         0,
		"1":         0.00000001,
		"123456789": 1.23456789,
	}
	for sats, want := range cases {
		if got := ToBTC(decimal.RequireFromString(sats)); got != want {
			t.Errorf("ToBTC(%s) = %v, want %v", sats, got, want)
		}
	}
}

func TestBlockchainInfo_Balances(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"addrA": {"final_balance": "500000000", "n_tx": 1, "total_received": "500000000"},
			"addrB": {"final_balance": 0, "n_tx": 2, "total_received": 300000000},
			"other": {"final_balance": 1, "total_received": 1}
		}`))
	}))
	defer srv.Close()

	p := NewBlockchainInfoProvider(srv.URL+"/balance?active=", "", time.Second)
	got, err := p.Balances(context.Background(), []string{"addrA", "addrB", "addrC"})
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if gotQuery != "active=addrA|addrB|addrC" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(got), got)
	}
	if a := got["addrA"]; a.FinalBTC() != 5 || a.ReceivedBTC() != 5 {
		t.Errorf("addrA = %+v", a)
	}
	if b := got["addrB"]; b.FinalBTC() != 0 || b.ReceivedBTC() != 3 {
		t.Errorf("addrB = %+v", b)
	}
	if _, ok := got["other"]; ok {
		t.Error("unrequested address leaked into result")
	}
}

func TestBlockchainInfo_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("Checksum does not validate"))
		},
		"missing field": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"addrA": {"final_balance": 1}}`))
		},
		"null body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		},
		"bad amount": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"addrA": {"final_balance": "lots", "total_received": "1"}}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			p := NewBlockchainInfoProvider(srv.URL+"/?active=", "", time.Second)
			if _, err := p.Balances(context.Background(), []string{"addrA"}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEsplora_AddressTotals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/address/bc1qpartial":
			_, _ = w.Write([]byte(`{"address":"bc1qpartial","chain_stats":{"funded_txo_sum":500000000,"spent_txo_sum":200000000,"tx_count":2},"mempool_stats":{"funded_txo_sum":0,"spent_txo_sum":0}}`))
		case "/api/address/bc1qnostats":
			_, _ = w.Write([]byte(`{"address":"bc1qnostats"}`))
		default:
			http.Error(w, "Invalid Bitcoin address", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	p := NewEsploraProvider("mempool", srv.URL+"/api/address/", "", time.Second)
	if p.Name() != "mempool" {
		t.Errorf("name = %q", p.Name())
	}

	got, err := p.AddressTotals(context.Background(), "bc1qpartial")
	if err != nil {
		t.Fatalf("AddressTotals: %v", err)
	}
	if got.ReceivedBTC() != 5 || got.FinalBTC() != 3 {
		t.Errorf("totals = received %v final %v", got.ReceivedBTC(), got.FinalBTC())
	}

	if _, err := p.AddressTotals(context.Background(), "bc1qnostats"); err == nil || !strings.Contains(err.Error(), "chain_stats") {
		t.Errorf("err = %v, want missing chain_stats", err)
	}

	_, err = p.AddressTotals(context.Background(), "garbage")
	var se *util.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		t.Errorf("err = %v, want 400 StatusError", err)
	}
}

func TestFactory(t *testing.T) {
	if _, err := NewBulkProviderFromConfig(config.Provider{Type: "blockchaininfo"}); err != nil {
		t.Errorf("blockchaininfo: %v", err)
	}
	if _, err := NewBulkProviderFromConfig(config.Provider{Type: "mempool"}); err == nil {
		t.Error("mempool has no bulk endpoint, expected error")
	}
	for _, typ := range []string{"esplora", "mempool", "blockstream"} {
		p, err := NewAddressProviderFromConfig(config.Provider{Type: typ})
		if err != nil {
			t.Errorf("%s: %v", typ, err)
			continue
		}
		if p.Name() != typ {
			t.Errorf("name = %q, want %q", p.Name(), typ)
		}
	}
	if _, err := NewAddressProviderFromConfig(config.Provider{}); err == nil {
		t.Error("expected error for empty type")
	}
}
