package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luxlogik/raritycheck/internal/coins"
	"github.com/luxlogik/raritycheck/internal/config"
	"github.com/luxlogik/raritycheck/internal/resolver"
	"github.com/luxlogik/raritycheck/internal/server"
	"github.com/luxlogik/raritycheck/internal/status"
)

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, addresses []string) (resolver.Batch, error) {
	tbl := status.DefaultTable()
	return resolver.Batch{
		ID:     "b1",
		Source: resolver.SourcePrimary,
		Balances: map[string]resolver.Record{
			"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa": {FinalBalance: 0.5, Status: tbl.Status(status.PartiallyRedeemed)},
		},
	}, nil
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gilded.txt"), []byte("7,1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa\n8,1BoatSLRHtKNngkdXEeobR76b53LETtpyT\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Collections: []config.Collection{{
		ID:        "vibgyor-orange",
		Name:      "Vibgyor Orange",
		CoinTypes: []config.CoinType{{Type: "gilded", Name: "Gilded", DataFile: "gilded.txt"}},
	}}}
	srv := server.New(cfg, coins.NewLoader(dir), stubResolver{}, http.NotFoundHandler())

	var buf bytes.Buffer
	if err := runCheck(context.Background(), &buf, srv, "vibgyor-orange"); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Vibgyor Orange (source: primary, batch: b1)",
		"Gilded",
		"0.50000000",
		"Partially Redeemed",
		"1BoatSLRHtKNngkdXEeobR76b53LETtpyT",
		"Unknown",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if err := runCheck(context.Background(), &buf, srv, "nope"); !errors.Is(err, config.ErrUnknownCollection) {
		t.Fatalf("err = %v, want ErrUnknownCollection", err)
	}
}
