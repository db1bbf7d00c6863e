package view

import (
	"testing"

	"github.com/luxlogik/raritycheck/internal/coins"
	"github.com/luxlogik/raritycheck/internal/resolver"
	"github.com/luxlogik/raritycheck/internal/status"
)

func sampleRows() []Row {
	tbl := status.DefaultTable()
	entries := []coins.Entry{
		{Serial: "10", Address: "bc1qten"},
		{Serial: "2", Address: "1TwoAddr"},
		{Serial: "A7", Address: "3Seven"},
		{Serial: "1", Address: "1OneAddr"},
	}
	balances := map[string]resolver.Record{
		"bc1qten":  {FinalBalance: 0.5, Status: tbl.Status(status.NeverRedeemed)},
		"1TwoAddr": {FinalBalance: 0, Status: tbl.Status(status.FullyRedeemed)},
		"1OneAddr": {FinalBalance: 0.25, Status: tbl.Status(status.PartiallyRedeemed)},
	}
	return Rows(entries, balances)
}

func TestRows_SortedAndMerged(t *testing.T) {
	rows := sampleRows()
	order := []string{"A7", "1", "2", "10"}
	for i, s := range order {
		if rows[i].Serial != s {
			t.Fatalf("row %d serial = %q, want %q (rows %+v)", i, rows[i].Serial, s, rows)
		}
	}
	if rows[0].Status != nil || rows[0].StatusLabel() != "Unknown" || rows[0].Balance != "0.00000000" {
		t.Errorf("unresolved row = %+v", rows[0])
	}
	if rows[3].Balance != "0.50000000" || rows[3].Status.Kind != status.NeverRedeemed {
		t.Errorf("row 10 = %+v", rows[3])
	}
}

func TestFilterRows(t *testing.T) {
	rows := sampleRows()
	cases := []struct {
		name string
		f    Filter
		want int
	}{
		{"no filter", Filter{}, 4},
		{"status case-insensitive", Filter{Status: "REDEEMED"}, 3},
		{"unknown status", Filter{Status: "unknown"}, 1},
		{"balance digits", Filter{Balance: "0.25"}, 1},
		{"address substring", Filter{Address: "BC1Q"}, 1},
		{"serial substring", Filter{Serial: "1"}, 2},
		{"combined", Filter{Serial: "1", Status: "never"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FilterRows(rows, tc.f); len(got) != tc.want {
				t.Fatalf("got %d rows, want %d: %+v", len(got), tc.want, got)
			}
		})
	}
}

func TestExplorerURL(t *testing.T) {
	got := ExplorerURL("https://www.blockchain.com/explorer/addresses/btc/", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	if got != "https://www.blockchain.com/explorer/addresses/btc/1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa" {
		t.Fatalf("url = %q", got)
	}
	if got := ExplorerURL("https://x/", "a/b"); got != "https://x/a%2Fb" {
		t.Fatalf("escaped url = %q", got)
	}
}

func TestSerialNumber(t *testing.T) {
	cases := map[string]int{"12": 12, " 7 ": 7, "3a": 3, "x": 0, "": 0}
	for in, want := range cases {
		if got := serialNumber(in); got != want {
			t.Errorf("serialNumber(%q) = %d, want %d", in, got, want)
		}
	}
}
