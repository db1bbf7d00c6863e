package view

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/luxlogik/raritycheck/internal/coins"
	"github.com/luxlogik/raritycheck/internal/resolver"
	"github.com/luxlogik/raritycheck/internal/status"
)

// unresolvedLabel is shown for addresses the batch has no record for.
const unresolvedLabel = "Unknown"

type Row struct {
	Serial       string         `json:"serial"`
	Address      string         `json:"address"`
	FinalBalance float64        `json:"finalBalance"`
	Balance      string         `json:"balance"`
	Status       *status.Status `json:"status,omitempty"`
}

func (r Row) StatusLabel() string {
	if r.Status == nil {
		return unresolvedLabel
	}
	return r.Status.Label
}

// Filter holds case-insensitive substring filters; empty fields match all.
type Filter struct {
	Serial  string
	Address string
	Balance string
	Status  string
}

func (f Filter) Match(r Row) bool {
	return contains(r.Serial, f.Serial) &&
		contains(r.Address, f.Address) &&
		strings.Contains(r.Balance, strings.TrimSpace(f.Balance)) &&
		contains(r.StatusLabel(), f.Status)
}

func contains(s, sub string) bool {
	sub = strings.TrimSpace(sub)
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Rows merges resolved balances onto entries and orders them by numeric
// serial. Serials that are not numbers sort as 0.
func Rows(entries []coins.Entry, balances map[string]resolver.Record) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		row := Row{Serial: e.Serial, Address: e.Address, Balance: FormatBTC(0)}
		if rec, ok := balances[e.Address]; ok {
			st := rec.Status
			row.FinalBalance = rec.FinalBalance
			row.Balance = FormatBTC(rec.FinalBalance)
			row.Status = &st
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return serialNumber(rows[i].Serial) < serialNumber(rows[j].Serial)
	})
	return rows
}

func FilterRows(rows []Row, f Filter) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func FormatBTC(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

// ExplorerURL is where /address/<addr> sends the browser.
func ExplorerURL(prefix, address string) string {
	return prefix + url.PathEscape(address)
}

// leading digits, like parseInt
func serialNumber(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
