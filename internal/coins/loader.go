// Package coins reads the per coin type address lists of a collection.
// Files hold one "serial,address" pair per line.
package coins

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"go.uber.org/zap"

	"github.com/luxlogik/raritycheck/internal/config"
)

var ErrNoAddresses = errors.New("no addresses found for this collection")

// DefaultMaxCoins caps a coin type when neither it nor its collection sets a
// coin count.
const DefaultMaxCoins = 100

type Entry struct {
	Serial  string `json:"serial"`
	Address string `json:"address"`
}

// ParseAddresses reads serial,address lines. Only the first limit lines are
// considered when limit > 0; blank lines and lines without an address are
// skipped but still count toward the limit.
func ParseAddresses(r io.Reader, limit int) ([]Entry, error) {
	var out []Entry
	sc := bufio.NewScanner(r)
	for n := 0; sc.Scan(); n++ {
		if limit > 0 && n >= limit {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		serial, rest, _ := strings.Cut(line, ",")
		address, _, _ := strings.Cut(rest, ",")
		address = strings.TrimSpace(address)
		if address == "" {
			continue
		}
		out = append(out, Entry{Serial: strings.TrimSpace(serial), Address: address})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TypeEntries are the coins of one coin type in file order.
type TypeEntries struct {
	CoinType config.CoinType
	Entries  []Entry
}

// Index is a loaded collection.
type Index struct {
	Collection config.Collection
	Types      []TypeEntries
	addresses  []string
}

// Addresses returns every address across coin types in load order.
func (ix *Index) Addresses() []string { return ix.addresses }

type Loader struct {
	DataDir string
}

func NewLoader(dataDir string) *Loader { return &Loader{DataDir: dataDir} }

// Load reads every coin type file of col. A file that cannot be read is
// logged and skipped so one broken list does not hide the rest.
func (l *Loader) Load(col config.Collection) (*Index, error) {
	ix := &Index{Collection: col}
	for _, ct := range col.CoinTypes {
		file := ct.DataFile
		if file == "" {
			file = col.DataFile
		}
		limit := ct.MaxCoins
		if limit == 0 {
			limit = col.TotalCoins
		}
		if limit == 0 {
			limit = DefaultMaxCoins
		}

		entries, err := l.readFile(file, limit)
		if err != nil {
			zap.L().Error("failed to load address list",
				zap.String("collection", col.ID),
				zap.String("coin_type", ct.Type),
				zap.String("file", file),
				zap.Error(err))
			continue
		}
		for _, e := range entries {
			if !validMainnet(e.Address) {
				zap.L().Warn("address does not decode as mainnet bitcoin",
					zap.String("collection", col.ID),
					zap.String("serial", e.Serial),
					zap.String("address", e.Address))
			}
			ix.addresses = append(ix.addresses, e.Address)
		}
		ix.Types = append(ix.Types, TypeEntries{CoinType: ct, Entries: entries})
	}
	if len(ix.addresses) == 0 {
		return nil, fmt.Errorf("%s: %w", col.ID, ErrNoAddresses)
	}
	return ix, nil
}

func (l *Loader) readFile(name string, limit int) ([]Entry, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.DataDir, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseAddresses(f, limit)
}

func validMainnet(address string) bool {
	a, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
	return err == nil && a.IsForNet(&chaincfg.MainNetParams)
}
