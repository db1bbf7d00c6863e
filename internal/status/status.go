package status

import "fmt"

// Kind names one of the five coin states. Labels and colors are configuration;
// only the kinds are fixed.
type Kind string

const (
	NeverLoaded       Kind = "neverLoaded"
	NeverRedeemed     Kind = "neverRedeemed"
	FullyRedeemed     Kind = "fullyRedeemed"
	PartiallyRedeemed Kind = "partiallyRedeemed"
	Error             Kind = "error"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{NeverLoaded, NeverRedeemed, PartiallyRedeemed, FullyRedeemed, Error}

type Descriptor struct {
	Label       string `yaml:"label" json:"label"`
	Color       string `yaml:"color" json:"color"`
	Description string `yaml:"description" json:"description"`
}

// Status is a kind bound to its configured descriptor.
type Status struct {
	Kind Kind `json:"kind"`
	Descriptor
}

// Classify maps BTC amounts to a kind. Order matters: an address that never
// received anything is neverLoaded whatever its final balance says.
// Comparisons are exact; inputs are whole satoshis divided by 1e8.
func Classify(finalBalance, totalReceived float64) Kind {
	switch {
	case totalReceived == 0:
		return NeverLoaded
	case finalBalance == totalReceived:
		return NeverRedeemed
	case finalBalance == 0:
		return FullyRedeemed
	default:
		return PartiallyRedeemed
	}
}

// Table holds the descriptor for every kind.
type Table map[Kind]Descriptor

// DefaultTable mirrors the labels and colors collectors already know.
func DefaultTable() Table {
	return Table{
		NeverLoaded: {
			Label:       "Never Loaded",
			Color:       "#000000",
			Description: "Address has never received any funds",
		},
		NeverRedeemed: {
			Label:       "Never Redeemed",
			Color:       "#008000",
			Description: "Funds loaded and never spent",
		},
		PartiallyRedeemed: {
			Label:       "Partially Redeemed",
			Color:       "#FFA500",
			Description: "Some of the loaded funds have been spent",
		},
		FullyRedeemed: {
			Label:       "Fully Redeemed",
			Color:       "#FF0000",
			Description: "All loaded funds have been spent",
		},
		Error: {
			Label:       "Error",
			Color:       "#808080",
			Description: "Balance could not be fetched",
		},
	}
}

func (t Table) Status(k Kind) Status {
	return Status{Kind: k, Descriptor: t[k]}
}

// Classify is Classify with the configured descriptor attached.
func (t Table) Classify(finalBalance, totalReceived float64) Status {
	return t.Status(Classify(finalBalance, totalReceived))
}

// Validate reports the first kind without a label.
func (t Table) Validate() error {
	for _, k := range Kinds {
		if t[k].Label == "" {
			return fmt.Errorf("status %q: label is required", k)
		}
	}
	return nil
}

// WithDefaults fills kinds missing from t with DefaultTable entries.
func (t Table) WithDefaults() Table {
	out := DefaultTable()
	for k, d := range t {
		out[k] = d
	}
	return out
}
