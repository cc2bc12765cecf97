package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Listings describes the exchange's listed companies: display names,
// sectors, and the symbol-alias configuration used by the resolver.
// Shipped as YAML so the lists track the exchange without code changes.
type Listings struct {
	Names   map[string]string `yaml:"names"`
	Sectors map[string]string `yaml:"sectors"`

	// AliasSuffixes are qualifier tokens the resolver may strip from a
	// raw symbol (e.g. a ".GH" country suffix).
	AliasSuffixes []string `yaml:"alias_suffixes"`
	// Aliases maps known alternative spellings to canonical symbols.
	Aliases map[string]string `yaml:"aliases"`
}

// DefaultListings returns the built-in listing tables for the Ghana
// Stock Exchange.
func DefaultListings() *Listings {
	return &Listings{
		Names: map[string]string{
			"ACCESS": "Access Bank Ghana",
			"ADB":    "Agricultural Development Bank",
			"AGA":    "AngloGold Ashanti",
			"ALLGH":  "Alliance Insurance",
			"ALW":    "Aluworks Limited",
			"ASG":    "Aradel Holdings",
			"BOPP":   "Benso Oil Palm Plantation",
			"CAL":    "CalBank Limited",
			"CLYD":   "Clydestone Ghana",
			"CMLT":   "Camelot Ghana",
			"CPC":    "Cocoa Processing Company",
			"EGH":    "Ecobank Ghana",
			"EGL":    "Enterprise Group Limited",
			"ETI":    "Ecobank Transnational Inc",
			"FML":    "Fan Milk Limited",
			"GCB":    "GCB Bank Limited",
			"GGBL":   "Guinness Ghana Breweries",
			"GLD":    "NewGold ETF",
			"GOIL":   "Ghana Oil Company",
			"MTNGH":  "MTN Ghana",
			"PBC":    "Produce Buying Company",
			"RBGH":   "Republic Bank Ghana",
			"SCB":    "Standard Chartered Bank Ghana",
			"SIC":    "SIC Insurance Company",
			"SOGEGH": "Societe Generale Ghana",
			"SWL":    "Sam Woode Limited",
			"TBL":    "Trust Bank Gambia",
			"TLW":    "Tullow Oil",
			"TOTAL":  "TotalEnergies Marketing Ghana",
			"UNIL":   "Unilever Ghana",
		},
		Sectors: map[string]string{
			"ACCESS": "Banking",
			"ADB":    "Banking",
			"CAL":    "Banking",
			"EGH":    "Banking",
			"ETI":    "Banking",
			"GCB":    "Banking",
			"RBGH":   "Banking",
			"SCB":    "Banking",
			"SOGEGH": "Banking",
			"TBL":    "Banking",
			"SIC":    "Insurance",
			"EGL":    "Insurance",
			"ALLGH":  "Insurance",
			"MTNGH":  "Telecommunications",
			"GOIL":   "Oil & Gas",
			"TOTAL":  "Oil & Gas",
			"TLW":    "Oil & Gas",
			"GGBL":   "Manufacturing",
			"FML":    "Manufacturing",
			"UNIL":   "Manufacturing",
			"ALW":    "Manufacturing",
			"CPC":    "Manufacturing",
			"CMLT":   "Manufacturing",
			"CLYD":   "Manufacturing",
			"BOPP":   "Agriculture",
			"PBC":    "Agriculture",
			"AGA":    "Mining",
			"GLD":    "ETF",
			"ASG":    "Energy",
			"SWL":    "Retail",
		},
		AliasSuffixes: []string{".GH"},
		Aliases:       map[string]string{},
	}
}

// LoadListings reads listing tables from a YAML file, falling back to
// the built-in tables when the file does not exist.
func LoadListings(path string) (*Listings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultListings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}

	var l Listings
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse listings: %w", err)
	}
	return &l, nil
}

// Name returns the display name for a symbol, defaulting to the symbol
// itself.
func (l *Listings) Name(symbol string) string {
	if name, ok := l.Names[symbol]; ok {
		return name
	}
	return symbol
}

// Sector returns the sector for a symbol, defaulting to "General".
func (l *Listings) Sector(symbol string) string {
	if sector, ok := l.Sectors[symbol]; ok {
		return sector
	}
	return "General"
}
