// Package refdata loads the business reference tables the classifier and
// automation engine depend on: approved syndicators, import providers, the
// rep/dealer mapping and per-dealer billing requirements.
//
// Loading is fail-soft per table. A missing or malformed file logs a warning
// and leaves that table empty; the caller decides whether empty tables are
// acceptable for its mode of operation.
package refdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// RepDealer maps one dealer to its account rep.
type RepDealer struct {
	RepName    string
	DealerName string
	DealerID   string
}

// Billing holds a dealer's billing requirements for activations.
type Billing struct {
	DealerID      string
	OrderRequired bool
	PackageType   string
	MonthlyFee    float64
	Notes         string
}

// Tables is the full reference data set. It is built once at startup and
// treated as immutable afterwards.
type Tables struct {
	Syndicators []string
	Providers   []string
	RepDealers  []RepDealer
	BillingByID map[string]Billing
}

// Load reads all reference tables from dir. Each table degrades
// independently to empty on error.
func Load(dir string, logger zerolog.Logger) *Tables {
	t := &Tables{BillingByID: map[string]Billing{}}

	t.Syndicators = loadColumn(filepath.Join(dir, "syndicators.csv"), "Syndicator", logger)
	t.Providers = loadColumn(filepath.Join(dir, "import_providers.csv"), "Provider", logger)

	rows, err := loadRows(filepath.Join(dir, "rep_dealer_mapping.csv"))
	if err != nil {
		logger.Warn().Err(err).Msg("rep/dealer mapping unavailable, dealer lookups will fall through")
	} else {
		for _, row := range rows {
			rd := RepDealer{
				RepName:    row["Rep Name"],
				DealerName: row["Dealer Name"],
				DealerID:   row["Dealer ID"],
			}
			if rd.DealerName == "" {
				continue
			}
			t.RepDealers = append(t.RepDealers, rd)
		}
	}

	rows, err = loadRows(filepath.Join(dir, "dealership_billing_requirements.csv"))
	if err != nil {
		logger.Warn().Err(err).Msg("billing requirements unavailable, order checks will be skipped")
	} else {
		for _, row := range rows {
			b := Billing{
				DealerID:      row["Dealer ID"],
				OrderRequired: strings.EqualFold(strings.TrimSpace(row["Order Required"]), "yes"),
				PackageType:   row["Package Type"],
				MonthlyFee:    parseFee(row["Monthly Fee"]),
				Notes:         row["Notes"],
			}
			if b.DealerID == "" {
				continue
			}
			t.BillingByID[b.DealerID] = b
		}
	}

	logger.Info().
		Int("syndicators", len(t.Syndicators)).
		Int("providers", len(t.Providers)).
		Int("rep_dealers", len(t.RepDealers)).
		Int("billing_rows", len(t.BillingByID)).
		Msg("reference data loaded")
	return t
}

// IsApprovedSyndicator reports whether name matches an approved syndicator,
// ignoring case.
func (t *Tables) IsApprovedSyndicator(name string) bool {
	for _, s := range t.Syndicators {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// SyndicatorAt returns the syndicator at index i, or "" when the catalog is
// shorter than that.
func (t *Tables) SyndicatorAt(i int) string {
	if i < 0 || i >= len(t.Syndicators) {
		return ""
	}
	return t.Syndicators[i]
}

// DefaultProvider is the first provider in catalog order, or "".
func (t *Tables) DefaultProvider() string {
	if len(t.Providers) == 0 {
		return ""
	}
	return t.Providers[0]
}

// BillingFor returns the billing requirements for a dealer ID.
func (t *Tables) BillingFor(dealerID string) (Billing, bool) {
	b, ok := t.BillingByID[dealerID]
	return b, ok
}

// parseFee accepts values like "1500", "$1,500" or "$1500/month".
func parseFee(raw string) float64 {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		raw = raw[:i]
	}
	fee, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return fee
}

func loadColumn(path, column string, logger zerolog.Logger) []string {
	rows, err := loadRows(path)
	if err != nil {
		logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("reference table unavailable")
		return nil
	}
	var out []string
	for _, row := range rows {
		if v := strings.TrimSpace(row[column]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func loadRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", filepath.Base(path))
	}

	header := records[0]
	var rows []map[string]string
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[strings.TrimSpace(h)] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
