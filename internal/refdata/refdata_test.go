package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "syndicators.csv", "Syndicator\nKijiji\nAutoTrader\nFacebook Marketplace\nGoogle Vehicle Ads\nAccuTrade\n")
	writeFile(t, dir, "import_providers.csv", "Provider\nSERTI\nPBS\nCDK\n")
	writeFile(t, dir, "rep_dealer_mapping.csv", "Rep Name,Dealer Name,Dealer ID\nMarie Tremblay,Prestige Auto Laval,D-1001\nJohn Smith,Centre-Ville Honda,D-1002\n")
	writeFile(t, dir, "dealership_billing_requirements.csv", "Dealer ID,Order Required,Package Type,Monthly Fee,Notes\nD-1001,Yes,Premium,1500,Order before activation\nD-1002,No,Basic,750,\n")
	return dir
}

func TestLoadAllTables(t *testing.T) {
	tables := Load(testDir(t), zerolog.Nop())

	if len(tables.Syndicators) != 5 {
		t.Fatalf("expected 5 syndicators, got %d", len(tables.Syndicators))
	}
	if len(tables.Providers) != 3 {
		t.Fatalf("expected 3 providers, got %d", len(tables.Providers))
	}
	if len(tables.RepDealers) != 2 {
		t.Fatalf("expected 2 rep/dealer rows, got %d", len(tables.RepDealers))
	}
	b, ok := tables.BillingFor("D-1001")
	if !ok || !b.OrderRequired || b.PackageType != "Premium" || b.MonthlyFee != 1500 {
		t.Fatalf("unexpected billing row: %+v ok=%v", b, ok)
	}
	if b, _ := tables.BillingFor("D-1002"); b.OrderRequired {
		t.Fatalf("D-1002 should not require an order")
	}
}

func TestLoadMissingFilesDegradesToEmpty(t *testing.T) {
	tables := Load(t.TempDir(), zerolog.Nop())

	if len(tables.Syndicators) != 0 || len(tables.Providers) != 0 {
		t.Fatalf("expected empty tables, got %+v", tables)
	}
	if tables.IsApprovedSyndicator("Kijiji") {
		t.Fatalf("empty catalog approved a syndicator")
	}
	if tables.DefaultProvider() != "" {
		t.Fatalf("empty catalog has a default provider")
	}
}

func TestIsApprovedSyndicator(t *testing.T) {
	tables := Load(testDir(t), zerolog.Nop())

	if !tables.IsApprovedSyndicator("kijiji") {
		t.Fatalf("case-insensitive membership failed")
	}
	if tables.IsApprovedSyndicator("CarBids") {
		t.Fatalf("unknown syndicator approved")
	}
}

func TestParseFeeFormats(t *testing.T) {
	cases := map[string]float64{
		"1500":         1500,
		"$1,500":       1500,
		"$750/month":   750,
		"not a number": 0,
		"":             0,
	}
	for raw, want := range cases {
		if got := parseFee(raw); got != want {
			t.Fatalf("parseFee(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestSyndicatorAt(t *testing.T) {
	tables := Load(testDir(t), zerolog.Nop())

	if got := tables.SyndicatorAt(0); got != "Kijiji" {
		t.Fatalf("index 0 = %q", got)
	}
	if got := tables.SyndicatorAt(99); got != "" {
		t.Fatalf("out of range index returned %q", got)
	}
}
