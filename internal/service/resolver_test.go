package service

import (
	"testing"

	"github.com/d2cmedia/syndesk/internal/models"
)

func TestResolveExactMatch(t *testing.T) {
	r := NewResolver(testTables())

	lookup, ok := r.Resolve("prestige auto laval")
	if !ok {
		t.Fatalf("expected a match")
	}
	if lookup.DealerID != "D-1001" || lookup.Rep != "Marie Tremblay" {
		t.Fatalf("lookup = %+v", lookup)
	}
	if lookup.DealerName != "Prestige Auto Laval" {
		t.Fatalf("dealer name not canonical: %q", lookup.DealerName)
	}
}

func TestResolveSubstringMatch(t *testing.T) {
	r := NewResolver(testTables())

	lookup, ok := r.Resolve("Centre-Ville Honda (service dept)")
	if !ok || lookup.DealerID != "D-1002" {
		t.Fatalf("substring lookup = %+v ok=%v", lookup, ok)
	}
}

func TestResolveUnknownTitleCases(t *testing.T) {
	r := NewResolver(testTables())

	lookup, ok := r.Resolve("sunrise ford kelowna")
	if !ok {
		t.Fatalf("unknown dealer should still resolve to a name")
	}
	if lookup.DealerName != "Sunrise Ford Kelowna" || lookup.DealerID != "" || lookup.Rep != "" {
		t.Fatalf("lookup = %+v", lookup)
	}
}

func TestResolveEmpty(t *testing.T) {
	r := NewResolver(testTables())

	if _, ok := r.Resolve("   "); ok {
		t.Fatalf("blank input resolved")
	}
}

func TestEnrichFillsRepAndContact(t *testing.T) {
	r := NewResolver(testTables())

	c := r.Enrich(models.Classification{DealerName: "Prestige Auto Laval"})
	if c.DealerID != "D-1001" || c.Rep != "Marie Tremblay" {
		t.Fatalf("enriched = %+v", c)
	}
	if c.Contact != "Marie Tremblay" {
		t.Fatalf("contact should mirror rep, got %q", c.Contact)
	}
}

func TestEnrichSkipsMultipleDealers(t *testing.T) {
	r := NewResolver(testTables())

	c := r.Enrich(models.Classification{DealerName: "Multiple: Kijiji, AutoTrader"})
	if c.DealerID != "" || c.Rep != "" {
		t.Fatalf("multiple-dealer record was looked up: %+v", c)
	}
}
