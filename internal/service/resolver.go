package service

import (
	"strings"

	"github.com/d2cmedia/syndesk/internal/models"
	"github.com/d2cmedia/syndesk/internal/refdata"
	"github.com/d2cmedia/syndesk/internal/utils"
)

// Resolver maps free-text dealer names to the rep/dealer mapping.
type Resolver struct {
	Ref *refdata.Tables
}

func NewResolver(ref *refdata.Tables) *Resolver {
	return &Resolver{Ref: ref}
}

// Resolve finds the mapping row for a dealer name. Matching is exact on the
// normalized name first, then bidirectional substring, both in file order.
// An unmatched name comes back title-cased with empty id and rep; an empty
// name is not found at all.
func (r *Resolver) Resolve(name string) (models.DealerLookup, bool) {
	norm := utils.NormalizeName(name)
	if norm == "" {
		return models.DealerLookup{}, false
	}

	for _, rd := range r.Ref.RepDealers {
		if utils.NormalizeName(rd.DealerName) == norm {
			return models.DealerLookup{DealerName: rd.DealerName, DealerID: rd.DealerID, Rep: rd.RepName}, true
		}
	}
	for _, rd := range r.Ref.RepDealers {
		cand := utils.NormalizeName(rd.DealerName)
		if strings.Contains(cand, norm) || strings.Contains(norm, cand) {
			return models.DealerLookup{DealerName: rd.DealerName, DealerID: rd.DealerID, Rep: rd.RepName}, true
		}
	}

	return models.DealerLookup{DealerName: utils.TitleCase(norm)}, true
}

// Enrich fills dealer id, rep and contact on a classification. "Multiple:"
// dealer names skip the lookup; contact always mirrors rep when a rep is
// known.
func (r *Resolver) Enrich(c models.Classification) models.Classification {
	name := strings.TrimSpace(c.DealerName)
	if name == "" || strings.HasPrefix(name, "Multiple:") {
		if c.Rep != "" && c.Contact == "" {
			c.Contact = c.Rep
		}
		return c
	}

	lookup, ok := r.Resolve(name)
	if ok {
		c.DealerName = lookup.DealerName
		if lookup.DealerID != "" {
			c.DealerID = lookup.DealerID
		}
		if lookup.Rep != "" {
			c.Rep = lookup.Rep
		}
	}
	if c.Rep != "" && c.Contact == "" {
		c.Contact = c.Rep
	}
	return c
}
