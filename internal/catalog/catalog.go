// Package catalog provides the reference function catalog and the sources
// it can be loaded from.
package catalog

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/odaworks/delivery-cli/internal/model"
)

// Catalog holds a full reference catalog: domains plus the functions
// grouped under them.
type Catalog struct {
	Domains   []model.ReferenceDomain   `json:"domains" yaml:"domains"`
	Functions []model.ReferenceFunction `json:"functions" yaml:"functions"`
}

// Source loads a reference catalog from somewhere.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// Validate checks referential integrity and fills in the denormalized
// DomainName on every function.
func (c *Catalog) Validate() error {
	var errs []string

	domainsByID := make(map[string]string, len(c.Domains))
	for _, d := range c.Domains {
		if d.ID == "" {
			errs = append(errs, "domain with empty id")
			continue
		}
		if _, dup := domainsByID[d.ID]; dup {
			errs = append(errs, "duplicate domain id "+d.ID)
			continue
		}
		if d.Name == "" {
			errs = append(errs, "domain "+d.ID+" has empty name")
		}
		domainsByID[d.ID] = d.Name
	}

	funcIDs := make(map[string]struct{}, len(c.Functions))
	for i, f := range c.Functions {
		if f.ID == "" {
			errs = append(errs, "function with empty id")
			continue
		}
		if _, dup := funcIDs[f.ID]; dup {
			errs = append(errs, "duplicate function id "+f.ID)
			continue
		}
		funcIDs[f.ID] = struct{}{}
		if f.Name == "" {
			errs = append(errs, "function "+f.ID+" has empty name")
		}
		name, ok := domainsByID[f.DomainID]
		if !ok {
			errs = append(errs, "function "+f.ID+" references unknown domain "+f.DomainID)
			continue
		}
		c.Functions[i].DomainName = name
	}

	if len(errs) > 0 {
		return eris.Errorf("catalog: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// FunctionsByDomain returns the functions whose domain matches the given
// id or name.
func (c *Catalog) FunctionsByDomain(domain string) []model.ReferenceFunction {
	var out []model.ReferenceFunction
	for _, f := range c.Functions {
		if f.DomainID == domain || f.DomainName == domain {
			out = append(out, f)
		}
	}
	return out
}

// Static is a Source that returns a fixed in-memory catalog.
type Static struct {
	catalog Catalog
}

// NewStatic wraps a catalog in a Source.
func NewStatic(c Catalog) *Static {
	return &Static{catalog: c}
}

func (s *Static) Load(ctx context.Context) (*Catalog, error) {
	c := s.catalog
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the built-in reference catalog, organized along the
// standard BSS domain breakdown.
func Default() *Static {
	return NewStatic(Catalog{
		Domains: []model.ReferenceDomain{
			{ID: "d-market-sales", Name: "Market Sales Domain"},
			{ID: "d-product", Name: "Product Domain"},
			{ID: "d-customer", Name: "Customer Domain"},
			{ID: "d-service", Name: "Service Domain"},
			{ID: "d-resource", Name: "Resource Domain"},
			{ID: "d-partner", Name: "Business Partner Domain"},
			{ID: "d-enterprise", Name: "Enterprise Domain"},
		},
		Functions: []model.ReferenceFunction{
			{ID: "ms-001", DomainID: "d-market-sales", Name: "Campaign Management", Vertical: "core-commerce", LevelTags: []string{"L2"}},
			{ID: "ms-002", DomainID: "d-market-sales", Name: "Lead and Opportunity Management", Vertical: "core-commerce", LevelTags: []string{"L2"}},
			{ID: "ms-003", DomainID: "d-market-sales", Name: "Sales Quote Management", Vertical: "core-commerce", LevelTags: []string{"L2", "L3"}},
			{ID: "ms-004", DomainID: "d-market-sales", Name: "Commission Management", Vertical: "core-commerce", LevelTags: []string{"L3"}},
			{ID: "pr-001", DomainID: "d-product", Name: "Product Catalog Management", Vertical: "core-commerce", LevelTags: []string{"L2"}},
			{ID: "pr-002", DomainID: "d-product", Name: "Product Offering Configuration", Vertical: "core-commerce", LevelTags: []string{"L3"}},
			{ID: "pr-003", DomainID: "d-product", Name: "Product Lifecycle Management", Vertical: "core-commerce", LevelTags: []string{"L2"}},
			{ID: "pr-004", DomainID: "d-product", Name: "Pricing and Discount Management", Vertical: "core-commerce", LevelTags: []string{"L3"}},
			{ID: "cu-001", DomainID: "d-customer", Name: "Customer Account Management", Vertical: "core-commerce", LevelTags: []string{"L2"}},
			{ID: "cu-002", DomainID: "d-customer", Name: "Customer Order Capture", Vertical: "core-commerce", LevelTags: []string{"L2", "L3"}},
			{ID: "cu-003", DomainID: "d-customer", Name: "Customer Order Orchestration", Vertical: "core-commerce", LevelTags: []string{"L3"}},
			{ID: "cu-004", DomainID: "d-customer", Name: "Billing Account Management", Vertical: "core-commerce", LevelTags: []string{"L2"}},
			{ID: "cu-005", DomainID: "d-customer", Name: "Bill Calculation", Vertical: "core-commerce", LevelTags: []string{"L3"}},
			{ID: "cu-006", DomainID: "d-customer", Name: "Payment Management", Vertical: "core-commerce", LevelTags: []string{"L2"}},
			{ID: "cu-007", DomainID: "d-customer", Name: "Collections Management", Vertical: "core-commerce", LevelTags: []string{"L3"}},
			{ID: "cu-008", DomainID: "d-customer", Name: "Customer Problem Management", Vertical: "care", LevelTags: []string{"L2"}},
			{ID: "cu-009", DomainID: "d-customer", Name: "Customer Interaction Management", Vertical: "care", LevelTags: []string{"L2"}},
			{ID: "cu-010", DomainID: "d-customer", Name: "Loyalty Program Management", Vertical: "care", LevelTags: []string{"L3"}},
			{ID: "sv-001", DomainID: "d-service", Name: "Service Order Management", Vertical: "production", LevelTags: []string{"L2"}},
			{ID: "sv-002", DomainID: "d-service", Name: "Service Catalog Management", Vertical: "production", LevelTags: []string{"L2"}},
			{ID: "sv-003", DomainID: "d-service", Name: "Service Activation and Configuration", Vertical: "production", LevelTags: []string{"L3"}},
			{ID: "sv-004", DomainID: "d-service", Name: "Service Quality Management", Vertical: "production", LevelTags: []string{"L3"}},
			{ID: "sv-005", DomainID: "d-service", Name: "Service Problem Management", Vertical: "production", LevelTags: []string{"L2"}},
			{ID: "rs-001", DomainID: "d-resource", Name: "Resource Inventory Management", Vertical: "production", LevelTags: []string{"L2"}},
			{ID: "rs-002", DomainID: "d-resource", Name: "Resource Order Management", Vertical: "production", LevelTags: []string{"L3"}},
			{ID: "rs-003", DomainID: "d-resource", Name: "Usage Collection and Mediation", Vertical: "production", LevelTags: []string{"L3"}},
			{ID: "bp-001", DomainID: "d-partner", Name: "Partner Settlement Management", Vertical: "core-commerce", LevelTags: []string{"L3"}},
			{ID: "bp-002", DomainID: "d-partner", Name: "Partner Onboarding and Agreement Management", Vertical: "core-commerce", LevelTags: []string{"L2"}},
			{ID: "en-001", DomainID: "d-enterprise", Name: "Revenue Assurance Management", Vertical: "intelligence", LevelTags: []string{"L3"}},
			{ID: "en-002", DomainID: "d-enterprise", Name: "Fraud Management", Vertical: "intelligence", LevelTags: []string{"L3"}},
			{ID: "en-003", DomainID: "d-enterprise", Name: "Workforce Management", Vertical: "engagement", LevelTags: []string{"L2"}},
		},
	})
}
