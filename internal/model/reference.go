// Package model defines the shared domain types for the delivery
// estimation core: the reference catalog, imported requirements, and
// match results.
package model

// ReferenceDomain is a top-level taxonomy grouping in the reference
// catalog (e.g., "Customer Domain"). Created once at catalog load time
// and never mutated afterwards.
type ReferenceDomain struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ReferenceFunction is a named capability belonging to exactly one
// domain. DomainName duplicates the owning domain's name so matching
// does not need a domain lookup per candidate.
type ReferenceFunction struct {
	ID         string   `json:"id" yaml:"id"`
	DomainID   string   `json:"domain_id" yaml:"domain_id"`
	DomainName string   `json:"domain_name" yaml:"domain_name"`
	Name       string   `json:"name" yaml:"name"`
	Vertical   string   `json:"vertical,omitempty" yaml:"vertical,omitempty"`
	LevelTags  []string `json:"level_tags,omitempty" yaml:"level_tags,omitempty"`
}
