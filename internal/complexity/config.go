// Package complexity implements the multiplicative effort-complexity
// model: a structured selection of project characteristics is resolved
// against a static configuration of per-option multipliers to produce
// an overall multiplier, per-stage multipliers, and per-delivery-service
// multipliers.
package complexity

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Option is one configured choice within a category, carrying a
// multiplicative effort factor.
type Option struct {
	ID         string  `yaml:"id" json:"id"`
	Label      string  `yaml:"label" json:"label"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// NFRDimension names one non-functional-requirement dimension.
type NFRDimension string

const (
	NFRPerformance  NFRDimension = "performance"
	NFRScalability  NFRDimension = "scalability"
	NFRSecurity     NFRDimension = "security"
	NFRAvailability NFRDimension = "availability"
)

// AllNFRDimensions returns the four dimensions in stable order.
func AllNFRDimensions() []NFRDimension {
	return []NFRDimension{NFRPerformance, NFRScalability, NFRSecurity, NFRAvailability}
}

// IntegrationConfig parameterizes the integration-scope multiplier.
type IntegrationConfig struct {
	// BasePerAPIPercent is the fractional uplift per integrated API.
	BasePerAPIPercent float64 `yaml:"base_per_api_percent" json:"base_per_api_percent"`
	// LegacyCompatibilityMultiplier applies when legacy compatibility is required.
	LegacyCompatibilityMultiplier float64 `yaml:"legacy_compatibility_multiplier" json:"legacy_compatibility_multiplier"`
	// Cap clamps the resolved integration multiplier; 0 means uncapped.
	Cap float64 `yaml:"cap,omitempty" json:"cap,omitempty"`
}

// Config is the static, versioned complexity configuration. It is
// constructed once (DefaultConfig or loaded from file), validated, and
// never mutated afterwards.
type Config struct {
	CustomerTypes      []Option                  `yaml:"customer_types" json:"customer_types"`
	ProductMixes       []Option                  `yaml:"product_mixes" json:"product_mixes"`
	AccessTechnologies []Option                  `yaml:"access_technologies" json:"access_technologies"`
	Channels           []Option                  `yaml:"channels" json:"channels"`
	Deployments        []Option                  `yaml:"deployments" json:"deployments"`
	NFRTiers           map[NFRDimension][]Option `yaml:"nfr_tiers" json:"nfr_tiers"`
	Integration        IntegrationConfig         `yaml:"integration" json:"integration"`
	DeliveryServices   map[string]float64        `yaml:"delivery_services" json:"delivery_services"`
	StageBaselines     map[string]float64        `yaml:"stage_baselines" json:"stage_baselines"`
}

// DeliveryStages lists the delivery stages in execution order.
var DeliveryStages = []string{
	"presales",
	"solution-design",
	"build",
	"sit",
	"uat",
	"migration",
	"cutover",
	"hypercare",
}

// DefaultConfig returns the standard complexity configuration table.
func DefaultConfig() Config {
	stageBaselines := make(map[string]float64, len(DeliveryStages))
	for _, stage := range DeliveryStages {
		stageBaselines[stage] = 1.0
	}

	return Config{
		CustomerTypes: []Option{
			{ID: "consumer", Label: "Consumer", Multiplier: 1.0},
			{ID: "smb", Label: "Small / Medium Business", Multiplier: 1.1},
			{ID: "enterprise", Label: "Enterprise", Multiplier: 1.3},
			{ID: "wholesale", Label: "Wholesale", Multiplier: 1.2},
			{ID: "government", Label: "Government", Multiplier: 1.25},
		},
		ProductMixes: []Option{
			{ID: "mobile", Label: "Mobile", Multiplier: 1.0},
			{ID: "fixed-voice", Label: "Fixed Voice", Multiplier: 1.05},
			{ID: "broadband", Label: "Broadband", Multiplier: 1.1},
			{ID: "fiber", Label: "Fiber", Multiplier: 1.25},
			{ID: "tv", Label: "TV & Entertainment", Multiplier: 1.1},
			{ID: "iot", Label: "IoT", Multiplier: 1.2},
			{ID: "cloud-services", Label: "Cloud Services", Multiplier: 1.15},
		},
		AccessTechnologies: []Option{
			{ID: "4g", Label: "4G", Multiplier: 1.0},
			{ID: "5g", Label: "5G", Multiplier: 1.15},
			{ID: "ftth", Label: "FTTH", Multiplier: 1.1},
			{ID: "dsl", Label: "DSL", Multiplier: 1.05},
			{ID: "cable", Label: "Cable", Multiplier: 1.05},
			{ID: "satellite", Label: "Satellite", Multiplier: 1.2},
			{ID: "fixed-wireless", Label: "Fixed Wireless Access", Multiplier: 1.1},
		},
		Channels: []Option{
			{ID: "retail", Label: "Retail", Multiplier: 1.0},
			{ID: "digital", Label: "Digital", Multiplier: 1.05},
			{ID: "call-center", Label: "Call Center", Multiplier: 1.1},
			{ID: "partner", Label: "Partner / Dealer", Multiplier: 1.15},
			{ID: "field-sales", Label: "Field Sales", Multiplier: 1.1},
			{ID: "self-service", Label: "Self Service", Multiplier: 1.05},
		},
		Deployments: []Option{
			{ID: "saas", Label: "SaaS", Multiplier: 1.0},
			{ID: "cloud", Label: "Public Cloud", Multiplier: 1.08},
			{ID: "private-cloud", Label: "Private Cloud", Multiplier: 1.12},
			{ID: "hybrid", Label: "Hybrid", Multiplier: 1.15},
			{ID: "on-premise", Label: "On-Premise", Multiplier: 1.2},
		},
		NFRTiers: map[NFRDimension][]Option{
			NFRPerformance: {
				{ID: "standard", Label: "Standard Performance", Multiplier: 1.0},
				{ID: "enhanced", Label: "Enhanced Performance", Multiplier: 1.1},
				{ID: "real-time", Label: "Real-Time Performance", Multiplier: 1.25},
			},
			NFRScalability: {
				{ID: "standard", Label: "Standard Scalability", Multiplier: 1.0},
				{ID: "elastic", Label: "Elastic Scalability", Multiplier: 1.1},
				{ID: "hyperscale", Label: "Hyperscale", Multiplier: 1.2},
			},
			NFRSecurity: {
				{ID: "standard", Label: "Standard Security", Multiplier: 1.0},
				{ID: "hardened", Label: "Hardened Security", Multiplier: 1.15},
				{ID: "regulated", Label: "Regulated / Compliance", Multiplier: 1.3},
			},
			NFRAvailability: {
				{ID: "business-hours", Label: "Business Hours", Multiplier: 1.0},
				{ID: "high", Label: "High Availability", Multiplier: 1.1},
				{ID: "continuous", Label: "Continuous Availability", Multiplier: 1.2},
			},
		},
		Integration: IntegrationConfig{
			BasePerAPIPercent:             0.10,
			LegacyCompatibilityMultiplier: 1.15,
			Cap:                           2.0,
		},
		DeliveryServices: map[string]float64{
			"migration":          1.2,
			"training":           1.1,
			"testing":            1.15,
			"environments":       1.05,
			"release-management": 1.1,
		},
		StageBaselines: stageBaselines,
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	var errs []string

	categories := []struct {
		name string
		opts []Option
	}{
		{"customer_types", c.CustomerTypes},
		{"product_mixes", c.ProductMixes},
		{"access_technologies", c.AccessTechnologies},
		{"channels", c.Channels},
		{"deployments", c.Deployments},
	}
	for _, cat := range categories {
		errs = append(errs, validateOptions(cat.name, cat.opts)...)
	}
	for dim, tiers := range c.NFRTiers {
		errs = append(errs, validateOptions("nfr_tiers."+string(dim), tiers)...)
	}

	if c.Integration.BasePerAPIPercent < 0 {
		errs = append(errs, "integration.base_per_api_percent must be >= 0")
	}
	if c.Integration.LegacyCompatibilityMultiplier < 1 {
		errs = append(errs, "integration.legacy_compatibility_multiplier must be >= 1")
	}
	if c.Integration.Cap != 0 && c.Integration.Cap < 1 {
		errs = append(errs, "integration.cap must be 0 (uncapped) or >= 1")
	}

	for name, mul := range c.DeliveryServices {
		if mul <= 0 {
			errs = append(errs, fmt.Sprintf("delivery_services.%s multiplier must be > 0", name))
		}
	}
	for stage, baseline := range c.StageBaselines {
		if baseline <= 0 {
			errs = append(errs, fmt.Sprintf("stage_baselines.%s must be > 0", stage))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("complexity: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOptions(category string, opts []Option) []string {
	var errs []string
	seen := make(map[string]bool, len(opts))
	for _, opt := range opts {
		if opt.ID == "" {
			errs = append(errs, category+" has an option with empty id")
			continue
		}
		if seen[opt.ID] {
			errs = append(errs, fmt.Sprintf("%s has duplicate option id %q", category, opt.ID))
		}
		seen[opt.ID] = true
		if opt.Multiplier <= 0 {
			errs = append(errs, fmt.Sprintf("%s.%s multiplier must be > 0", category, opt.ID))
		}
	}
	return errs
}
