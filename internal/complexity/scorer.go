package complexity

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Selection is the structured record of project-characteristic choices
// an estimator makes. Ids referencing unknown options degrade to
// identity multipliers; they never fail the computation.
type Selection struct {
	CustomerTypeIDs     []string                `yaml:"customer_type_ids" json:"customer_type_ids"`
	ProductMixIDs       []string                `yaml:"product_mix_ids" json:"product_mix_ids"`
	AccessTechnologyIDs []string                `yaml:"access_technology_ids" json:"access_technology_ids"`
	ChannelIDs          []string                `yaml:"channel_ids" json:"channel_ids"`
	DeploymentID        string                  `yaml:"deployment_id" json:"deployment_id"`
	NFRSelections       map[NFRDimension]string `yaml:"nfr_selections" json:"nfr_selections"`
	Integration         IntegrationSelection    `yaml:"integration" json:"integration"`
	// DeliveryServicesEnabled limits which delivery services appear in
	// the result; nil means all configured services are active.
	DeliveryServicesEnabled []string `yaml:"delivery_services_enabled,omitempty" json:"delivery_services_enabled,omitempty"`
}

// IntegrationSelection describes the integration scope of the project.
type IntegrationSelection struct {
	APICount                    int  `yaml:"api_count" json:"api_count"`
	RequiresLegacyCompatibility bool `yaml:"requires_legacy_compatibility" json:"requires_legacy_compatibility"`
}

// Resolved is one resolved multiplier with its provenance.
type Resolved struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Multiplier float64 `json:"multiplier"`
}

// Category keys used in Result.Categories.
const (
	CategoryCustomerType     = "customer_type"
	CategoryProductMix       = "product_mix"
	CategoryAccessTechnology = "access_technology"
	CategoryChannel          = "channel"
	CategoryDeployment       = "deployment"
)

// Result is the outcome of a complexity computation. It is ephemeral
// and recomputed on every selection change.
type Result struct {
	Categories map[string]Resolved `json:"categories"`
	// NFRs holds the resolved tier per dimension; nil when the dimension
	// was not selected or the tier id is unknown.
	NFRs        map[NFRDimension]*Resolved `json:"nfrs"`
	Integration Resolved                   `json:"integration"`
	// OverallMultiplier folds categories, NFRs, and integration.
	// Delivery services are excluded: they apply only to
	// service-specific costing downstream.
	OverallMultiplier          float64            `json:"overall_multiplier"`
	StageMultipliers           map[string]float64 `json:"stage_multipliers"`
	DeliveryServiceMultipliers map[string]float64 `json:"delivery_service_multipliers"`
	// UnresolvedIDs lists every selection id that degraded to the
	// identity multiplier, so stale selections are detectable.
	UnresolvedIDs []string `json:"unresolved_ids,omitempty"`
}

// round4 rounds published multipliers to 4 decimal places so
// floating-point noise does not propagate into displayed values.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Compute resolves a selection against the configuration. It is a pure,
// total function: semantically invalid ids degrade to identity
// multipliers and are reported via UnresolvedIDs.
func Compute(sel Selection, cfg Config) Result {
	res := Result{
		Categories:       make(map[string]Resolved, 5),
		NFRs:             make(map[NFRDimension]*Resolved, len(AllNFRDimensions())),
		StageMultipliers: make(map[string]float64, len(cfg.StageBaselines)),
	}

	res.Categories[CategoryCustomerType] = resolveMulti(CategoryCustomerType, sel.CustomerTypeIDs, cfg.CustomerTypes, &res.UnresolvedIDs)
	res.Categories[CategoryProductMix] = resolveMulti(CategoryProductMix, sel.ProductMixIDs, cfg.ProductMixes, &res.UnresolvedIDs)
	res.Categories[CategoryAccessTechnology] = resolveMulti(CategoryAccessTechnology, sel.AccessTechnologyIDs, cfg.AccessTechnologies, &res.UnresolvedIDs)
	res.Categories[CategoryChannel] = resolveMulti(CategoryChannel, sel.ChannelIDs, cfg.Channels, &res.UnresolvedIDs)
	res.Categories[CategoryDeployment] = resolveSingle(CategoryDeployment, sel.DeploymentID, cfg.Deployments, &res.UnresolvedIDs)

	nfrAggregate := 1.0
	for _, dim := range AllNFRDimensions() {
		tierID, ok := sel.NFRSelections[dim]
		if !ok || tierID == "" {
			res.NFRs[dim] = nil
			continue
		}
		opt, found := lookupOption(cfg.NFRTiers[dim], tierID)
		if !found {
			res.NFRs[dim] = nil
			res.UnresolvedIDs = append(res.UnresolvedIDs, "nfr."+string(dim)+":"+tierID)
			continue
		}
		res.NFRs[dim] = &Resolved{Key: opt.ID, Label: opt.Label, Multiplier: opt.Multiplier}
		nfrAggregate *= opt.Multiplier
	}

	res.Integration = resolveIntegration(sel.Integration, cfg.Integration)

	overall := nfrAggregate * res.Integration.Multiplier
	for _, cat := range res.Categories {
		overall *= cat.Multiplier
	}
	res.OverallMultiplier = round4(overall)

	for stage, baseline := range cfg.StageBaselines {
		res.StageMultipliers[stage] = round4(baseline * res.OverallMultiplier)
	}

	res.DeliveryServiceMultipliers = resolveDeliveryServices(sel.DeliveryServicesEnabled, cfg.DeliveryServices)

	sort.Strings(res.UnresolvedIDs)
	return res
}

// resolveMulti folds a multi-select category into the product of its
// selected multipliers. Zero selections contribute the identity.
func resolveMulti(key string, ids []string, opts []Option, unresolved *[]string) Resolved {
	if len(ids) == 0 {
		return Resolved{Key: key, Label: "None selected", Multiplier: 1.0}
	}

	product := 1.0
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		opt, found := lookupOption(opts, id)
		if !found {
			*unresolved = append(*unresolved, key+":"+id)
			labels = append(labels, id)
			continue
		}
		product *= opt.Multiplier
		labels = append(labels, opt.Label)
	}

	return Resolved{
		Key:        key,
		Label:      strings.Join(labels, " + "),
		Multiplier: round4(product),
	}
}

// resolveSingle resolves a single-select category.
func resolveSingle(key, id string, opts []Option, unresolved *[]string) Resolved {
	if id == "" {
		return Resolved{Key: key, Label: "None selected", Multiplier: 1.0}
	}
	opt, found := lookupOption(opts, id)
	if !found {
		*unresolved = append(*unresolved, key+":"+id)
		return Resolved{Key: key, Label: id, Multiplier: 1.0}
	}
	return Resolved{Key: key, Label: opt.Label, Multiplier: opt.Multiplier}
}

// resolveIntegration computes base = 1 + apiCount * basePerApiPercent,
// applies the legacy multiplier when required, and clamps to the cap.
func resolveIntegration(sel IntegrationSelection, cfg IntegrationConfig) Resolved {
	apiCount := sel.APICount
	if apiCount < 0 {
		apiCount = 0
	}

	mul := 1.0 + float64(apiCount)*cfg.BasePerAPIPercent
	label := fmt.Sprintf("%d APIs", apiCount)
	if sel.RequiresLegacyCompatibility {
		mul *= cfg.LegacyCompatibilityMultiplier
		label += " with legacy compatibility"
	}
	if cfg.Cap > 0 {
		mul = math.Min(mul, cfg.Cap)
	}

	return Resolved{Key: "integration", Label: label, Multiplier: round4(mul)}
}

// resolveDeliveryServices copies configured multipliers for the enabled
// services (all of them when enabled is nil). Unknown names are
// silently omitted.
func resolveDeliveryServices(enabled []string, configured map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	if enabled == nil {
		for name, mul := range configured {
			out[name] = mul
		}
		return out
	}
	for _, name := range enabled {
		if mul, ok := configured[name]; ok {
			out[name] = mul
		}
	}
	return out
}

func lookupOption(opts []Option, id string) (Option, bool) {
	for _, opt := range opts {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}
