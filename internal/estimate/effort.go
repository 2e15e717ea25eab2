// Package estimate turns complexity multipliers into delivery effort
// estimates per stage and per delivery service.
package estimate

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/odaworks/delivery-cli/internal/complexity"
)

// Baseline holds the un-scaled effort assumptions in person-days.
type Baseline struct {
	StageDays   map[string]float64 `yaml:"stage_days" mapstructure:"stage_days"`
	ServiceDays map[string]float64 `yaml:"service_days" mapstructure:"service_days"`
}

// DefaultBaseline returns the standard per-stage and per-service
// baseline effort for a mid-size BSS transformation.
func DefaultBaseline() Baseline {
	return Baseline{
		StageDays: map[string]float64{
			"presales":        10,
			"solution-design": 40,
			"build":           120,
			"sit":             45,
			"uat":             30,
			"migration":       25,
			"cutover":         10,
			"hypercare":       20,
		},
		ServiceDays: map[string]float64{
			"migration":          25,
			"training":           15,
			"testing":            30,
			"environments":       10,
			"release-management": 12,
		},
	}
}

// StageEffort is the scaled effort for one delivery stage.
type StageEffort struct {
	Stage        string  `json:"stage" csv:"stage"`
	BaselineDays float64 `json:"baseline_days" csv:"baseline_days"`
	Multiplier   float64 `json:"multiplier" csv:"multiplier"`
	Days         float64 `json:"days" csv:"days"`
}

// ServiceEffort is the scaled effort for one delivery service. Service
// multipliers apply independently of the overall complexity multiplier.
type ServiceEffort struct {
	Service      string  `json:"service" csv:"service"`
	BaselineDays float64 `json:"baseline_days" csv:"baseline_days"`
	Multiplier   float64 `json:"multiplier" csv:"multiplier"`
	Days         float64 `json:"days" csv:"days"`
}

// Breakdown is the full effort estimate derived from a complexity result.
type Breakdown struct {
	Stages            []StageEffort   `json:"stages"`
	Services          []ServiceEffort `json:"services"`
	StageTotalDays    float64         `json:"stage_total_days"`
	ServiceTotalDays  float64         `json:"service_total_days"`
	OverallMultiplier float64         `json:"overall_multiplier"`
}

// round1 rounds effort to a tenth of a day for presentation.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ComputeBreakdown scales baseline effort by the complexity result.
// Stages without a multiplier in the result are skipped (they were not
// part of the configured stage set); services follow the result's
// active delivery services.
func ComputeBreakdown(res complexity.Result, base Baseline) Breakdown {
	var b Breakdown
	b.OverallMultiplier = res.OverallMultiplier

	stages := make([]string, 0, len(base.StageDays))
	for stage := range base.StageDays {
		if _, ok := res.StageMultipliers[stage]; ok {
			stages = append(stages, stage)
		}
	}
	sort.Strings(stages)
	for _, stage := range stages {
		days := round1(base.StageDays[stage] * res.StageMultipliers[stage])
		b.Stages = append(b.Stages, StageEffort{
			Stage:        stage,
			BaselineDays: base.StageDays[stage],
			Multiplier:   res.StageMultipliers[stage],
			Days:         days,
		})
		b.StageTotalDays += days
	}
	b.StageTotalDays = round1(b.StageTotalDays)

	services := make([]string, 0, len(res.DeliveryServiceMultipliers))
	for svc := range res.DeliveryServiceMultipliers {
		if _, ok := base.ServiceDays[svc]; ok {
			services = append(services, svc)
		}
	}
	sort.Strings(services)
	for _, svc := range services {
		days := round1(base.ServiceDays[svc] * res.DeliveryServiceMultipliers[svc])
		b.Services = append(b.Services, ServiceEffort{
			Service:      svc,
			BaselineDays: base.ServiceDays[svc],
			Multiplier:   res.DeliveryServiceMultipliers[svc],
			Days:         days,
		})
		b.ServiceTotalDays += days
	}
	b.ServiceTotalDays = round1(b.ServiceTotalDays)

	zap.L().Debug("estimate: effort breakdown computed",
		zap.Float64("overall_multiplier", b.OverallMultiplier),
		zap.Float64("stage_total_days", b.StageTotalDays),
		zap.Float64("service_total_days", b.ServiceTotalDays),
	)

	return b
}

// FormatDays renders an effort figure for table output.
func FormatDays(days float64) string {
	if days == math.Trunc(days) {
		return fmt.Sprintf("%.0fd", days)
	}
	return fmt.Sprintf("%.1fd", days)
}
