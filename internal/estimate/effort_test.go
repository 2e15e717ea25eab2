package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odaworks/delivery-cli/internal/complexity"
)

func TestComputeBreakdown_Identity(t *testing.T) {
	res := complexity.Compute(complexity.Selection{
		DeliveryServicesEnabled: []string{},
	}, complexity.DefaultConfig())
	base := DefaultBaseline()

	b := ComputeBreakdown(res, base)

	require.Len(t, b.Stages, len(base.StageDays))
	for _, se := range b.Stages {
		assert.Equal(t, base.StageDays[se.Stage], se.Days, "identity selection leaves baseline unchanged")
		assert.Equal(t, 1.0, se.Multiplier)
	}
	assert.Empty(t, b.Services)
	assert.Equal(t, 1.0, b.OverallMultiplier)

	var want float64
	for _, d := range base.StageDays {
		want += d
	}
	assert.Equal(t, want, b.StageTotalDays)
}

func TestComputeBreakdown_Scaled(t *testing.T) {
	res := complexity.Compute(complexity.Selection{
		CustomerTypeIDs:         []string{"enterprise"}, // 1.3
		DeliveryServicesEnabled: []string{"training"},   // 1.1
	}, complexity.DefaultConfig())
	base := Baseline{
		StageDays:   map[string]float64{"build": 100, "uat": 10},
		ServiceDays: map[string]float64{"training": 20, "testing": 30},
	}

	b := ComputeBreakdown(res, base)

	require.Len(t, b.Stages, 2)
	assert.Equal(t, "build", b.Stages[0].Stage)
	assert.Equal(t, 130.0, b.Stages[0].Days)
	assert.Equal(t, "uat", b.Stages[1].Stage)
	assert.Equal(t, 13.0, b.Stages[1].Days)
	assert.Equal(t, 143.0, b.StageTotalDays)

	// Only the enabled service with a baseline appears; service effort
	// uses the service multiplier, not the overall multiplier.
	require.Len(t, b.Services, 1)
	assert.Equal(t, "training", b.Services[0].Service)
	assert.Equal(t, 22.0, b.Services[0].Days)
	assert.Equal(t, 22.0, b.ServiceTotalDays)
}

func TestComputeBreakdown_SkipsStagesWithoutMultiplier(t *testing.T) {
	cfg := complexity.DefaultConfig()
	cfg.StageBaselines = map[string]float64{"build": 1.0}
	res := complexity.Compute(complexity.Selection{DeliveryServicesEnabled: []string{}}, cfg)

	b := ComputeBreakdown(res, DefaultBaseline())

	require.Len(t, b.Stages, 1)
	assert.Equal(t, "build", b.Stages[0].Stage)
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "120d", FormatDays(120))
	assert.Equal(t, "13.5d", FormatDays(13.5))
	assert.Equal(t, "0d", FormatDays(0))
}

func TestDefaultBaselineCoversConfiguredStages(t *testing.T) {
	base := DefaultBaseline()
	for _, stage := range complexity.DeliveryStages {
		assert.Contains(t, base.StageDays, stage)
	}
}
