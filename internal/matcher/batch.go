package matcher

import (
	"go.uber.org/zap"

	"github.com/odaworks/delivery-cli/internal/model"
)

// MapAll maps a batch of requirements against the catalog. A single
// requirement is never counted twice against the same function: the
// (functionID, requirementID) pair is deduplicated. Unmapped counts the
// requirements with no qualifying candidate.
func (m *Matcher) MapAll(items []model.RequirementRecord, funcs []model.ReferenceFunction) model.MappingResult {
	result := model.MappingResult{
		CountsByFunction: make(map[string]int),
	}

	seen := make(map[[2]string]struct{}, len(items))
	for _, item := range items {
		match := m.FindBestMatch(item.FunctionNameRaw, item.DomainHint, funcs)
		if match == nil {
			result.Unmapped++
			continue
		}

		key := [2]string{match.Function.ID, item.RequirementID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		result.CountsByFunction[match.Function.ID]++
		result.Assignments = append(result.Assignments, model.Assignment{
			RequirementID: item.RequirementID,
			FunctionID:    match.Function.ID,
			FunctionName:  match.Function.Name,
			DomainName:    match.Function.DomainName,
			Confidence:    match.Confidence,
		})
	}

	zap.L().Info("matcher: batch mapping complete",
		zap.Int("requirements", len(items)),
		zap.Int("assigned", len(result.Assignments)),
		zap.Int("unmapped", result.Unmapped),
	)

	return result
}
