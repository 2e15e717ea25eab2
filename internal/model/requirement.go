package model

import "time"

// RequirementRecord is one imported requirement line. FunctionNameRaw
// is analyst free text and may not exactly match any catalog entry.
type RequirementRecord struct {
	RequirementID   string `json:"requirement_id"`
	FunctionNameRaw string `json:"function_name_raw"`
	DomainHint      string `json:"domain_hint,omitempty"`
}

// Assignment records the single best catalog match for one requirement.
// Confidence is in [0, 1].
type Assignment struct {
	RequirementID string  `json:"requirement_id" csv:"requirement_id"`
	FunctionID    string  `json:"function_id" csv:"function_id"`
	FunctionName  string  `json:"function_name" csv:"function_name"`
	DomainName    string  `json:"domain_name" csv:"domain_name"`
	Confidence    float64 `json:"confidence" csv:"confidence"`
}

// MappingResult aggregates a batch mapping run over many requirements.
// Unmapped counts requirements for which no qualifying candidate was
// found; it is not derivable from len(Assignments) because duplicate
// (function, requirement) pairs are dropped.
type MappingResult struct {
	CountsByFunction map[string]int `json:"counts_by_function"`
	Assignments      []Assignment   `json:"assignments"`
	Unmapped         int            `json:"unmapped"`
}

// ImportBatch records one persisted requirements import.
type ImportBatch struct {
	ID         string    `json:"id"`
	SourceFile string    `json:"source_file"`
	Total      int       `json:"total"`
	Unmapped   int       `json:"unmapped"`
	CreatedAt  time.Time `json:"created_at"`
}
