package store

import (
	"context"

	"github.com/odaworks/delivery-cli/internal/model"
)

// AssignmentFilter specifies criteria for listing stored assignments.
type AssignmentFilter struct {
	BatchID    string `json:"batch_id,omitempty"`
	FunctionID string `json:"function_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the reference catalog and
// requirement-to-function assignments.
type Store interface {
	// Catalog
	ReplaceCatalog(ctx context.Context, domains []model.ReferenceDomain, functions []model.ReferenceFunction) error
	ListDomains(ctx context.Context) ([]model.ReferenceDomain, error)
	ListFunctions(ctx context.Context) ([]model.ReferenceFunction, error)
	ListFunctionsByDomain(ctx context.Context, domainID string) ([]model.ReferenceFunction, error)

	// Mapping results
	CreateImportBatch(ctx context.Context, sourceFile string, total, unmapped int) (*model.ImportBatch, error)
	SaveAssignments(ctx context.Context, batchID string, assignments []model.Assignment) (int64, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error)
	ListImportBatches(ctx context.Context, limit int) ([]model.ImportBatch, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
