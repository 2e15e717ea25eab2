package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odaworks/delivery-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testCatalog() ([]model.ReferenceDomain, []model.ReferenceFunction) {
	domains := []model.ReferenceDomain{
		{ID: "d-customer", Name: "Customer Domain"},
		{ID: "d-product", Name: "Product Domain"},
	}
	functions := []model.ReferenceFunction{
		{ID: "f1", DomainID: "d-customer", Name: "Customer Account Management", Vertical: "telco", LevelTags: []string{"L2", "L3"}},
		{ID: "f2", DomainID: "d-customer", Name: "Customer Order Capture", Vertical: "telco"},
		{ID: "f3", DomainID: "d-product", Name: "Product Catalog Management", Vertical: "telco", LevelTags: []string{"L2"}},
	}
	return domains, functions
}

// --- Catalog ---

func TestSQLite_ReplaceCatalog_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	domains, functions := testCatalog()
	require.NoError(t, st.ReplaceCatalog(ctx, domains, functions))

	gotDomains, err := st.ListDomains(ctx)
	require.NoError(t, err)
	require.Len(t, gotDomains, 2)
	assert.Equal(t, "Customer Domain", gotDomains[0].Name)

	gotFuncs, err := st.ListFunctions(ctx)
	require.NoError(t, err)
	require.Len(t, gotFuncs, 3)

	byID := make(map[string]model.ReferenceFunction)
	for _, f := range gotFuncs {
		byID[f.ID] = f
	}
	assert.Equal(t, "Customer Domain", byID["f1"].DomainName)
	assert.Equal(t, []string{"L2", "L3"}, byID["f1"].LevelTags)
	assert.Equal(t, "telco", byID["f3"].Vertical)
}

func TestSQLite_ReplaceCatalog_Replaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	domains, functions := testCatalog()
	require.NoError(t, st.ReplaceCatalog(ctx, domains, functions))

	// Load a smaller catalog; the old one must be gone.
	require.NoError(t, st.ReplaceCatalog(ctx,
		[]model.ReferenceDomain{{ID: "d-billing", Name: "Billing Domain"}},
		[]model.ReferenceFunction{{ID: "f9", DomainID: "d-billing", Name: "Invoice Generation"}},
	))

	gotFuncs, err := st.ListFunctions(ctx)
	require.NoError(t, err)
	require.Len(t, gotFuncs, 1)
	assert.Equal(t, "f9", gotFuncs[0].ID)
	assert.Equal(t, "Billing Domain", gotFuncs[0].DomainName)
}

func TestSQLite_ListFunctionsByDomain(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	domains, functions := testCatalog()
	require.NoError(t, st.ReplaceCatalog(ctx, domains, functions))

	got, err := st.ListFunctionsByDomain(ctx, "d-customer")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, f := range got {
		assert.Equal(t, "d-customer", f.DomainID)
	}
}

func TestSQLite_ListFunctions_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.ListFunctions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- Import batches and assignments ---

func TestSQLite_CreateImportBatch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	batch, err := st.CreateImportBatch(ctx, "requirements.csv", 42, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, "requirements.csv", batch.SourceFile)
	assert.Equal(t, 42, batch.Total)
	assert.Equal(t, 3, batch.Unmapped)

	batches, err := st.ListImportBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, batch.ID, batches[0].ID)
}

func TestSQLite_SaveAndListAssignments(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	batch, err := st.CreateImportBatch(ctx, "reqs.csv", 3, 1)
	require.NoError(t, err)

	assignments := []model.Assignment{
		{RequirementID: "R-001", FunctionID: "f1", FunctionName: "Customer Account Management", DomainName: "Customer Domain", Confidence: 1.0},
		{RequirementID: "R-002", FunctionID: "f1", FunctionName: "Customer Account Management", DomainName: "Customer Domain", Confidence: 0.8},
		{RequirementID: "R-003", FunctionID: "f3", FunctionName: "Product Catalog Management", DomainName: "Product Domain", Confidence: 0.6},
	}
	n, err := st.SaveAssignments(ctx, batch.ID, assignments)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := st.ListAssignments(ctx, AssignmentFilter{BatchID: batch.ID})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "R-001", got[0].RequirementID)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestSQLite_SaveAssignments_UpsertOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	batch, err := st.CreateImportBatch(ctx, "reqs.csv", 1, 0)
	require.NoError(t, err)

	first := []model.Assignment{
		{RequirementID: "R-001", FunctionID: "f1", FunctionName: "Customer Account Management", DomainName: "Customer Domain", Confidence: 0.6},
	}
	_, err = st.SaveAssignments(ctx, batch.ID, first)
	require.NoError(t, err)

	second := []model.Assignment{
		{RequirementID: "R-001", FunctionID: "f1", FunctionName: "Customer Account Management", DomainName: "Customer Domain", Confidence: 0.8},
	}
	_, err = st.SaveAssignments(ctx, batch.ID, second)
	require.NoError(t, err)

	got, err := st.ListAssignments(ctx, AssignmentFilter{BatchID: batch.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.8, got[0].Confidence)
}

func TestSQLite_SaveAssignments_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.SaveAssignments(context.Background(), "whatever", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSQLite_ListAssignments_FilterByFunction(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	batch, err := st.CreateImportBatch(ctx, "reqs.csv", 2, 0)
	require.NoError(t, err)

	_, err = st.SaveAssignments(ctx, batch.ID, []model.Assignment{
		{RequirementID: "R-001", FunctionID: "f1", FunctionName: "A", DomainName: "D", Confidence: 1.0},
		{RequirementID: "R-002", FunctionID: "f3", FunctionName: "B", DomainName: "D", Confidence: 0.8},
	})
	require.NoError(t, err)

	got, err := st.ListAssignments(ctx, AssignmentFilter{BatchID: batch.ID, FunctionID: "f3"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "R-002", got[0].RequirementID)
}

// --- Migrate ---

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)

	// Migrate was already called in newTestSQLiteStore; calling again must not error.
	err := st.Migrate(context.Background())
	require.NoError(t, err)
}
