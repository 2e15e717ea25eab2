package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odaworks/delivery-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_ListDomains(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"id", "name"}).
		AddRow("d-customer", "Customer Domain").
		AddRow("d-product", "Product Domain")
	mock.ExpectQuery(`SELECT id, name FROM ref_domains`).WillReturnRows(rows)

	domains, err := s.ListDomains(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, "d-customer", domains[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListFunctions(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	tags := []byte(`["L2","L3"]`)
	rows := pgxmock.NewRows([]string{"id", "domain_id", "name", "fname", "vertical", "level_tags"}).
		AddRow("f1", "d-customer", "Customer Domain", "Customer Account Management", ptr("telco"), tags)
	mock.ExpectQuery(`FROM ref_functions f JOIN ref_domains d`).WillReturnRows(rows)

	funcs, err := s.ListFunctions(context.Background())
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, "Customer Domain", funcs[0].DomainName)
	assert.Equal(t, "telco", funcs[0].Vertical)
	assert.Equal(t, []string{"L2", "L3"}, funcs[0].LevelTags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceCatalog(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM ref_functions`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM ref_domains`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"ref_domains"}, []string{"id", "name"}).WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{"ref_functions"}, []string{"id", "domain_id", "name", "vertical", "level_tags"}).WillReturnResult(2)
	mock.ExpectCommit()

	domains := []model.ReferenceDomain{{ID: "d-customer", Name: "Customer Domain"}}
	functions := []model.ReferenceFunction{
		{ID: "cu-001", DomainID: "d-customer", Name: "Customer Account Management", LevelTags: []string{"L2"}},
		{ID: "cu-002", DomainID: "d-customer", Name: "Customer Order Capture"},
	}
	require.NoError(t, s.ReplaceCatalog(context.Background(), domains, functions))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateImportBatch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO import_batches`).
		WithArgs(pgxmock.AnyArg(), "reqs.csv", 10, 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	batch, err := s.CreateImportBatch(context.Background(), "reqs.csv", 10, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, 10, batch.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAssignments_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"requirement_id", "function_id", "function_name", "domain_name", "confidence"}).
		AddRow("R-001", "f1", "Customer Account Management", "Customer Domain", 1.0)
	mock.ExpectQuery(`FROM assignments WHERE true AND batch_id = \$1`).
		WithArgs("batch-1", 1000).
		WillReturnRows(rows)

	got, err := s.ListAssignments(context.Background(), AssignmentFilter{BatchID: "batch-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "R-001", got[0].RequirementID)
	assert.Equal(t, 1.0, got[0].Confidence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptr(s string) *string { return &s }
