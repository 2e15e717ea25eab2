package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/odaworks/delivery-cli/internal/db"
	"github.com/odaworks/delivery-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_batch":     `INSERT INTO import_batches (id, source_file, total, unmapped, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"list_domains":     `SELECT id, name FROM ref_domains ORDER BY name`,
	"list_assignments": `SELECT requirement_id, function_id, function_name, domain_name, confidence FROM assignments WHERE batch_id = $1 ORDER BY requirement_id, function_id`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used in tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ref_domains (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ref_functions (
	id         TEXT PRIMARY KEY,
	domain_id  TEXT NOT NULL REFERENCES ref_domains(id),
	name       TEXT NOT NULL,
	vertical   TEXT,
	level_tags JSONB
);

CREATE TABLE IF NOT EXISTS import_batches (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_file TEXT NOT NULL,
	total       INTEGER NOT NULL DEFAULT 0,
	unmapped    INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS assignments (
	batch_id       TEXT NOT NULL REFERENCES import_batches(id),
	requirement_id TEXT NOT NULL,
	function_id    TEXT NOT NULL,
	function_name  TEXT NOT NULL,
	domain_name    TEXT NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (batch_id, requirement_id, function_id)
);

CREATE INDEX IF NOT EXISTS idx_ref_functions_domain_id ON ref_functions(domain_id);
CREATE INDEX IF NOT EXISTS idx_assignments_batch_id ON assignments(batch_id);
CREATE INDEX IF NOT EXISTS idx_assignments_function_id ON assignments(function_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// ReplaceCatalog swaps the stored reference catalog in one transaction,
// bulk-loading functions with COPY.
func (s *PostgresStore) ReplaceCatalog(ctx context.Context, domains []model.ReferenceDomain, functions []model.ReferenceFunction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace catalog")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM ref_functions`); err != nil {
		return eris.Wrap(err, "postgres: clear functions")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ref_domains`); err != nil {
		return eris.Wrap(err, "postgres: clear domains")
	}

	domainRows := make([][]any, 0, len(domains))
	for _, d := range domains {
		domainRows = append(domainRows, []any{d.ID, d.Name})
	}
	if _, err := db.CopyFrom(ctx, tx, "ref_domains", []string{"id", "name"}, domainRows); err != nil {
		return eris.Wrap(err, "postgres: copy domains")
	}

	funcRows := make([][]any, 0, len(functions))
	for _, f := range functions {
		tagsJSON, err := json.Marshal(f.LevelTags)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal level tags")
		}
		funcRows = append(funcRows, []any{f.ID, f.DomainID, f.Name, f.Vertical, tagsJSON})
	}
	if _, err := db.CopyFrom(ctx, tx, "ref_functions", []string{"id", "domain_id", "name", "vertical", "level_tags"}, funcRows); err != nil {
		return eris.Wrap(err, "postgres: copy functions")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace catalog")
}

func (s *PostgresStore) ListDomains(ctx context.Context) ([]model.ReferenceDomain, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM ref_domains ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list domains")
	}
	defer rows.Close()

	var domains []model.ReferenceDomain
	for rows.Next() {
		var d model.ReferenceDomain
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan domain")
		}
		domains = append(domains, d)
	}
	return domains, eris.Wrap(rows.Err(), "postgres: list domains iterate")
}

func (s *PostgresStore) ListFunctions(ctx context.Context) ([]model.ReferenceFunction, error) {
	return s.listFunctions(ctx,
		`SELECT f.id, f.domain_id, d.name, f.name, f.vertical, f.level_tags
		 FROM ref_functions f JOIN ref_domains d ON d.id = f.domain_id
		 ORDER BY d.name, f.name`)
}

func (s *PostgresStore) ListFunctionsByDomain(ctx context.Context, domainID string) ([]model.ReferenceFunction, error) {
	return s.listFunctions(ctx,
		`SELECT f.id, f.domain_id, d.name, f.name, f.vertical, f.level_tags
		 FROM ref_functions f JOIN ref_domains d ON d.id = f.domain_id
		 WHERE f.domain_id = $1 ORDER BY f.name`,
		domainID)
}

func (s *PostgresStore) listFunctions(ctx context.Context, query string, args ...any) ([]model.ReferenceFunction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list functions")
	}
	defer rows.Close()

	var funcs []model.ReferenceFunction
	for rows.Next() {
		var f model.ReferenceFunction
		var vertical *string
		var tagsJSON []byte
		if err := rows.Scan(&f.ID, &f.DomainID, &f.DomainName, &f.Name, &vertical, &tagsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan function")
		}
		if vertical != nil {
			f.Vertical = *vertical
		}
		if len(tagsJSON) > 0 {
			if err := json.Unmarshal(tagsJSON, &f.LevelTags); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal level tags")
			}
		}
		funcs = append(funcs, f)
	}
	return funcs, eris.Wrap(rows.Err(), "postgres: list functions iterate")
}

func (s *PostgresStore) CreateImportBatch(ctx context.Context, sourceFile string, total, unmapped int) (*model.ImportBatch, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_batches (id, source_file, total, unmapped, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, sourceFile, total, unmapped, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert import batch")
	}

	return &model.ImportBatch{
		ID:         id,
		SourceFile: sourceFile,
		Total:      total,
		Unmapped:   unmapped,
		CreatedAt:  now,
	}, nil
}

// SaveAssignments upserts mapping rows for a batch via a temp-table COPY.
func (s *PostgresStore) SaveAssignments(ctx context.Context, batchID string, assignments []model.Assignment) (int64, error) {
	rows := make([][]any, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, []any{batchID, a.RequirementID, a.FunctionID, a.FunctionName, a.DomainName, a.Confidence})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "assignments",
		Columns:      []string{"batch_id", "requirement_id", "function_id", "function_name", "domain_name", "confidence"},
		ConflictKeys: []string{"batch_id", "requirement_id", "function_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: save assignments for batch %s", batchID)
	}
	return n, nil
}

func (s *PostgresStore) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error) {
	query := `SELECT requirement_id, function_id, function_name, domain_name, confidence FROM assignments WHERE true`
	args := []any{}
	argIdx := 1

	if filter.BatchID != "" {
		query += fmt.Sprintf(` AND batch_id = $%d`, argIdx)
		args = append(args, filter.BatchID)
		argIdx++
	}
	if filter.FunctionID != "" {
		query += fmt.Sprintf(` AND function_id = $%d`, argIdx)
		args = append(args, filter.FunctionID)
		argIdx++
	}
	query += ` ORDER BY requirement_id, function_id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assignments")
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.RequirementID, &a.FunctionID, &a.FunctionName, &a.DomainName, &a.Confidence); err != nil {
			return nil, eris.Wrap(err, "postgres: scan assignment")
		}
		assignments = append(assignments, a)
	}
	return assignments, eris.Wrap(rows.Err(), "postgres: list assignments iterate")
}

func (s *PostgresStore) ListImportBatches(ctx context.Context, limit int) ([]model.ImportBatch, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source_file, total, unmapped, created_at FROM import_batches
		 ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list import batches")
	}
	defer rows.Close()

	var batches []model.ImportBatch
	for rows.Next() {
		var b model.ImportBatch
		if err := rows.Scan(&b.ID, &b.SourceFile, &b.Total, &b.Unmapped, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import batch")
		}
		batches = append(batches, b)
	}
	return batches, eris.Wrap(rows.Err(), "postgres: list import batches iterate")
}
