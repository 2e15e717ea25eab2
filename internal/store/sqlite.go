package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/odaworks/delivery-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ref_domains (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ref_functions (
	id         TEXT PRIMARY KEY,
	domain_id  TEXT NOT NULL REFERENCES ref_domains(id),
	name       TEXT NOT NULL,
	vertical   TEXT,
	level_tags TEXT
);

CREATE TABLE IF NOT EXISTS import_batches (
	id          TEXT PRIMARY KEY,
	source_file TEXT NOT NULL,
	total       INTEGER NOT NULL DEFAULT 0,
	unmapped    INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS assignments (
	batch_id       TEXT NOT NULL REFERENCES import_batches(id),
	requirement_id TEXT NOT NULL,
	function_id    TEXT NOT NULL,
	function_name  TEXT NOT NULL,
	domain_name    TEXT NOT NULL,
	confidence     REAL NOT NULL,
	PRIMARY KEY (batch_id, requirement_id, function_id)
);

CREATE INDEX IF NOT EXISTS idx_ref_functions_domain_id ON ref_functions(domain_id);
CREATE INDEX IF NOT EXISTS idx_assignments_batch_id ON assignments(batch_id);
CREATE INDEX IF NOT EXISTS idx_assignments_function_id ON assignments(function_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceCatalog swaps the stored reference catalog for the given one in a
// single transaction.
func (s *SQLiteStore) ReplaceCatalog(ctx context.Context, domains []model.ReferenceDomain, functions []model.ReferenceFunction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace catalog")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM ref_functions`); err != nil {
		return eris.Wrap(err, "sqlite: clear functions")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ref_domains`); err != nil {
		return eris.Wrap(err, "sqlite: clear domains")
	}

	for _, d := range domains {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ref_domains (id, name) VALUES (?, ?)`,
			d.ID, d.Name,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert domain %s", d.ID)
		}
	}
	for _, f := range functions {
		tagsJSON, err := json.Marshal(f.LevelTags)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal level tags")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ref_functions (id, domain_id, name, vertical, level_tags) VALUES (?, ?, ?, ?, ?)`,
			f.ID, f.DomainID, f.Name, f.Vertical, string(tagsJSON),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert function %s", f.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace catalog")
}

func (s *SQLiteStore) ListDomains(ctx context.Context) ([]model.ReferenceDomain, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM ref_domains ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list domains")
	}
	defer rows.Close()

	var domains []model.ReferenceDomain
	for rows.Next() {
		var d model.ReferenceDomain
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan domain")
		}
		domains = append(domains, d)
	}
	return domains, eris.Wrap(rows.Err(), "sqlite: list domains iterate")
}

func (s *SQLiteStore) ListFunctions(ctx context.Context) ([]model.ReferenceFunction, error) {
	return s.listFunctions(ctx,
		`SELECT f.id, f.domain_id, d.name, f.name, f.vertical, f.level_tags
		 FROM ref_functions f JOIN ref_domains d ON d.id = f.domain_id
		 ORDER BY d.name, f.name`)
}

func (s *SQLiteStore) ListFunctionsByDomain(ctx context.Context, domainID string) ([]model.ReferenceFunction, error) {
	return s.listFunctions(ctx,
		`SELECT f.id, f.domain_id, d.name, f.name, f.vertical, f.level_tags
		 FROM ref_functions f JOIN ref_domains d ON d.id = f.domain_id
		 WHERE f.domain_id = ? ORDER BY f.name`,
		domainID)
}

func (s *SQLiteStore) listFunctions(ctx context.Context, query string, args ...any) ([]model.ReferenceFunction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list functions")
	}
	defer rows.Close()

	var funcs []model.ReferenceFunction
	for rows.Next() {
		var f model.ReferenceFunction
		var vertical sql.NullString
		var tagsJSON sql.NullString
		if err := rows.Scan(&f.ID, &f.DomainID, &f.DomainName, &f.Name, &vertical, &tagsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan function")
		}
		f.Vertical = vertical.String
		if tagsJSON.Valid && tagsJSON.String != "" {
			if err := json.Unmarshal([]byte(tagsJSON.String), &f.LevelTags); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal level tags")
			}
		}
		funcs = append(funcs, f)
	}
	return funcs, eris.Wrap(rows.Err(), "sqlite: list functions iterate")
}

func (s *SQLiteStore) CreateImportBatch(ctx context.Context, sourceFile string, total, unmapped int) (*model.ImportBatch, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_batches (id, source_file, total, unmapped, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, sourceFile, total, unmapped, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert import batch")
	}

	return &model.ImportBatch{
		ID:         id,
		SourceFile: sourceFile,
		Total:      total,
		Unmapped:   unmapped,
		CreatedAt:  now,
	}, nil
}

func (s *SQLiteStore) SaveAssignments(ctx context.Context, batchID string, assignments []model.Assignment) (int64, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save assignments")
	}
	defer tx.Rollback() //nolint:errcheck

	var saved int64
	for _, a := range assignments {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (batch_id, requirement_id, function_id, function_name, domain_name, confidence)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (batch_id, requirement_id, function_id) DO UPDATE SET
			   function_name = excluded.function_name,
			   domain_name = excluded.domain_name,
			   confidence = excluded.confidence`,
			batchID, a.RequirementID, a.FunctionID, a.FunctionName, a.DomainName, a.Confidence,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: save assignment %s/%s", a.RequirementID, a.FunctionID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		saved += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit save assignments")
	}
	return saved, nil
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error) {
	query := `SELECT requirement_id, function_id, function_name, domain_name, confidence FROM assignments WHERE 1=1`
	var args []any

	if filter.BatchID != "" {
		query += ` AND batch_id = ?`
		args = append(args, filter.BatchID)
	}
	if filter.FunctionID != "" {
		query += ` AND function_id = ?`
		args = append(args, filter.FunctionID)
	}
	query += ` ORDER BY requirement_id, function_id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assignments")
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.RequirementID, &a.FunctionID, &a.FunctionName, &a.DomainName, &a.Confidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assignment")
		}
		assignments = append(assignments, a)
	}
	return assignments, eris.Wrap(rows.Err(), "sqlite: list assignments iterate")
}

func (s *SQLiteStore) ListImportBatches(ctx context.Context, limit int) ([]model.ImportBatch, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_file, total, unmapped, created_at FROM import_batches
		 ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list import batches")
	}
	defer rows.Close()

	var batches []model.ImportBatch
	for rows.Next() {
		var b model.ImportBatch
		if err := rows.Scan(&b.ID, &b.SourceFile, &b.Total, &b.Unmapped, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan import batch")
		}
		batches = append(batches, b)
	}
	return batches, eris.Wrap(rows.Err(), "sqlite: list import batches iterate")
}
