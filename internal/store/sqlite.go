package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/poubelles-propres/zones-cli/internal/model"
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS communes (
	code_commune               TEXT PRIMARY KEY,
	nom_commune                TEXT NOT NULL,
	latitude                   REAL NOT NULL,
	longitude                  REAL NOT NULL,
	population_totale          REAL NOT NULL,
	nb_menages                 REAL NOT NULL,
	nb_maisons                 REAL NOT NULL,
	pct_maisons                REAL NOT NULL,
	pct_residences_principales REAL NOT NULL,
	revenu_median              REAL NOT NULL,
	niveau_vie_median          REAL NOT NULL,
	taux_pauvrete              REAL NOT NULL,
	code_departement           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	params     TEXT NOT NULL,
	stats      TEXT,
	error      TEXT NOT NULL DEFAULT '',
	zone_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS zones (
	run_id                     TEXT NOT NULL REFERENCES runs(id),
	zone_id                    INTEGER NOT NULL,
	rank                       INTEGER NOT NULL,
	nom_commune                TEXT NOT NULL,
	center_commune             TEXT NOT NULL,
	region                     TEXT NOT NULL,
	code_departement           TEXT NOT NULL,
	nb_communes                INTEGER NOT NULL,
	population_totale          REAL NOT NULL,
	nb_menages                 REAL NOT NULL,
	nb_maisons                 REAL NOT NULL,
	pct_maisons                REAL NOT NULL,
	pct_residences_principales REAL NOT NULL,
	revenu_median              REAL NOT NULL,
	niveau_vie_median          REAL NOT NULL,
	taux_pauvrete              REAL NOT NULL,
	score_housing              REAL NOT NULL,
	score_income               REAL NOT NULL,
	score_market_size          REAL NOT NULL,
	score_total                REAL NOT NULL,
	potential_clients          REAL NOT NULL,
	latitude                   REAL NOT NULL,
	longitude                  REAL NOT NULL,
	PRIMARY KEY (run_id, zone_id)
);

CREATE INDEX IF NOT EXISTS idx_communes_departement ON communes(code_departement);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_zones_run_rank ON zones(run_id, rank);
CREATE INDEX IF NOT EXISTS idx_zones_run_score ON zones(run_id, score_total);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceCommunes(ctx context.Context, communes []model.Commune) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace communes")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM communes`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear communes")
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO communes (%s) VALUES (%s)",
		strings.Join(communeColumns, ", "),
		placeholders(len(communeColumns)),
	)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare commune insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, c := range communes {
		if _, err := stmt.ExecContext(ctx, communeRow(c)...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert commune %s", c.Code)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace communes")
	}
	return int64(len(communes)), nil
}

func (s *SQLiteStore) LoadCommunes(ctx context.Context) ([]model.Commune, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM communes ORDER BY code_commune",
		strings.Join(communeColumns, ", "),
	)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load communes")
	}
	defer rows.Close() //nolint:errcheck

	var communes []model.Commune
	for rows.Next() {
		c, err := scanCommune(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan commune")
		}
		communes = append(communes, *c)
	}
	return communes, eris.Wrap(rows.Err(), "sqlite: load communes iterate")
}

func (s *SQLiteStore) CountCommunes(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM communes`).Scan(&count)
	return count, eris.Wrap(err, "sqlite: count communes")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal run params")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, params, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), string(paramsJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats model.RunStats, zones []model.ScoredZone) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run stats")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin complete run")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, zone_count = ?, error = '', updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(statsJSON), len(zones), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	if err := checkRowsAffected(res, "run", runID); err != nil {
		return err
	}

	// Re-completing after a partial failure must not duplicate zones.
	if _, err := tx.ExecContext(ctx, `DELETE FROM zones WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: clear zones for run %s", runID)
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO zones (%s) VALUES (%s)",
		strings.Join(zoneColumns, ", "),
		placeholders(len(zoneColumns)),
	)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare zone insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, z := range zones {
		if _, err := stmt.ExecContext(ctx, zoneRow(runID, z)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert zone %d for run %s", z.ZoneID, runID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit complete run")
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM runs WHERE id = ?",
		strings.Join(runSelectColumns, ", "),
	)
	r, err := scanRun(s.db.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("sqlite: run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*model.Run, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM runs WHERE status = ? ORDER BY created_at DESC, id LIMIT 1",
		strings.Join(runSelectColumns, ", "),
	)
	r, err := scanRun(s.db.QueryRowContext(ctx, query, string(model.RunStatusComplete)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest run")
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	q := sq.Select(runSelectColumns...).From("runs").OrderBy("created_at DESC")
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	q = q.Limit(uint64(limit))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list runs query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) ListZones(ctx context.Context, filter ZoneFilter) ([]model.ScoredZone, error) {
	query, args, err := buildZoneQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list zones")
	}
	defer rows.Close() //nolint:errcheck

	var zones []model.ScoredZone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan zone")
		}
		zones = append(zones, *z)
	}
	return zones, eris.Wrap(rows.Err(), "sqlite: list zones iterate")
}

func (s *SQLiteStore) GetZone(ctx context.Context, runID string, zoneID int) (*model.ScoredZone, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM zones WHERE run_id = ? AND zone_id = ?",
		strings.Join(zoneSelectColumns, ", "),
	)
	z, err := scanZone(s.db.QueryRowContext(ctx, query, runID, zoneID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get zone %d for run %s", zoneID, runID)
	}
	return z, nil
}

// buildZoneQuery assembles the filtered zone listing, shared by both
// backends via squirrel's placeholder formats.
func buildZoneQuery(filter ZoneFilter) (string, []any, error) {
	return buildZoneQueryWith(sq.StatementBuilder, filter)
}

func buildZoneQueryWith(b sq.StatementBuilderType, filter ZoneFilter) (string, []any, error) {
	if filter.RunID == "" {
		return "", nil, eris.New("store: zone filter requires a run id")
	}

	q := b.Select(zoneSelectColumns...).
		From("zones").
		Where(sq.Eq{"run_id": filter.RunID}).
		OrderBy("rank ASC")
	if filter.MinScore > 0 {
		q = q.Where(sq.GtOrEq{"score_total": filter.MinScore})
	}
	if filter.Department != "" {
		q = q.Where(sq.Eq{"code_departement": filter.Department})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build zone query")
	}
	return query, args, nil
}

// helpers

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
