package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/poubelles-propres/zones-cli/internal/db"
	"github.com/poubelles-propres/zones-cli/internal/model"
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

// psql builds queries with $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var runSelect = "SELECT " + strings.Join(runSelectColumns, ", ") + " FROM runs"

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_run":        runSelect + ` WHERE id = $1`,
	"latest_run":     runSelect + ` WHERE status = 'complete' ORDER BY created_at DESC, id LIMIT 1`,
	"count_communes": `SELECT COUNT(*) FROM communes`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

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

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sqlText := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sqlText); err != nil {
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

const postgresMigration = `
CREATE TABLE IF NOT EXISTS communes (
	code_commune               TEXT PRIMARY KEY,
	nom_commune                TEXT NOT NULL,
	latitude                   DOUBLE PRECISION NOT NULL,
	longitude                  DOUBLE PRECISION NOT NULL,
	population_totale          DOUBLE PRECISION NOT NULL,
	nb_menages                 DOUBLE PRECISION NOT NULL,
	nb_maisons                 DOUBLE PRECISION NOT NULL,
	pct_maisons                DOUBLE PRECISION NOT NULL,
	pct_residences_principales DOUBLE PRECISION NOT NULL,
	revenu_median              DOUBLE PRECISION NOT NULL,
	niveau_vie_median          DOUBLE PRECISION NOT NULL,
	taux_pauvrete              DOUBLE PRECISION NOT NULL,
	code_departement           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	params     JSONB NOT NULL,
	stats      JSONB,
	error      TEXT NOT NULL DEFAULT '',
	zone_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
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
	population_totale          DOUBLE PRECISION NOT NULL,
	nb_menages                 DOUBLE PRECISION NOT NULL,
	nb_maisons                 DOUBLE PRECISION NOT NULL,
	pct_maisons                DOUBLE PRECISION NOT NULL,
	pct_residences_principales DOUBLE PRECISION NOT NULL,
	revenu_median              DOUBLE PRECISION NOT NULL,
	niveau_vie_median          DOUBLE PRECISION NOT NULL,
	taux_pauvrete              DOUBLE PRECISION NOT NULL,
	score_housing              DOUBLE PRECISION NOT NULL,
	score_income               DOUBLE PRECISION NOT NULL,
	score_market_size          DOUBLE PRECISION NOT NULL,
	score_total                DOUBLE PRECISION NOT NULL,
	potential_clients          DOUBLE PRECISION NOT NULL,
	latitude                   DOUBLE PRECISION NOT NULL,
	longitude                  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, zone_id)
);

CREATE INDEX IF NOT EXISTS idx_communes_departement ON communes(code_departement);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_zones_run_rank ON zones(run_id, rank);
CREATE INDEX IF NOT EXISTS idx_zones_run_score ON zones(run_id, score_total DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ReplaceCommunes(ctx context.Context, communes []model.Commune) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin replace communes")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM communes`); err != nil {
		return 0, eris.Wrap(err, "postgres: clear communes")
	}

	n, err := db.CopyFrom(ctx, tx, "communes", communeColumns, communeRows(communes))
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit replace communes")
	}
	return n, nil
}

func (s *PostgresStore) LoadCommunes(ctx context.Context) ([]model.Commune, error) {
	query := "SELECT " + strings.Join(communeColumns, ", ") + " FROM communes ORDER BY code_commune"
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load communes")
	}
	defer rows.Close()

	var communes []model.Commune
	for rows.Next() {
		c, err := scanCommune(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan commune")
		}
		communes = append(communes, *c)
	}
	return communes, eris.Wrap(rows.Err(), "postgres: load communes iterate")
}

func (s *PostgresStore) CountCommunes(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM communes`).Scan(&count)
	return count, eris.Wrap(err, "postgres: count communes")
}

func (s *PostgresStore) CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal run params")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, params, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(model.RunStatusRunning), paramsJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats model.RunStats, zones []model.ScoredZone) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run stats")
	}

	// Upserting on (run_id, zone_id) keeps re-completion after a partial
	// failure idempotent.
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "zones",
		Columns:      zoneColumns,
		ConflictKeys: []string{"run_id", "zone_id"},
	}, zoneRows(runID, zones)); err != nil {
		return eris.Wrapf(err, "postgres: save zones for run %s", runID)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, zone_count = $3, error = '', updated_at = $4 WHERE id = $5`,
		string(model.RunStatusComplete), statsJSON, len(zones), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanRun(s.pool.QueryRow(ctx, runSelect+` WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) LatestRun(ctx context.Context) (*model.Run, error) {
	r, err := scanRun(s.pool.QueryRow(ctx,
		runSelect+` WHERE status = 'complete' ORDER BY created_at DESC, id LIMIT 1`,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest run")
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	q := psql.Select(runSelectColumns...).From("runs").OrderBy("created_at DESC")
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
		return nil, eris.Wrap(err, "postgres: build list runs query")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) ListZones(ctx context.Context, filter ZoneFilter) ([]model.ScoredZone, error) {
	query, args, err := buildZoneQueryWith(psql, filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list zones")
	}
	defer rows.Close()

	var zones []model.ScoredZone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan zone")
		}
		zones = append(zones, *z)
	}
	return zones, eris.Wrap(rows.Err(), "postgres: list zones iterate")
}

func (s *PostgresStore) GetZone(ctx context.Context, runID string, zoneID int) (*model.ScoredZone, error) {
	query := "SELECT " + strings.Join(zoneSelectColumns, ", ") + " FROM zones WHERE run_id = $1 AND zone_id = $2"
	z, err := scanZone(s.pool.QueryRow(ctx, query, runID, zoneID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get zone %d for run %s", zoneID, runID)
	}
	return z, nil
}
