// Package store keeps a SQLite registry of EER runs so their counters can
// be listed and combined later.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jamesainslie/go-eer"
	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/det"
	"github.com/jamesainslie/go-eer/internal/results"
	"github.com/jamesainslie/go-eer/score"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound indicates an unknown run ID.
var ErrNotFound = errors.New("store: run not found")

// Store is a run registry backed by one SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the registry at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record is one registered run.
type Record struct {
	RunID      string
	CreatedAt  time.Time
	Mode       results.Mode
	EER        float64
	Threshold  float64
	Cut        float64
	Index      int
	Margin     float64
	Resolution int
	Minval     float64
	Maxval     float64
	Negative   bool
	Utterances int
	Scores     score.Range
	UnitInput  float64
	UnitCal    float64
	ConfigJSON json.RawMessage
	Counter    []byte
}

// Insert registers run and returns its new ID. cfg, when non-nil, is
// stored as JSON alongside.
func (s *Store) Insert(ctx context.Context, run *results.Run, cfg any) (string, error) {
	r := run.Result
	blob, err := r.Counter.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("encode counter: %w", err)
	}

	var config any
	if cfg != nil {
		data, err := json.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("encode config: %w", err)
		}
		config = string(data)
	}

	var minscore, maxscore any
	if !r.Scores.Empty() {
		minscore, maxscore = r.Scores.Min, r.Scores.Max
	}

	id := uuid.New().String()
	minval, maxval := r.Counter.Bounds()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO eer_runs (
			run_id, created_at, mode, eer, threshold, cut, bucket, margin,
			resolution, minval, maxval, negative_class, utterances,
			minscore, maxscore, unit_input, unit_cal, config_json, counter
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UnixNano(), string(run.Mode), r.EER, r.Threshold, r.Cut, r.Index, r.Margin,
		r.Counter.Resolution(), minval, maxval, r.Negative, r.Utterances,
		minscore, maxscore, run.UnitInput, run.UnitCal, config, blob,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

const selectColumns = `
	SELECT run_id, created_at, mode, eer, threshold, cut, bucket, margin,
	       resolution, minval, maxval, negative_class, utterances,
	       minscore, maxscore, unit_input, unit_cal, config_json, counter
	FROM eer_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec                Record
		created            int64
		mode               string
		minscore, maxscore sql.NullFloat64
		config             sql.NullString
	)
	err := row.Scan(
		&rec.RunID, &created, &mode, &rec.EER, &rec.Threshold, &rec.Cut, &rec.Index, &rec.Margin,
		&rec.Resolution, &rec.Minval, &rec.Maxval, &rec.Negative, &rec.Utterances,
		&minscore, &maxscore, &rec.UnitInput, &rec.UnitCal, &config, &rec.Counter,
	)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(0, created)
	rec.Mode = results.Mode(mode)
	rec.Scores = score.NewRange()
	if minscore.Valid && maxscore.Valid {
		rec.Scores = score.Range{Min: minscore.Float64, Max: maxscore.Float64}
	}
	if config.Valid {
		rec.ConfigJSON = json.RawMessage(config.String)
	}
	return &rec, nil
}

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+` WHERE run_id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return rec, nil
}

// List returns up to limit runs, newest first. A limit of 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	query := selectColumns + ` ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes the run with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM eer_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Run rebuilds the stored run so it can be combined with others.
func (s *Store) Run(ctx context.Context, id string, opts ...counter.Option) (*results.Run, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Run(opts...)
}

// Run decodes the stored counter into a result.
func (rec *Record) Run(opts ...counter.Option) (*results.Run, error) {
	c, err := counter.Decode(rec.Counter, opts...)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", rec.RunID, err)
	}
	curve, err := det.FromCounter(c)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", rec.RunID, err)
	}
	if rec.Index < 0 || rec.Index >= curve.Len() {
		return nil, fmt.Errorf("run %s: bucket %d outside %d-bucket curve", rec.RunID, rec.Index, curve.Len())
	}
	return &results.Run{
		Info: results.Info{
			Mode:      rec.Mode,
			UnitInput: rec.UnitInput,
			UnitCal:   rec.UnitCal,
		},
		Result: &eer.Result{
			EER:        rec.EER,
			Threshold:  rec.Threshold,
			Normalized: float64(rec.Index) / float64(c.Resolution()),
			Cut:        rec.Cut,
			Index:      rec.Index,
			Margin:     rec.Margin,
			FPR:        curve.FPR[rec.Index],
			FNR:        curve.FNR[rec.Index],
			Negative:   rec.Negative,
			Utterances: rec.Utterances,
			Scores:     rec.Scores,
			Curve:      curve,
			Counter:    c,
		},
	}, nil
}
