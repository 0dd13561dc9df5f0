package footprint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/banshee-data/grismview/internal/projection"
	"github.com/banshee-data/grismview/internal/timeutil"
)

// Store persists footprints in the footprints table.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewStore creates a new Store stamping records with the real clock.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for created/updated timestamps.
func (s *Store) SetClock(c timeutil.Clock) {
	s.clock = c
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, ex execer, f *Footprint, now int64) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAtNs == 0 {
		f.CreatedAtNs = now
	}
	f.UpdatedAtNs = now

	vertices, err := json.Marshal(f.Vertices)
	if err != nil {
		return fmt.Errorf("encode vertices: %w", err)
	}
	meta, err := encodeMeta(f.Meta)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO footprints (
			footprint_id, vertices_json, center_ra, center_dec, meta_json,
			created_at_ns, updated_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (footprint_id) DO UPDATE SET
			vertices_json = excluded.vertices_json,
			center_ra = excluded.center_ra,
			center_dec = excluded.center_dec,
			meta_json = excluded.meta_json,
			updated_at_ns = excluded.updated_at_ns
	`, f.ID, string(vertices), f.Center.RA, f.Center.Dec, meta, f.CreatedAtNs, f.UpdatedAtNs)
	if err != nil {
		return fmt.Errorf("insert footprint %s: %w", f.ID, err)
	}
	return nil
}

func encodeMeta(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}
	return string(b), nil
}

// Put inserts f, or replaces the geometry and meta of an existing
// footprint with the same id. An empty id is assigned a new UUID.
func (s *Store) Put(ctx context.Context, f *Footprint) error {
	return insert(ctx, s.db, f, s.clock.Now().UnixNano())
}

// ReplaceAll swaps the stored set for fps in one transaction. Footprints
// without an id are assigned one; the ids are written back into fps.
func (s *Store) ReplaceAll(ctx context.Context, fps []Footprint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM footprints`); err != nil {
		return fmt.Errorf("clear footprints: %w", err)
	}
	now := s.clock.Now().UnixNano()
	for i := range fps {
		if err := insert(ctx, tx, &fps[i], now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT footprint_id, vertices_json, center_ra, center_dec, meta_json,
	       created_at_ns, updated_at_ns
	FROM footprints`

type scanner interface {
	Scan(dest ...any) error
}

func scanFootprint(row scanner) (*Footprint, error) {
	var f Footprint
	var vertices, meta string
	var ra, dec sql.NullFloat64
	if err := row.Scan(&f.ID, &vertices, &ra, &dec, &meta, &f.CreatedAtNs, &f.UpdatedAtNs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(vertices), &f.Vertices); err != nil {
		return nil, fmt.Errorf("decode vertices of %s: %w", f.ID, err)
	}
	if err := json.Unmarshal([]byte(meta), &f.Meta); err != nil {
		return nil, fmt.Errorf("decode meta of %s: %w", f.ID, err)
	}
	if ra.Valid && dec.Valid {
		f.Center = projection.RaDec{RA: ra.Float64, Dec: dec.Float64}
	} else {
		f.Center = Centroid(f.Vertices)
	}
	return &f, nil
}

// Get retrieves a footprint by id.
func (s *Store) Get(ctx context.Context, id string) (*Footprint, error) {
	f, err := scanFootprint(s.db.QueryRowContext(ctx, selectColumns+` WHERE footprint_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get footprint: %w", err)
	}
	return f, nil
}

// List returns every footprint in insertion order.
func (s *Store) List(ctx context.Context) ([]Footprint, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at_ns, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list footprints: %w", err)
	}
	defer rows.Close()

	out := []Footprint{}
	for rows.Next() {
		f, err := scanFootprint(rows)
		if err != nil {
			return nil, fmt.Errorf("list footprints: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// Near returns the footprints whose center lies within radiusDeg of p.
func (s *Store) Near(ctx context.Context, p projection.RaDec, radiusDeg float64) ([]Footprint, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, f := range all {
		if Separation(f.Center, p) <= radiusDeg {
			out = append(out, f)
		}
	}
	return out, nil
}

// At returns the footprints whose polygon contains p.
func (s *Store) At(ctx context.Context, p projection.RaDec) ([]Footprint, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, f := range all {
		if f.Contains(p) {
			out = append(out, f)
		}
	}
	return out, nil
}

// PatchMeta merges patch into the footprint's meta. A nil value deletes the
// key. The updated footprint is returned.
func (s *Store) PatchMeta(ctx context.Context, id string, patch map[string]any) (*Footprint, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	f, err := scanFootprint(tx.QueryRowContext(ctx, selectColumns+` WHERE footprint_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get footprint: %w", err)
	}

	meta := maps.Clone(f.Meta)
	if meta == nil {
		meta = map[string]any{}
	}
	for k, v := range patch {
		if v == nil {
			delete(meta, k)
			continue
		}
		meta[k] = v
	}
	encoded, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}

	f.Meta = meta
	f.UpdatedAtNs = s.clock.Now().UnixNano()
	if _, err := tx.ExecContext(ctx,
		`UPDATE footprints SET meta_json = ?, updated_at_ns = ? WHERE footprint_id = ?`,
		encoded, f.UpdatedAtNs, id); err != nil {
		return nil, fmt.Errorf("update meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return f, nil
}

// Delete removes a footprint.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM footprints WHERE footprint_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete footprint: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
