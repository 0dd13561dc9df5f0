package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/grismview/internal/projection"
	"github.com/banshee-data/grismview/internal/timeutil"
)

// ErrBookmarkNotFound is returned for an unknown bookmark id.
var ErrBookmarkNotFound = errors.New("bookmark not found")

// Bookmark is a saved camera position, optionally tied to a footprint.
type Bookmark struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	View        projection.ViewState `json:"view"`
	FootprintID string               `json:"footprint_id,omitempty"`
	CreatedAtNs int64                `json:"created_at_ns"`
}

// BookmarkStore persists bookmarks in the view_bookmarks table.
type BookmarkStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewBookmarkStore creates a new BookmarkStore.
func NewBookmarkStore(db *sql.DB) *BookmarkStore {
	return &BookmarkStore{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for creation timestamps.
func (s *BookmarkStore) SetClock(c timeutil.Clock) {
	s.clock = c
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Save inserts b. If b.ID is empty, a new UUID is generated.
func (s *BookmarkStore) Save(ctx context.Context, b *Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAtNs == 0 {
		b.CreatedAtNs = s.clock.Now().UnixNano()
	}
	b.View = b.View.Normalize()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO view_bookmarks (
			bookmark_id, name, yaw_deg, pitch_deg, scale, footprint_id, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Name, b.View.YawDeg, b.View.PitchDeg, b.View.Scale, nullString(b.FootprintID), b.CreatedAtNs)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

const bookmarkColumns = `
	SELECT bookmark_id, name, yaw_deg, pitch_deg, scale, footprint_id, created_at_ns
	FROM view_bookmarks`

func scanBookmark(row interface{ Scan(...any) error }) (*Bookmark, error) {
	var b Bookmark
	var footprintID sql.NullString
	if err := row.Scan(&b.ID, &b.Name, &b.View.YawDeg, &b.View.PitchDeg, &b.View.Scale, &footprintID, &b.CreatedAtNs); err != nil {
		return nil, err
	}
	if footprintID.Valid {
		b.FootprintID = footprintID.String
	}
	return &b, nil
}

// Get retrieves a bookmark by id.
func (s *BookmarkStore) Get(ctx context.Context, id string) (*Bookmark, error) {
	b, err := scanBookmark(s.db.QueryRowContext(ctx, bookmarkColumns+` WHERE bookmark_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrBookmarkNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return b, nil
}

// List returns all bookmarks, newest first.
func (s *BookmarkStore) List(ctx context.Context) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, bookmarkColumns+` ORDER BY created_at_ns DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	out := []Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("list bookmarks: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Delete removes a bookmark.
func (s *BookmarkStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM view_bookmarks WHERE bookmark_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrBookmarkNotFound)
	}
	return nil
}

// Apply moves the session camera to the bookmark and selects its
// footprint, if any.
func (s *Session) Apply(b Bookmark) projection.ViewState {
	v := s.SetView(b.View)
	if b.FootprintID != "" {
		s.Select(b.FootprintID)
	}
	return v
}
