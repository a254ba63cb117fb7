package album

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/fingerprint"
)

// ErrNotFound is returned for unknown album titles.
var ErrNotFound = errors.New("album not found")

const schema = `
CREATE TABLE IF NOT EXISTS albums (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	modified_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	album_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	path TEXT NOT NULL,
	fingerprint BLOB,
	PRIMARY KEY (album_id, position)
);
CREATE INDEX IF NOT EXISTS idx_entries_path ON entries(path);`

// Store persists albums in SQLite.
type Store struct {
	db *sql.DB
}

// Summary describes an album without loading its entries.
type Summary struct {
	Title       string
	Description string
	ModTime     time.Time
	Entries     int
}

// DefaultPath returns the per-user album database location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "albums.db"
	}
	return filepath.Join(dir, "fotokit", "albums.db")
}

// Open opens or creates the album database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	klog.V(1).Infof("opened album store %s", path)
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes a, replacing any album with the same title.
func (s *Store) Save(ctx context.Context, a *Album) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	a.ModTime = time.Now().UTC().Truncate(time.Second)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO albums (title, description, modified_at) VALUES (?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET description = excluded.description, modified_at = excluded.modified_at`,
		a.Title, a.Description, a.ModTime.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert album: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM albums WHERE title = ?`, a.Title).Scan(&id); err != nil {
		return fmt.Errorf("album id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE album_id = ?`, id); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (album_id, position, path, fingerprint) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, e := range a.Entries {
		var blob any
		if e.Fingerprint != nil {
			bs, err := e.Fingerprint.MarshalBinary()
			if err != nil {
				return fmt.Errorf("encode %s: %w", e.Path, err)
			}
			blob = bs
		}
		if _, err := stmt.ExecContext(ctx, id, i, e.Path, blob); err != nil {
			return fmt.Errorf("insert %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	klog.V(1).Infof("saved album %q with %d entries", a.Title, len(a.Entries))
	return nil
}

// Load reads the album called title. Entries whose stored fingerprint is
// missing or unreadable come back with a nil Fingerprint.
func (s *Store) Load(ctx context.Context, title string) (*Album, error) {
	var id int64
	var modified string
	a := &Album{Title: title}
	err := s.db.QueryRowContext(ctx, `SELECT id, description, modified_at FROM albums WHERE title = ?`, title).
		Scan(&id, &a.Description, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", title, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query album: %w", err)
	}
	a.ModTime, err = time.Parse(time.RFC3339, modified)
	if err != nil {
		klog.Warningf("album %q has unparseable modification time %q: %v", title, modified, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path, fingerprint FROM entries WHERE album_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		var blob []byte
		if err := rows.Scan(&path, &blob); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e := &Entry{Path: path}
		if len(blob) > 0 {
			g := &fingerprint.Grid{}
			if err := g.UnmarshalBinary(blob); err != nil {
				klog.Warningf("%s in %q: %v", path, title, err)
			} else {
				e.Fingerprint = g
			}
		}
		a.Entries = append(a.Entries, e)
	}
	return a, rows.Err()
}

// List returns a summary of every album, ordered by title.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.title, a.description, a.modified_at, COUNT(e.path)
		FROM albums a LEFT JOIN entries e ON e.album_id = a.id
		GROUP BY a.id ORDER BY a.title`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var modified string
		if err := rows.Scan(&sm.Title, &sm.Description, &modified, &sm.Entries); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		sm.ModTime, err = time.Parse(time.RFC3339, modified)
		if err != nil {
			klog.Warningf("album %q has unparseable modification time %q: %v", sm.Title, modified, err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Delete removes the album called title.
func (s *Store) Delete(ctx context.Context, title string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM albums WHERE title = ?`, title).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%q: %w", title, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query album: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE album_id = ?`, id); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	return tx.Commit()
}
