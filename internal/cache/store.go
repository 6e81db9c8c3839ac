// Package cache manages the SQLite database that holds the durable local
// copy of the feed, keyed by post id.
//
// Only this package may open or query the database. All other packages
// receive a [*Store] and call its methods.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/njoerd114/feedrelay/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    id          INTEGER PRIMARY KEY,
    title       TEXT    NOT NULL,
    description TEXT    NOT NULL,
    image_url   TEXT    NOT NULL DEFAULT '',
    likes       TEXT    NOT NULL DEFAULT '[]',
    user_id     INTEGER NOT NULL,
    user_name   TEXT    NOT NULL,
    user_image  TEXT    NOT NULL DEFAULT ''
);
`

// Store is the SQLite-backed post cache.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default path for the cache database:
// ~/.local/share/feedrelay/cache.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "feedrelay", "cache.db"), nil
}

// Open opens (or creates) the SQLite database at path, applies the schema,
// and configures WAL mode for better concurrent read performance.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	// Single writer to avoid SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the schema DDL idempotently (CREATE IF NOT EXISTS).
func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// UpsertBatch inserts or replaces the given posts by id in a single
// transaction. Replace-on-conflict and idempotent: repeating the call with
// the same posts leaves the cache unchanged.
func (s *Store) UpsertBatch(ctx context.Context, batch []model.Post) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT OR REPLACE INTO posts
		    (id, title, description, image_url, likes, user_id, user_name, user_image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range batch {
		likes, err := encodeLikes(p.Likes)
		if err != nil {
			return fmt.Errorf("encoding likes for post %d: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Title, p.Description, p.ImageURL,
			likes, p.UserID, p.UserName, p.UserImage,
		); err != nil {
			return fmt.Errorf("upserting post %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// GetAll returns every cached post ordered by id ascending.
func (s *Store) GetAll(ctx context.Context) ([]model.Post, error) {
	const q = `
		SELECT id, title, description, image_url, likes, user_id, user_name, user_image
		FROM posts ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying cached posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetByID returns the cached post with the given id, or (nil, nil) if no
// such post exists.
func (s *Store) GetByID(ctx context.Context, postID int) (*model.Post, error) {
	const q = `
		SELECT id, title, description, image_url, likes, user_id, user_name, user_image
		FROM posts WHERE id = ?`
	row := s.db.QueryRowContext(ctx, q, postID)
	return scanPost(row)
}

// UpdateLikes replaces the liker set of a single post. A no-op when the id
// is absent; callers check existence first.
func (s *Store) UpdateLikes(ctx context.Context, postID int, likes []int) error {
	encoded, err := encodeLikes(likes)
	if err != nil {
		return fmt.Errorf("encoding likes for post %d: %w", postID, err)
	}
	const q = `UPDATE posts SET likes = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q, encoded, postID); err != nil {
		return fmt.Errorf("updating likes for post %d: %w", postID, err)
	}
	return nil
}

// Clear removes every cached post. Irreversible; used for explicit cache
// resets.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("clearing post cache: %w", err)
	}
	return nil
}

// IsEmpty reports whether the posts table has no rows.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking if cache is empty: %w", err)
	}
	return count == 0, nil
}

// --- helpers -----------------------------------------------------------------

// scanner matches both *sql.Row and *sql.Rows so scanPost can be reused.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*model.Post, error) {
	var p model.Post
	var likes string

	err := s.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.ImageURL,
		&likes,
		&p.UserID,
		&p.UserName,
		&p.UserImage,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post row: %w", err)
	}

	p.Likes, err = decodeLikes(likes)
	if err != nil {
		return nil, fmt.Errorf("decoding likes for post %d: %w", p.ID, err)
	}
	return &p, nil
}

// encodeLikes serialises the liker-id list as a JSON array for storage in a
// single text column.
func encodeLikes(likes []int) (string, error) {
	if likes == nil {
		likes = []int{}
	}
	b, err := json.Marshal(likes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeLikes(encoded string) ([]int, error) {
	if encoded == "" {
		return []int{}, nil
	}
	var likes []int
	if err := json.Unmarshal([]byte(encoded), &likes); err != nil {
		return nil, err
	}
	if likes == nil {
		likes = []int{}
	}
	return likes, nil
}
