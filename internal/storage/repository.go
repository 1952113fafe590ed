package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gwientjes/wall-cli/internal/wall"
)

// Repository is a local sqlite cache of the most recently seen feed
// window. It seeds the UI on startup before the first fetch completes;
// it is not an offline store.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS posts (
  id TEXT PRIMARY KEY,
  author TEXT,
  message TEXT NOT NULL,
  created_at TEXT NOT NULL,
  image TEXT,
  fetched_at TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable probes the database so a read-only cache path fails at
// startup instead of on the first save.
func (r *Repository) CheckWritable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS write_probe (id INTEGER)`); err != nil {
		return fmt.Errorf("write probe: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DROP TABLE IF EXISTS write_probe`); err != nil {
		return fmt.Errorf("drop probe: %w", err)
	}
	return nil
}

func (r *Repository) SavePosts(ctx context.Context, posts []wall.Post) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO posts (id, author, message, created_at, image, fetched_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  author=excluded.author,
  message=excluded.message,
  created_at=excluded.created_at,
  image=excluded.image,
  fetched_at=excluded.fetched_at
`)
	if err != nil {
		return fmt.Errorf("prepare save statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, post := range posts {
		_, err := stmt.ExecContext(
			ctx,
			post.ID,
			post.Author,
			post.Message,
			post.CreatedAt.UTC().Format(time.RFC3339Nano),
			post.Image,
			now,
		)
		if err != nil {
			return fmt.Errorf("save post %s: %w", post.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, limit int) ([]wall.Post, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, author, message, created_at, image
FROM posts
ORDER BY created_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]wall.Post, 0, limit)
	for rows.Next() {
		var post wall.Post
		var createdAt string
		if err := rows.Scan(
			&post.ID,
			&post.Author,
			&post.Message,
			&createdAt,
			&post.Image,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		post.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse post created_at %q: %w", createdAt, err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return posts, nil
}
