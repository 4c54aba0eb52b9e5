// Package post implements media posts: the upload flow, the feed and deletion.
package post

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapfeed/service/internal/media"
)

// Post is an uploaded media item owned by a user.
type Post struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Caption   string     `json:"caption"`
	URL       string     `json:"url"`
	FileType  media.Kind `json:"file_type" swaggertype:"string" enums:"image,video"`
	FileName  string     `json:"file_name"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store is the persistence contract of the post service.
type Store interface {
	Create(ctx context.Context, p *Post) error
	ListByUser(ctx context.Context, userID string) ([]Post, error)
	DeleteOwned(ctx context.Context, id, userID string) (*Post, error)
}

var _ Store = (*Repository)(nil)

// Repository handles post persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new post Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts p in its own transaction and fills in CreatedAt.
func (r *Repository) Create(ctx context.Context, p *Post) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx,
		`INSERT INTO posts (id, user_id, caption, url, file_type, file_name)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		 RETURNING created_at`,
		p.ID, p.UserID, p.Caption, p.URL, string(p.FileType), p.FileName,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit post: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

// ListByUser returns the user's posts, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Post, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, COALESCE(caption, ''), url, file_type, file_name, created_at
		 FROM posts
		 WHERE user_id = $1
		 ORDER BY created_at DESC, seq DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Caption, &p.URL, &p.FileType, &p.FileName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// DeleteOwned removes the post only when it belongs to userID and returns the
// deleted row. A missing post and a foreign post both yield ErrNotFound.
func (r *Repository) DeleteOwned(ctx context.Context, id, userID string) (*Post, error) {
	p := &Post{}
	err := r.db.QueryRow(ctx,
		`DELETE FROM posts
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, COALESCE(caption, ''), url, file_type, file_name, created_at`,
		id, userID,
	).Scan(&p.ID, &p.UserID, &p.Caption, &p.URL, &p.FileType, &p.FileName, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}
	return p, nil
}
