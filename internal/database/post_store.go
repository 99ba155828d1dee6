package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rgoulding/trackline/internal/models"
)

// PostStore persists posts in Postgres
type PostStore struct {
	db *DB
}

func NewPostStore(db *DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) Create(ctx context.Context, authorID string, params models.CreatePostParams) (*models.Post, error) {
	var trackID sql.NullString
	if params.TrackID != "" {
		trackID = sql.NullString{String: params.TrackID, Valid: true}
	}

	var post models.Post
	var storedTrack sql.NullString
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (author_id, body, track_id)
		VALUES ($1, $2, $3)
		RETURNING id, author_id, body, track_id, like_count, created_at, updated_at`,
		authorID, params.Body, trackID,
	).Scan(&post.ID, &post.AuthorID, &post.Body, &storedTrack, &post.LikeCount, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	if storedTrack.Valid {
		post.TrackID = storedTrack.String
	}

	return &post, nil
}

func (s *PostStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	var trackID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, author_id, body, track_id, like_count, created_at, updated_at
		FROM posts WHERE id = $1`, id,
	).Scan(&post.ID, &post.AuthorID, &post.Body, &trackID, &post.LikeCount, &post.CreatedAt, &post.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if trackID.Valid {
		post.TrackID = trackID.String
	}

	return &post, nil
}

func (s *PostStore) Update(ctx context.Context, id, authorID string, params models.UpdatePostParams) (*models.Post, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil || post.AuthorID != authorID {
		return nil, nil
	}

	if params.Body != nil {
		post.Body = *params.Body
	}
	if params.TrackID != nil {
		post.TrackID = *params.TrackID
	}

	var trackID sql.NullString
	if post.TrackID != "" {
		trackID = sql.NullString{String: post.TrackID, Valid: true}
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE posts SET body = $1, track_id = $2, updated_at = NOW()
		WHERE id = $3 AND author_id = $4
		RETURNING updated_at`,
		post.Body, trackID, id, authorID,
	).Scan(&post.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return post, nil
}

func (s *PostStore) Delete(ctx context.Context, id, authorID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (s *PostStore) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, body, track_id, like_count, created_at, updated_at
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`, authorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var post models.Post
		var trackID sql.NullString
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Body, &trackID, &post.LikeCount, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if trackID.Valid {
			post.TrackID = trackID.String
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}
