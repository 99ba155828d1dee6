package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/rgoulding/trackline/internal/models"
)

// TrackStore persists tracks in Postgres
type TrackStore struct {
	db *DB
}

func NewTrackStore(db *DB) *TrackStore {
	return &TrackStore{db: db}
}

func (s *TrackStore) Create(ctx context.Context, authorID string, params models.CreateTrackParams) (*models.Track, error) {
	var track models.Track
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tracks (author_id, title, description, duration_sec, tags)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING id, author_id, title, description, duration_sec, tags, play_count, like_count, created_at, updated_at`,
		authorID, params.Title, params.Description, params.DurationSec, pq.Array(params.Tags),
	).Scan(&track.ID, &track.AuthorID, &track.Title, &description, &track.DurationSec,
		pq.Array(&track.Tags), &track.PlayCount, &track.LikeCount, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert track: %w", err)
	}
	if description.Valid {
		track.Description = description.String
	}

	return &track, nil
}

func (s *TrackStore) GetByID(ctx context.Context, id string) (*models.Track, error) {
	var track models.Track
	var description sql.NullString
	var duration sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, author_id, title, description, duration_sec, tags, play_count, like_count, created_at, updated_at
		FROM tracks WHERE id = $1`, id,
	).Scan(&track.ID, &track.AuthorID, &track.Title, &description, &duration,
		pq.Array(&track.Tags), &track.PlayCount, &track.LikeCount, &track.CreatedAt, &track.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	if description.Valid {
		track.Description = description.String
	}
	if duration.Valid {
		track.DurationSec = int(duration.Int64)
	}

	return &track, nil
}

func (s *TrackStore) Update(ctx context.Context, id, authorID string, params models.UpdateTrackParams) (*models.Track, error) {
	track, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if track == nil || track.AuthorID != authorID {
		return nil, nil
	}

	if params.Title != nil {
		track.Title = *params.Title
	}
	if params.Description != nil {
		track.Description = *params.Description
	}
	if params.Tags != nil {
		track.Tags = params.Tags
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE tracks SET title = $1, description = NULLIF($2, ''), tags = $3, updated_at = NOW()
		WHERE id = $4 AND author_id = $5
		RETURNING updated_at`,
		track.Title, track.Description, pq.Array(track.Tags), id, authorID,
	).Scan(&track.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update track: %w", err)
	}

	return track, nil
}

func (s *TrackStore) Delete(ctx context.Context, id, authorID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return false, fmt.Errorf("delete track: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// RecordPlay bumps the play counter
func (s *TrackStore) RecordPlay(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tracks SET play_count = play_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("record play: %w", err)
	}
	return nil
}

func (s *TrackStore) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, title, description, duration_sec, tags, play_count, like_count, created_at, updated_at
		FROM tracks
		WHERE author_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`, authorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]models.Track, 0)
	for rows.Next() {
		var track models.Track
		var description sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(&track.ID, &track.AuthorID, &track.Title, &description, &duration,
			pq.Array(&track.Tags), &track.PlayCount, &track.LikeCount, &track.CreatedAt, &track.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if description.Valid {
			track.Description = description.String
		}
		if duration.Valid {
			track.DurationSec = int(duration.Int64)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}

	return tracks, nil
}
