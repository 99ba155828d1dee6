package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rgoulding/trackline/internal/models"
)

// PlaylistStore persists playlists and their track entries in Postgres
type PlaylistStore struct {
	db *DB
}

func NewPlaylistStore(db *DB) *PlaylistStore {
	return &PlaylistStore{db: db}
}

func (s *PlaylistStore) Create(ctx context.Context, ownerID string, params models.CreatePlaylistParams) (*models.Playlist, error) {
	var pl models.Playlist
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO playlists (owner_id, title, description, public)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING id, owner_id, title, description, public, created_at, updated_at`,
		ownerID, params.Title, params.Description, params.Public,
	).Scan(&pl.ID, &pl.OwnerID, &pl.Title, &description, &pl.Public, &pl.CreatedAt, &pl.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert playlist: %w", err)
	}
	if description.Valid {
		pl.Description = description.String
	}

	return &pl, nil
}

func (s *PlaylistStore) GetByID(ctx context.Context, id string) (*models.Playlist, error) {
	var pl models.Playlist
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.owner_id, p.title, p.description, p.public, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = p.id)
		FROM playlists p WHERE p.id = $1`, id,
	).Scan(&pl.ID, &pl.OwnerID, &pl.Title, &description, &pl.Public, &pl.CreatedAt, &pl.UpdatedAt, &pl.TrackCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	if description.Valid {
		pl.Description = description.String
	}

	return &pl, nil
}

func (s *PlaylistStore) Update(ctx context.Context, id, ownerID string, params models.UpdatePlaylistParams) (*models.Playlist, error) {
	pl, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pl == nil || pl.OwnerID != ownerID {
		return nil, nil
	}

	if params.Title != nil {
		pl.Title = *params.Title
	}
	if params.Description != nil {
		pl.Description = *params.Description
	}
	if params.Public != nil {
		pl.Public = *params.Public
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE playlists SET title = $1, description = NULLIF($2, ''), public = $3, updated_at = NOW()
		WHERE id = $4 AND owner_id = $5
		RETURNING updated_at`,
		pl.Title, pl.Description, pl.Public, id, ownerID,
	).Scan(&pl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update playlist: %w", err)
	}

	return pl, nil
}

func (s *PlaylistStore) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete playlist: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// AddTrack appends a track at the end of the playlist. Adding a track that
// is already present is a no-op.
func (s *PlaylistStore) AddTrack(ctx context.Context, playlistID, trackID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playlist_tracks (playlist_id, track_id, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1
		FROM playlist_tracks WHERE playlist_id = $1
		ON CONFLICT (playlist_id, track_id) DO NOTHING`,
		playlistID, trackID)
	if err != nil {
		return fmt.Errorf("add playlist track: %w", err)
	}
	return nil
}

func (s *PlaylistStore) RemoveTrack(ctx context.Context, playlistID, trackID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM playlist_tracks WHERE playlist_id = $1 AND track_id = $2`,
		playlistID, trackID)
	if err != nil {
		return false, fmt.Errorf("remove playlist track: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (s *PlaylistStore) ListTracks(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT playlist_id, track_id, position, added_at
		FROM playlist_tracks
		WHERE playlist_id = $1
		ORDER BY position ASC`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("list playlist tracks: %w", err)
	}
	defer rows.Close()

	entries := make([]models.PlaylistEntry, 0)
	for rows.Next() {
		var e models.PlaylistEntry
		if err := rows.Scan(&e.PlaylistID, &e.TrackID, &e.Position, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan playlist track: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist tracks: %w", err)
	}

	return entries, nil
}

func (s *PlaylistStore) ListByOwner(ctx context.Context, ownerID string, includePrivate bool) ([]models.Playlist, error) {
	query := `
		SELECT p.id, p.owner_id, p.title, p.description, p.public, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = p.id)
		FROM playlists p
		WHERE p.owner_id = $1`
	if !includePrivate {
		query += ` AND p.public = true`
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]models.Playlist, 0)
	for rows.Next() {
		var pl models.Playlist
		var description sql.NullString
		if err := rows.Scan(&pl.ID, &pl.OwnerID, &pl.Title, &description, &pl.Public, &pl.CreatedAt, &pl.UpdatedAt, &pl.TrackCount); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		if description.Valid {
			pl.Description = description.String
		}
		playlists = append(playlists, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	return playlists, nil
}
