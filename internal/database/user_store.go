package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rgoulding/trackline/internal/models"
)

// UserStore persists users and follow relationships in Postgres
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, handle, display_name, bio, avatar_url, visibility, status,
	follower_count, following_count, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var bio, avatarURL sql.NullString
	err := row.Scan(&u.ID, &u.Handle, &u.DisplayName, &bio, &avatarURL, &u.Visibility,
		&u.Status, &u.Followers, &u.Following, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if bio.Valid {
		u.Bio = bio.String
	}
	if avatarURL.Valid {
		u.AvatarURL = avatarURL.String
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, handle, displayName string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (handle, display_name)
		VALUES ($1, $2)
		RETURNING `+userColumns,
		models.NormalizeHandle(handle), displayName)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE handle = $1`,
		models.NormalizeHandle(handle))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by handle: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id string, params models.UpdateProfileParams) (*models.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	if params.DisplayName != nil {
		u.DisplayName = *params.DisplayName
	}
	if params.Bio != nil {
		u.Bio = *params.Bio
	}
	if params.AvatarURL != nil {
		u.AvatarURL = *params.AvatarURL
	}
	if params.Visibility != nil {
		u.Visibility = *params.Visibility
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE users
		SET display_name = $1, bio = NULLIF($2, ''), avatar_url = NULLIF($3, ''),
		    visibility = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`,
		u.DisplayName, u.Bio, u.AvatarURL, u.Visibility, id,
	).Scan(&u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return u, nil
}

// Follow records followerID following followedID and bumps both counters.
// Returns false if the relationship already existed.
func (s *UserStore) Follow(ctx context.Context, followerID, followedID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin follow: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO follows (follower_id, followed_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("insert follow: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET following_count = following_count + 1 WHERE id = $1`, followerID); err != nil {
		return false, fmt.Errorf("bump following count: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET follower_count = follower_count + 1 WHERE id = $1`, followedID); err != nil {
		return false, fmt.Errorf("bump follower count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit follow: %w", err)
	}
	return true, nil
}

// Unfollow removes the relationship and decrements both counters. Returns
// false if there was nothing to remove.
func (s *UserStore) Unfollow(ctx context.Context, followerID, followedID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin unfollow: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET following_count = GREATEST(following_count - 1, 0) WHERE id = $1`, followerID); err != nil {
		return false, fmt.Errorf("drop following count: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET follower_count = GREATEST(follower_count - 1, 0) WHERE id = $1`, followedID); err != nil {
		return false, fmt.Errorf("drop follower count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit unfollow: %w", err)
	}
	return true, nil
}

func (s *UserStore) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`,
		followerID, followedID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

// ListFollowers returns active users following userID, newest follow first
func (s *UserStore) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]models.User, error) {
	return s.listFollowEdge(ctx, `
		SELECT `+followJoinColumns+`
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followed_id = $1 AND u.status = 'active'
		ORDER BY f.created_at DESC, u.id ASC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
}

// ListFollowing returns active users that userID follows, newest follow first
func (s *UserStore) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]models.User, error) {
	return s.listFollowEdge(ctx, `
		SELECT `+followJoinColumns+`
		FROM follows f
		JOIN users u ON u.id = f.followed_id
		WHERE f.follower_id = $1 AND u.status = 'active'
		ORDER BY f.created_at DESC, u.id ASC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
}

const followJoinColumns = `u.id, u.handle, u.display_name, u.bio, u.avatar_url, u.visibility, u.status,
	u.follower_count, u.following_count, u.created_at, u.updated_at`

func (s *UserStore) listFollowEdge(ctx context.Context, query, userID string, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follows: %w", err)
	}

	return users, nil
}
