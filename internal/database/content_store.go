package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/rgoulding/trackline/internal/feed"
	"github.com/rgoulding/trackline/internal/models"
)

// ContentStore executes primary-store queries for the feed composition
// engine. The query layer here has the same hard limitation the engine is
// built around: text predicates may only reference the primary entity's
// native columns, never columns of the joined track. Specs that try are
// rejected with a MalformedQueryError instead of silently dropping the
// clause.
type ContentStore struct {
	db *DB
}

func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

var _ feed.QueryExecutor = (*ContentStore)(nil)
var _ feed.JoinLoader = (*ContentStore)(nil)

// Native column expressions per kind and text field name. The text
// predicate is evaluated as a per-row projection so that items matching
// only through their joined entity still come back in the page.
var textColumns = map[models.Kind]map[string]string{
	models.KindPost: {
		"body":        "p.body",
		"author_name": "u.display_name",
	},
	models.KindTrack: {
		"title":       "t.title",
		"description": "COALESCE(t.description, '')",
	},
	models.KindUser: {
		"bio":          "COALESCE(u.bio, '')",
		"display_name": "u.display_name",
		"handle":       "u.handle",
	},
}

// Execute runs the spec against the primary store, returning the page of
// items plus the total structural match count before pagination.
func (s *ContentStore) Execute(ctx context.Context, spec feed.PrimaryQuerySpec) ([]models.ContentItem, int, error) {
	if err := spec.Validate(); err != nil {
		return nil, 0, err
	}

	switch spec.Kind {
	case models.KindTrack:
		return s.queryTracks(ctx, spec)
	case models.KindUser:
		return s.queryUsers(ctx, spec)
	default:
		return s.queryPosts(ctx, spec)
	}
}

// matchedExpr builds the text marker projection: a disjunction of ILIKE
// checks over the spec's native text columns, or constant FALSE when the
// spec carries no usable column. Returns the expression and whether an
// argument placeholder was consumed.
func matchedExpr(spec feed.PrimaryQuerySpec, argPos int) (string, bool) {
	if spec.Text == "" {
		return "TRUE", false
	}

	cols := textColumns[spec.Kind]
	parts := make([]string, 0, len(spec.TextFields))
	for _, f := range spec.TextFields {
		if col, ok := cols[f]; ok {
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", col, argPos))
		}
	}
	if len(parts) == 0 {
		return "FALSE", false
	}
	return "(" + strings.Join(parts, " OR ") + ")", true
}

func (s *ContentStore) queryPosts(ctx context.Context, spec feed.PrimaryQuerySpec) ([]models.ContentItem, int, error) {
	whereParts := []string{"TRUE"}
	args := make([]interface{}, 0)
	argPos := 1

	if spec.AuthorID != "" {
		whereParts = append(whereParts, fmt.Sprintf("p.author_id = $%d", argPos))
		args = append(args, spec.AuthorID)
		argPos++
	}
	if !spec.From.IsZero() {
		whereParts = append(whereParts, fmt.Sprintf("p.created_at >= $%d", argPos))
		args = append(args, spec.From)
		argPos++
	}
	if !spec.To.IsZero() {
		whereParts = append(whereParts, fmt.Sprintf("p.created_at <= $%d", argPos))
		args = append(args, spec.To)
		argPos++
	}

	whereSQL := strings.Join(whereParts, " AND ")

	countQuery := "SELECT COUNT(*) FROM posts p JOIN users u ON u.id = p.author_id WHERE " + whereSQL
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	matched, consumes := matchedExpr(spec, argPos)
	if consumes {
		args = append(args, "%"+spec.Text+"%")
		argPos++
	}

	orderSQL := "ORDER BY p.created_at DESC, p.id ASC"
	if spec.Sort == models.SortPopular {
		// Equal metric values tie-break on creation time, then id, so the
		// order is stable across fetches.
		orderSQL = "ORDER BY p.like_count DESC, p.created_at DESC, p.id ASC"
	}

	query := fmt.Sprintf(`
		SELECT
			p.id, p.author_id, u.display_name, p.body, p.track_id,
			p.like_count, p.created_at,
			%s AS matched_native
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE %s
		%s
		LIMIT $%d OFFSET $%d`, matched, whereSQL, orderSQL, argPos, argPos+1)
	args = append(args, spec.Limit, spec.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	items := make([]models.ContentItem, 0)
	for rows.Next() {
		var item models.ContentItem
		var trackID sql.NullString

		if err := rows.Scan(
			&item.ID,
			&item.AuthorID,
			&item.AuthorName,
			&item.Body,
			&trackID,
			&item.LikeCount,
			&item.CreatedAt,
			&item.MatchedNative,
		); err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}

		item.Kind = models.KindPost
		if trackID.Valid {
			item.TrackID = trackID.String
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}

	return items, total, nil
}

func (s *ContentStore) queryTracks(ctx context.Context, spec feed.PrimaryQuerySpec) ([]models.ContentItem, int, error) {
	whereParts := []string{"TRUE"}
	args := make([]interface{}, 0)
	argPos := 1

	if spec.AuthorID != "" {
		whereParts = append(whereParts, fmt.Sprintf("t.author_id = $%d", argPos))
		args = append(args, spec.AuthorID)
		argPos++
	}
	if !spec.From.IsZero() {
		whereParts = append(whereParts, fmt.Sprintf("t.created_at >= $%d", argPos))
		args = append(args, spec.From)
		argPos++
	}
	if !spec.To.IsZero() {
		whereParts = append(whereParts, fmt.Sprintf("t.created_at <= $%d", argPos))
		args = append(args, spec.To)
		argPos++
	}

	whereSQL := strings.Join(whereParts, " AND ")

	countQuery := "SELECT COUNT(*) FROM tracks t JOIN users u ON u.id = t.author_id WHERE " + whereSQL
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tracks: %w", err)
	}

	matched, consumes := matchedExpr(spec, argPos)
	if consumes {
		args = append(args, "%"+spec.Text+"%")
		argPos++
	}

	orderSQL := "ORDER BY t.created_at DESC, t.id ASC"
	if spec.Sort == models.SortPopular {
		orderSQL = "ORDER BY (t.play_count + t.like_count) DESC, t.created_at DESC, t.id ASC"
	}

	query := fmt.Sprintf(`
		SELECT
			t.id, t.author_id, u.display_name, t.title, COALESCE(t.description, ''),
			t.play_count, t.like_count, t.created_at,
			%s AS matched_native
		FROM tracks t
		JOIN users u ON u.id = t.author_id
		WHERE %s
		%s
		LIMIT $%d OFFSET $%d`, matched, whereSQL, orderSQL, argPos, argPos+1)
	args = append(args, spec.Limit, spec.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	items := make([]models.ContentItem, 0)
	for rows.Next() {
		var item models.ContentItem
		var title, description string

		if err := rows.Scan(
			&item.ID,
			&item.AuthorID,
			&item.AuthorName,
			&title,
			&description,
			&item.PlayCount,
			&item.LikeCount,
			&item.CreatedAt,
			&item.MatchedNative,
		); err != nil {
			return nil, 0, fmt.Errorf("scan track: %w", err)
		}

		item.Kind = models.KindTrack
		item.Body = title
		if description != "" {
			item.Body = title + "\n" + description
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tracks: %w", err)
	}

	return items, total, nil
}

func (s *ContentStore) queryUsers(ctx context.Context, spec feed.PrimaryQuerySpec) ([]models.ContentItem, int, error) {
	whereParts := []string{"u.status = 'active'", "u.visibility = 'public'"}
	args := make([]interface{}, 0)
	argPos := 1

	if !spec.From.IsZero() {
		whereParts = append(whereParts, fmt.Sprintf("u.created_at >= $%d", argPos))
		args = append(args, spec.From)
		argPos++
	}
	if !spec.To.IsZero() {
		whereParts = append(whereParts, fmt.Sprintf("u.created_at <= $%d", argPos))
		args = append(args, spec.To)
		argPos++
	}

	whereSQL := strings.Join(whereParts, " AND ")

	countQuery := "SELECT COUNT(*) FROM users u WHERE " + whereSQL
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	matched, consumes := matchedExpr(spec, argPos)
	if consumes {
		args = append(args, "%"+spec.Text+"%")
		argPos++
	}

	orderSQL := "ORDER BY u.created_at DESC, u.id ASC"
	if spec.Sort == models.SortPopular {
		orderSQL = "ORDER BY u.follower_count DESC, u.created_at DESC, u.id ASC"
	}

	query := fmt.Sprintf(`
		SELECT
			u.id, u.display_name, COALESCE(u.bio, ''), u.follower_count, u.created_at,
			%s AS matched_native
		FROM users u
		WHERE %s
		%s
		LIMIT $%d OFFSET $%d`, matched, whereSQL, orderSQL, argPos, argPos+1)
	args = append(args, spec.Limit, spec.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	items := make([]models.ContentItem, 0)
	for rows.Next() {
		var item models.ContentItem

		if err := rows.Scan(
			&item.ID,
			&item.AuthorName,
			&item.Body,
			&item.LikeCount,
			&item.CreatedAt,
			&item.MatchedNative,
		); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}

		item.Kind = models.KindUser
		item.AuthorID = item.ID
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return items, total, nil
}

// LoadJoined resolves the linked track's title and description for a batch
// of post items with one query. Items without a track link, and items
// whose track no longer exists, are left untouched with HasJoined false.
func (s *ContentStore) LoadJoined(ctx context.Context, items []models.ContentItem) error {
	trackIDs := make([]string, 0, len(items))
	for _, item := range items {
		if item.Kind == models.KindPost && item.TrackID != "" {
			trackIDs = append(trackIDs, item.TrackID)
		}
	}
	if len(trackIDs) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(description, '')
		FROM tracks
		WHERE id = ANY($1)`, pq.Array(trackIDs))
	if err != nil {
		return fmt.Errorf("load joined tracks: %w", err)
	}
	defer rows.Close()

	type joined struct {
		title       string
		description string
	}
	byID := make(map[string]joined, len(trackIDs))
	for rows.Next() {
		var id string
		var j joined
		if err := rows.Scan(&id, &j.title, &j.description); err != nil {
			return fmt.Errorf("scan joined track: %w", err)
		}
		byID[id] = j
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate joined tracks: %w", err)
	}

	for i := range items {
		if j, ok := byID[items[i].TrackID]; ok && items[i].TrackID != "" {
			items[i].JoinedTitle = j.title
			items[i].JoinedDescription = j.description
			items[i].HasJoined = true
		}
	}

	return nil
}
