package models

import "time"

// Post is a feed post authored by a user, optionally linking a track.
// Posts are the primary entity of the feed: their own columns are queryable
// directly, while the linked track's title/description are only reachable
// through the join.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	TrackID   string    `json:"trackId,omitempty"`
	LikeCount int       `json:"likeCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreatePostParams holds input for creating a post
type CreatePostParams struct {
	Body    string `json:"body"`
	TrackID string `json:"trackId,omitempty"`
}

// UpdatePostParams holds input for updating a post. Nil fields are left
// unchanged.
type UpdatePostParams struct {
	Body    *string `json:"body,omitempty"`
	TrackID *string `json:"trackId,omitempty"`
}

// ContentItem converts a post into its feed representation
func (p Post) ContentItem(authorName string) ContentItem {
	return ContentItem{
		ID:         p.ID,
		Kind:       KindPost,
		AuthorID:   p.AuthorID,
		AuthorName: authorName,
		Body:       p.Body,
		TrackID:    p.TrackID,
		LikeCount:  p.LikeCount,
		CreatedAt:  p.CreatedAt,
	}
}
