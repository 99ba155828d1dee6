package models

import "time"

// Track is an uploaded audio track. When a post links a track, the track's
// title and description are the joined-entity text fields of that post.
type Track struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DurationSec int       `json:"durationSec,omitempty"`
	Tags        []string  `json:"tags"`
	PlayCount   int       `json:"playCount"`
	LikeCount   int       `json:"likeCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateTrackParams holds input for creating a track. Tags are inferred
// server-side from the title and description, never taken from the client.
type CreateTrackParams struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DurationSec int      `json:"durationSec,omitempty"`
	Tags        []string `json:"-"`
}

// UpdateTrackParams holds input for updating a track. Nil fields are left
// unchanged. Tags are re-inferred server-side whenever the title or
// description changes.
type UpdateTrackParams struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"-"`
}

// ContentItem converts a track into its feed representation. A track's
// title and description are native columns for kind=track queries, so they
// map onto Body rather than the joined fields.
func (t Track) ContentItem(authorName string) ContentItem {
	return ContentItem{
		ID:         t.ID,
		Kind:       KindTrack,
		AuthorID:   t.AuthorID,
		AuthorName: authorName,
		Body:       t.Title + "\n" + t.Description,
		PlayCount:  t.PlayCount,
		LikeCount:  t.LikeCount,
		CreatedAt:  t.CreatedAt,
	}
}
