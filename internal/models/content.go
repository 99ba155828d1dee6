package models

import (
	"strings"
	"time"
)

// Kind identifies the content type of a feed item
type Kind string

const (
	KindPost  Kind = "post"
	KindTrack Kind = "track"
	KindUser  Kind = "user"
)

// ValidKind reports whether k names a queryable content kind
func ValidKind(k Kind) bool {
	switch k {
	case KindPost, KindTrack, KindUser:
		return true
	}
	return false
}

// SortKey selects the feed ordering
type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortPopular SortKey = "popular"
)

// ContentItem is one entry of a composed feed. Identity is (Kind, ID); two
// items of different kinds never collide even with equal ids. Instances are
// transient: fetched per page and discarded once returned to the caller.
type ContentItem struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
	LikeCount  int       `json:"likeCount"`
	PlayCount  int       `json:"playCount,omitempty"`

	// Joined track fields, resolved after the primary query for posts that
	// reference a track. HasJoined stays false when the post has no linked
	// track or the loader could not resolve it; that is not an error.
	TrackID           string `json:"trackId,omitempty"`
	JoinedTitle       string `json:"joinedTitle,omitempty"`
	JoinedDescription string `json:"joinedDescription,omitempty"`
	HasJoined         bool   `json:"-"`

	// MatchedNative records whether the item's own columns matched the text
	// predicate of the primary query. The store computes it as a projection
	// so that joined-only matches still come back in the page and can be
	// admitted by the secondary predicate pass.
	MatchedNative bool `json:"-"`
}

// Identity is the deduplication key of a content item
type Identity struct {
	Kind Kind
	ID   string
}

// Identity returns the (kind, id) pair identifying this item
func (c ContentItem) Identity() Identity {
	return Identity{Kind: c.Kind, ID: c.ID}
}

// SearchQuery is the full search/filter state of one feed interaction.
// It is a value type: rebuilt on every interaction, never mutated in place.
type SearchQuery struct {
	Text         string  `json:"text"`
	Kind         Kind    `json:"kind"`
	FromDate     string  `json:"fromDate"`
	ToDate       string  `json:"toDate"`
	Sort         SortKey `json:"sort"`
	CreatorScope string  `json:"creatorScope"`
}

// WithoutScope returns the query with the creator scope cleared and all
// other filter state preserved.
func (q SearchQuery) WithoutScope() SearchQuery {
	q.CreatorScope = ""
	return q
}

// FilterKey is a stable string over everything except the creator scope.
// Two queries with equal filter keys describe the same unscoped search, so
// toggling the scope between them must not reset cached unscoped results.
func (q SearchQuery) FilterKey() string {
	return strings.Join([]string{
		q.Text, string(q.Kind), q.FromDate, q.ToDate, string(q.Sort),
	}, "\x1f")
}

// FeedResult is one composed, deduplicated page handed back to the caller.
// The engine does not retain ownership after return.
type FeedResult struct {
	Items        []ContentItem `json:"items"`
	Page         int           `json:"page"`
	HasMore      bool          `json:"hasMore"`
	TotalKnown   int           `json:"totalKnown"`
	AppliedScope string        `json:"appliedScope,omitempty"`
}

// ParseDateFilter parses a date filter value used by the API.
// Supported formats:
// - YYYY-MM-DD
// - RFC 3339 timestamps
func ParseDateFilter(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}

	return time.Time{}, false
}
