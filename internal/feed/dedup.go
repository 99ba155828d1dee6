package feed

import "github.com/rgoulding/trackline/internal/models"

// DedupIndex tracks the identities already admitted into a composition
// session so "load more" batches can be merged without repeats. Identity is
// (kind, id): equal ids of different kinds never collide. The index lives
// for one session and is reset on every fresh-search or scoped transition.
type DedupIndex struct {
	seen map[models.Identity]struct{}
}

// NewDedupIndex creates an empty deduplication index
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{seen: make(map[models.Identity]struct{})}
}

// Admit returns the subset of items not previously admitted, recording
// their identities. Between two Reset calls the concatenation of all
// returned subsets contains no duplicate identity, including duplicates
// within a single batch.
func (d *DedupIndex) Admit(items []models.ContentItem) []models.ContentItem {
	fresh := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		id := item.Identity()
		if _, dup := d.seen[id]; dup {
			continue
		}
		d.seen[id] = struct{}{}
		fresh = append(fresh, item)
	}
	return fresh
}

// Reset clears all admitted identities
func (d *DedupIndex) Reset() {
	d.seen = make(map[models.Identity]struct{})
}

// Len reports how many identities have been admitted since the last reset
func (d *DedupIndex) Len() int {
	return len(d.seen)
}
