package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/rgoulding/trackline/internal/models"
	"github.com/rgoulding/trackline/internal/testutil"
)

func authored(id, authorID string) models.ContentItem {
	return models.ContentItem{ID: id, Kind: models.KindPost, AuthorID: authorID}
}

func TestScopeToCreator_PreservesOrder(t *testing.T) {
	o := NewScopeOptimizer(0, 0, testutil.NullLogger())

	items := []models.ContentItem{
		authored("1", "alice"),
		authored("2", "bob"),
		authored("3", "alice"),
		authored("4", "carol"),
		authored("5", "alice"),
	}

	scoped := o.ScopeToCreator("b1", items, "alice", len(items))
	if len(scoped) != 3 {
		t.Fatalf("expected 3 items, got %d", len(scoped))
	}
	for i, want := range []string{"1", "3", "5"} {
		if scoped[i].ID != want {
			t.Errorf("position %d: expected %q, got %q", i, want, scoped[i].ID)
		}
	}
}

func TestScopeToCreator_EmptyCreatorReturnsAll(t *testing.T) {
	o := NewScopeOptimizer(0, 0, testutil.NullLogger())
	items := []models.ContentItem{authored("1", "alice"), authored("2", "bob")}

	scoped := o.ScopeToCreator("b1", items, "", len(items))
	if len(scoped) != 2 {
		t.Errorf("expected all items back for empty creator, got %d", len(scoped))
	}
}

func TestScopeToCreator_StrategiesAgree(t *testing.T) {
	const n = 5000
	items := make([]models.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		author := fmt.Sprintf("author-%d", i%7)
		items = append(items, authored(fmt.Sprintf("%d", i), author))
	}

	// Threshold above n forces the linear scan, below forces grouping.
	linear := NewScopeOptimizer(n+1, time.Second, testutil.NullLogger())
	grouped := NewScopeOptimizer(1, time.Second, testutil.NullLogger())

	a := linear.ScopeToCreator("b1", items, "author-3", n)
	b := grouped.ScopeToCreator("b1", items, "author-3", n)

	if len(a) != len(b) {
		t.Fatalf("strategies disagree on count: linear=%d grouped=%d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("strategies disagree at %d: %q vs %q", i, a[i].ID, b[i].ID)
		}
	}
	for _, it := range a {
		if it.AuthorID != "author-3" {
			t.Fatalf("unexpected author %q in scoped set", it.AuthorID)
		}
	}
}

func TestScopeToCreator_GroupingReusedAcrossCreators(t *testing.T) {
	o := NewScopeOptimizer(1, time.Second, testutil.NullLogger())

	items := []models.ContentItem{
		authored("1", "alice"),
		authored("2", "bob"),
	}

	first := o.ScopeToCreator("b1", items, "alice", 1000)
	if len(first) != 1 || first[0].ID != "1" {
		t.Fatalf("unexpected first scope result: %v", first)
	}

	// Toggling to another creator answers from the same grouping; passing an
	// empty slice proves the cached buckets are used.
	second := o.ScopeToCreator("b1", nil, "bob", 1000)
	if len(second) != 1 || second[0].ID != "2" {
		t.Errorf("expected grouped lookup to serve bob from cache, got %v", second)
	}

	o.Invalidate()
	third := o.ScopeToCreator("b1", nil, "bob", 1000)
	if len(third) != 0 {
		t.Errorf("expected empty result after invalidation, got %v", third)
	}
}

func TestScopeToCreator_NewBatchKeyRebuildsGrouping(t *testing.T) {
	o := NewScopeOptimizer(1, time.Second, testutil.NullLogger())

	first := o.ScopeToCreator("b1", []models.ContentItem{authored("1", "alice")}, "alice", 1000)
	if len(first) != 1 || first[0].ID != "1" {
		t.Fatalf("unexpected first scope result: %v", first)
	}

	// A different key means a different batch: the old buckets must not
	// answer, even for a creator they contain.
	second := o.ScopeToCreator("b2", []models.ContentItem{authored("2", "alice")}, "alice", 1000)
	if len(second) != 1 || second[0].ID != "2" {
		t.Errorf("expected grouping rebuilt for the new batch, got %v", second)
	}
}

func TestScopeToCreator_ScopedSubsetAfterDedupStaysConsistent(t *testing.T) {
	o := NewScopeOptimizer(0, 0, testutil.NullLogger())
	d := NewDedupIndex()

	items := []models.ContentItem{
		authored("1", "alice"),
		authored("2", "alice"),
		authored("1", "alice"),
	}

	scoped := o.ScopeToCreator("b1", items, "alice", len(items))
	fresh := d.Admit(scoped)

	if len(fresh) != 2 {
		t.Errorf("expected scope then dedup to yield 2 items, got %d", len(fresh))
	}
}
