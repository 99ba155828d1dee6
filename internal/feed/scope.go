package feed

import (
	"time"

	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/metrics"
	"github.com/rgoulding/trackline/internal/models"
)

const (
	// DefaultScopeLinearThreshold is the batch size above which the
	// optimizer switches from a straight scan to the grouped strategy.
	DefaultScopeLinearThreshold = 500

	// DefaultScopeLatencyBudget is how long scope filtering may take
	// before a diagnostic is emitted. Exceeding it never fails the
	// request.
	DefaultScopeLatencyBudget = 100 * time.Millisecond
)

// ScopeOptimizer filters an already-composed batch down to one creator's
// items, choosing a strategy from the dataset size hint.
type ScopeOptimizer struct {
	linearThreshold int
	latencyBudget   time.Duration
	logger          *logging.Logger

	// grouped survives between calls so repeated scoping of the same
	// large batch (toggling between creators) reuses the grouping.
	// groupedKey records which batch it was built from; a call with a
	// different key rebuilds rather than answering from a superseded
	// batch.
	groupedKey string
	grouped    map[string][]models.ContentItem
}

// NewScopeOptimizer creates an optimizer with the given tuning. Zero
// values select the defaults.
func NewScopeOptimizer(linearThreshold int, latencyBudget time.Duration, logger *logging.Logger) *ScopeOptimizer {
	if linearThreshold <= 0 {
		linearThreshold = DefaultScopeLinearThreshold
	}
	if latencyBudget <= 0 {
		latencyBudget = DefaultScopeLatencyBudget
	}
	return &ScopeOptimizer{
		linearThreshold: linearThreshold,
		latencyBudget:   latencyBudget,
		logger:          logger,
	}
}

// ScopeToCreator returns the items authored by creatorID, preserving order.
// batchKey identifies the batch the items came from: the grouping built
// for one key is reused only for calls carrying the same key. sizeHint is
// the known size of the full result set the batch was drawn from; when it
// is small a linear scan wins, otherwise the batch is grouped by author
// once and the creator's bucket is returned. Scoping runs before dedup
// admission so excluded items never consume a dedup slot.
func (o *ScopeOptimizer) ScopeToCreator(batchKey string, items []models.ContentItem, creatorID string, sizeHint int) []models.ContentItem {
	if creatorID == "" {
		return items
	}

	start := time.Now()
	var scoped []models.ContentItem
	strategy := "linear"
	if max(sizeHint, len(items)) <= o.linearThreshold {
		scoped = o.linearScan(items, creatorID)
	} else {
		strategy = "grouped"
		scoped = o.groupedLookup(batchKey, items, creatorID)
	}

	elapsed := time.Since(start)
	metrics.ObserveScopeFilter(strategy, elapsed)
	if elapsed > o.latencyBudget && o.logger != nil {
		o.logger.Warn("Creator scope filtering exceeded latency budget", logging.WithFields(map[string]interface{}{
			"creator_id": creatorID,
			"batch_size": len(items),
			"size_hint":  sizeHint,
			"strategy":   strategy,
			"elapsed_ms": elapsed.Milliseconds(),
			"budget_ms":  o.latencyBudget.Milliseconds(),
		}))
	}

	return scoped
}

// Invalidate drops the cached author grouping. The engine calls it when
// the underlying result set changes.
func (o *ScopeOptimizer) Invalidate() {
	o.grouped = nil
	o.groupedKey = ""
}

func (o *ScopeOptimizer) linearScan(items []models.ContentItem, creatorID string) []models.ContentItem {
	scoped := make([]models.ContentItem, 0)
	for _, item := range items {
		if item.AuthorID == creatorID {
			scoped = append(scoped, item)
		}
	}
	return scoped
}

// groupedLookup buckets the batch by author in one pass and answers from
// the bucket, yielding periodically so a huge batch cannot stall the
// scheduler. Subsequent creators on the same batch are bucket lookups; a
// different batch key means the items are a new batch and the buckets are
// rebuilt.
func (o *ScopeOptimizer) groupedLookup(batchKey string, items []models.ContentItem, creatorID string) []models.ContentItem {
	if o.grouped == nil || o.groupedKey != batchKey {
		o.grouped = make(map[string][]models.ContentItem)
		o.groupedKey = batchKey
		for i, item := range items {
			o.grouped[item.AuthorID] = append(o.grouped[item.AuthorID], item)
			if (i+1)%batchYieldSize == 0 {
				yield()
			}
		}
	}

	bucket := o.grouped[creatorID]
	scoped := make([]models.ContentItem, len(bucket))
	copy(scoped, bucket)
	return scoped
}
