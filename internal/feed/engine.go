package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rgoulding/trackline/internal/cache"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/metrics"
	"github.com/rgoulding/trackline/internal/models"
)

// QueryExecutor runs a primary-store query. Execute returns the page of
// items plus the total matching count before pagination. A spec whose
// validation fails must come back as *MalformedQueryError; the executor
// never silently drops a clause.
type QueryExecutor interface {
	Execute(ctx context.Context, spec PrimaryQuerySpec) ([]models.ContentItem, int, error)
}

// JoinLoader resolves joined-entity text fields for a fetched batch,
// mutating the items in place. Partial results are fine: items whose
// joined entity cannot be resolved keep HasJoined false and are evaluated
// on native fields only.
type JoinLoader interface {
	LoadJoined(ctx context.Context, items []models.ContentItem) error
}

// Options tunes the composition engine
type Options struct {
	PageSize             int
	ScopeLinearThreshold int
	ScopeLatencyBudget   time.Duration
	CacheTTL             time.Duration
}

// Engine composes feeds: it owns the collaborators shared by all
// composition sessions. Per-view state (pagination, dedup, scope cache)
// lives in the Session.
type Engine struct {
	executor QueryExecutor
	joiner   JoinLoader
	cache    cache.Cache
	logger   *logging.Logger
	opts     Options
}

// New creates a composition engine. cache may be nil, which disables the
// unscoped-result restore path (scope clears then recompose from the
// store).
func New(executor QueryExecutor, joiner JoinLoader, c cache.Cache, logger *logging.Logger, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Engine{
		executor: executor,
		joiner:   joiner,
		cache:    c,
		logger:   logger,
		opts:     opts,
	}
}

// Session is one feed view's composition state. It lives from the first
// load of the view until the caller resets it. Effective writes are
// serialized: concurrent triggering actions each take a new generation and
// only the newest one's result is ever applied.
type Session struct {
	id     string
	engine *Engine

	mu         sync.Mutex
	paginator  *Paginator
	dedup      *DedupIndex
	scope      *ScopeOptimizer
	query      models.SearchQuery
	retryQuery *models.SearchQuery
	closed     bool
}

// NewSession creates a composition session with the given id
func (e *Engine) NewSession(id string) *Session {
	return &Session{
		id:        id,
		engine:    e,
		paginator: NewPaginator(e.opts.PageSize),
		dedup:     NewDedupIndex(),
		scope:     NewScopeOptimizer(e.opts.ScopeLinearThreshold, e.opts.ScopeLatencyBudget, e.logger),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Compose runs one composition cycle for the given query. loadMore asks
// for the next page of the current query; it is ignored when the query
// itself changed, because a search or filter mutation always resets to
// page one. The returned error is a *CompositionError for store failures,
// ErrStaleResult when a newer action superseded this one, and nil
// otherwise.
func (s *Session) Compose(ctx context.Context, q models.SearchQuery, loadMore bool) (*models.FeedResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}

	trigger := s.classify(q, loadMore)

	// Scope toggles restore from the cached unscoped result set when
	// possible, skipping the store entirely.
	if trigger == TriggerScopeChange {
		if res, restored, err := s.restoreFromCache(q); restored {
			s.mu.Unlock()
			return res, err
		}
	}

	gen, err := s.paginator.Begin(trigger)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if trigger != TriggerLoadMore {
		s.dedup.Reset()
	}
	s.query = q
	page := s.paginator.Page()
	s.mu.Unlock()

	return s.fetch(ctx, q, trigger, gen, page)
}

// Retry re-runs the last failed action with a fresh generation token.
// It is the only way out of the error state; the engine never retries on
// its own.
func (s *Session) Retry(ctx context.Context) (*models.FeedResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.retryQuery == nil {
		s.mu.Unlock()
		return nil, ErrNoRetryableAction
	}
	q := *s.retryQuery
	gen, err := s.paginator.Begin(TriggerRetry)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	page := s.paginator.Page()
	s.mu.Unlock()

	return s.fetch(ctx, q, TriggerRetry, gen, page)
}

// Reset destroys the session's pagination state and dedup index and drops
// its cached result sets. Composing on a reset session fails.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.dedup.Reset()
	s.scope.Invalidate()
	s.engine.dropUnscoped(s.id, s.query.FilterKey())
}

// State reports the session's pagination state
func (s *Session) State() State {
	return s.paginator.State()
}

// classify maps a query diff onto the triggering action. Called with s.mu
// held. A changed query always wins over loadMore: reset semantics take
// priority.
func (s *Session) classify(q models.SearchQuery, loadMore bool) Trigger {
	cur := s.query
	switch {
	case q.Text != cur.Text:
		return TriggerSearchChange
	case q.FilterKey() != cur.FilterKey():
		return TriggerFilterChange
	case q.CreatorScope != cur.CreatorScope:
		return TriggerScopeChange
	case loadMore:
		return TriggerLoadMore
	default:
		// Same query, no load-more: an explicit refresh.
		return TriggerSearchChange
	}
}

// restoreFromCache serves a scope toggle from the cached unscoped result
// set. Called with s.mu held. Returns restored=false when no usable cache
// entry exists and a normal fetch cycle should run.
func (s *Session) restoreFromCache(q models.SearchQuery) (*models.FeedResult, bool, error) {
	cached, ok := s.engine.lookupUnscoped(s.id, q.FilterKey())
	if !ok {
		return nil, false, nil
	}

	gen, err := s.paginator.Begin(TriggerScopeChange)
	if err != nil {
		return nil, true, err
	}
	s.dedup.Reset()
	s.query = q

	items := cached.Items
	total := cached.Total
	hasMore := cached.HasMore
	if q.CreatorScope != "" {
		// Creator toggles on the same cached entry share a batch key, so
		// the author grouping is built once per entry.
		batchKey := fmt.Sprintf("cached:%d:%s", cached.Rev, q.FilterKey())
		items = s.scope.ScopeToCreator(batchKey, items, q.CreatorScope, len(cached.Items))
		total = len(items)
		// The scoped view is served in full from the cached set; there is
		// no further page to load while the scope is active.
		hasMore = false
	}
	fresh := s.dedup.Admit(items)
	s.paginator.Succeed(gen, total, hasMore)
	s.retryQuery = nil

	return &models.FeedResult{
		Items:        fresh,
		Page:         1,
		HasMore:      hasMore,
		TotalKnown:   total,
		AppliedScope: q.CreatorScope,
	}, true, nil
}

// fetch runs the retrieval half of a compose cycle: primary query,
// malformed-query recovery, join enrichment, secondary predicate, then
// applies the result if its generation is still current.
func (s *Session) fetch(ctx context.Context, q models.SearchQuery, trigger Trigger, gen uint64, page int) (*models.FeedResult, error) {
	start := time.Now()
	pageSize := s.paginator.PageSize()

	spec := BuildPrimaryQuery(q.WithoutScope(), page, pageSize)
	items, total, err := s.engine.executor.Execute(ctx, spec)

	var malformed *MalformedQueryError
	if errors.As(err, &malformed) {
		// Caller defect: the spec referenced joined fields. Strip them and
		// let the secondary predicate pass cover the difference. Never
		// surfaced as a failure.
		s.engine.logger.Warn("Primary query referenced joined fields, stripping and retrying", logging.WithFields(map[string]interface{}{
			"session": s.id,
			"fields":  malformed.Fields,
		}))
		items, total, err = s.engine.executor.Execute(ctx, spec.WithoutJoinedFields())
	}
	if err != nil {
		metrics.ObserveCompose(trigger.String(), "error", time.Since(start))
		return nil, s.fail(q, gen, err)
	}

	if len(items) > 0 && s.engine.joiner != nil {
		if jerr := s.engine.joiner.LoadJoined(ctx, items); jerr != nil {
			// Partial join data is not a correctness violation; affected
			// items are evaluated on native fields only.
			s.engine.logger.Warn("Joined entity load incomplete", logging.WithFields(map[string]interface{}{
				"session": s.id,
				"error":   jerr.Error(),
			}))
		}
	}

	if q.Text != "" {
		items = ApplySecondaryPredicate(items, q.Text)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paginator.Current(gen) {
		metrics.StaleResultDiscarded()
		metrics.ObserveCompose(trigger.String(), "stale", time.Since(start))
		return nil, ErrStaleResult
	}

	scoped := items
	if q.CreatorScope != "" {
		// The generation token identifies this fetch's batch: a scoped
		// search change or load-more never answers from the grouping of
		// an earlier batch.
		scoped = s.scope.ScopeToCreator(fmt.Sprintf("live:%d", gen), items, q.CreatorScope, total)
	}
	fresh := s.dedup.Admit(scoped)

	hasMore := page*pageSize < total
	if !s.paginator.Succeed(gen, total, hasMore) {
		metrics.StaleResultDiscarded()
		metrics.ObserveCompose(trigger.String(), "stale", time.Since(start))
		return nil, ErrStaleResult
	}
	s.retryQuery = nil

	if q.CreatorScope == "" {
		s.engine.storeUnscoped(s.id, q.FilterKey(), trigger == TriggerLoadMore, items, total, hasMore)
		s.scope.Invalidate()
	}

	metrics.ObserveCompose(trigger.String(), "ok", time.Since(start))
	return &models.FeedResult{
		Items:        fresh,
		Page:         page,
		HasMore:      hasMore,
		TotalKnown:   total,
		AppliedScope: q.CreatorScope,
	}, nil
}

// fail records the failed action for retry and surfaces a composition
// error, unless the failure itself was already superseded.
func (s *Session) fail(q models.SearchQuery, gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paginator.Fail(gen) {
		metrics.StaleResultDiscarded()
		return ErrStaleResult
	}
	s.retryQuery = &q
	s.engine.logger.Error("Feed composition failed", logging.WithFields(map[string]interface{}{
		"session": s.id,
		"error":   err.Error(),
	}))
	return &CompositionError{Err: &RetrievalError{Err: err}}
}

// cachedFeed is the unscoped composed result set kept for scope-toggle
// restore. It is JSON-encodable so the Redis cache backend can hold it.
// Rev changes every time the entry is written, so scope filtering can
// tell a replaced entry from the one it grouped.
type cachedFeed struct {
	Items   []models.ContentItem `json:"items"`
	Total   int                  `json:"total"`
	HasMore bool                 `json:"hasMore"`
	Rev     int64                `json:"rev"`
}

func (e *Engine) unscopedKey(sessionID, filterKey string) string {
	h := fnv.New64a()
	h.Write([]byte(filterKey))
	return fmt.Sprintf("feed:unscoped:%s:%x", sessionID, h.Sum64())
}

// storeUnscoped records the unscoped composed set for the session. Fresh
// composes replace the entry; load-more appends the new page to it.
func (e *Engine) storeUnscoped(sessionID, filterKey string, appendPage bool, items []models.ContentItem, total int, hasMore bool) {
	if e.cache == nil {
		return
	}

	entry := cachedFeed{Items: items, Total: total, HasMore: hasMore, Rev: time.Now().UnixNano()}
	if appendPage {
		if prev, ok := e.lookupUnscoped(sessionID, filterKey); ok {
			entry.Items = append(prev.Items, items...)
		}
	}
	e.cache.SetWithTTL(e.unscopedKey(sessionID, filterKey), entry, e.opts.CacheTTL)
}

func (e *Engine) lookupUnscoped(sessionID, filterKey string) (cachedFeed, bool) {
	if e.cache == nil {
		return cachedFeed{}, false
	}

	raw, ok := e.cache.Get(e.unscopedKey(sessionID, filterKey))
	if !ok || raw == nil {
		return cachedFeed{}, false
	}

	if entry, ok := raw.(cachedFeed); ok {
		return entry, true
	}

	// The Redis backend hands back generic JSON; remarshal into the
	// concrete type.
	data, err := json.Marshal(raw)
	if err != nil {
		return cachedFeed{}, false
	}
	var entry cachedFeed
	if err := json.Unmarshal(data, &entry); err != nil {
		return cachedFeed{}, false
	}
	if len(entry.Items) == 0 {
		return cachedFeed{}, false
	}
	return entry, true
}

func (e *Engine) dropUnscoped(sessionID, filterKey string) {
	if e.cache == nil {
		return
	}
	e.cache.Delete(e.unscopedKey(sessionID, filterKey))
}
