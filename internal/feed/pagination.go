package feed

import (
	"fmt"
	"sync"
)

// State is the lifecycle state of a composition session's pagination
type State int

const (
	StateIdle State = iota
	StateFetching
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Mode records what kind of transition produced the current page
type Mode string

const (
	ModeFreshSearch Mode = "fresh-search"
	ModePaging      Mode = "paging"
	ModeScoped      Mode = "scoped"
)

// Trigger is a user- or caller-initiated action that starts a fetch
type Trigger int

const (
	TriggerSearchChange Trigger = iota
	TriggerFilterChange
	TriggerScopeChange
	TriggerLoadMore
	TriggerRetry
)

func (t Trigger) String() string {
	switch t {
	case TriggerSearchChange:
		return "search-change"
	case TriggerFilterChange:
		return "filter-change"
	case TriggerScopeChange:
		return "scope-change"
	case TriggerLoadMore:
		return "load-more"
	case TriggerRetry:
		return "retry"
	}
	return fmt.Sprintf("trigger(%d)", int(t))
}

// Paginator owns the current page, page size, total, has-more flag and the
// generation token. Every entry into Fetching increments the generation;
// a resolving fetch is applied only if its token still matches, which is
// the whole cancellation story for superseded in-flight requests.
type Paginator struct {
	mu         sync.Mutex
	state      State
	mode       Mode
	page       int
	pageSize   int
	total      int
	totalKnown bool
	hasMore    bool
	generation uint64
}

// NewPaginator creates an idle paginator with the given fixed page size
func NewPaginator(pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Paginator{state: StateIdle, page: 1, pageSize: pageSize}
}

// Begin starts a fetch for the given trigger and returns the generation
// token the eventual result must present. Search and filter changes reset
// to page 1 in fresh-search mode; a scope change resets to page 1 in
// scoped mode; load-more advances the page; retry repeats the failed
// action unchanged. Load-more is rejected while in the error state: the
// engine never advances past a failure without an explicit retry.
func (p *Paginator) Begin(trigger Trigger) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch trigger {
	case TriggerSearchChange, TriggerFilterChange:
		p.page = 1
		p.mode = ModeFreshSearch
		p.total = 0
		p.totalKnown = false
	case TriggerScopeChange:
		p.page = 1
		p.mode = ModeScoped
		p.total = 0
		p.totalKnown = false
	case TriggerLoadMore:
		if p.state == StateError {
			return 0, ErrNoRetryableAction
		}
		p.page++
		p.mode = ModePaging
	case TriggerRetry:
		if p.state != StateError {
			return 0, ErrNoRetryableAction
		}
	}

	p.generation++
	p.state = StateFetching
	return p.generation, nil
}

// Succeed applies a successful fetch result. It returns false, leaving all
// state untouched, when the token no longer matches the current
// generation: the result was superseded and must be discarded.
func (p *Paginator) Succeed(gen uint64, total int, hasMore bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		return false
	}
	p.state = StateReady
	p.total = total
	p.totalKnown = true
	p.hasMore = hasMore
	return true
}

// Fail moves the session into the error state unless the failing fetch was
// already superseded. The current page counter is kept so an explicit
// retry repeats exactly the failed fetch.
func (p *Paginator) Fail(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		return false
	}
	p.state = StateError
	return true
}

// Current reports whether the token still matches the live generation
func (p *Paginator) Current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.generation
}

func (p *Paginator) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Paginator) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *Paginator) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

func (p *Paginator) PageSize() int {
	return p.pageSize
}

// TotalKnown returns the matching total reported by the store, and whether
// any page has resolved yet for the current search.
func (p *Paginator) TotalKnown() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total, p.totalKnown
}

func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}
