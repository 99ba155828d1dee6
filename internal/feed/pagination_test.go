package feed

import (
	"errors"
	"testing"
)

func TestPaginator_SearchChangeResetsToPageOne(t *testing.T) {
	p := NewPaginator(20)

	gen, err := p.Begin(TriggerLoadMore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Succeed(gen, 100, true)

	gen, err = p.Begin(TriggerLoadMore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Succeed(gen, 100, true)

	if p.Page() != 3 {
		t.Fatalf("expected page 3 after two load-mores, got %d", p.Page())
	}

	if _, err := p.Begin(TriggerSearchChange); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Page() != 1 {
		t.Errorf("expected page reset to 1 on search change, got %d", p.Page())
	}
	if p.Mode() != ModeFreshSearch {
		t.Errorf("expected fresh-search mode, got %q", p.Mode())
	}
	if _, known := p.TotalKnown(); known {
		t.Errorf("expected total unknown after search change")
	}
}

func TestPaginator_ScopeChangeUsesScopedMode(t *testing.T) {
	p := NewPaginator(20)

	gen, _ := p.Begin(TriggerLoadMore)
	p.Succeed(gen, 50, true)

	if _, err := p.Begin(TriggerScopeChange); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Page() != 1 {
		t.Errorf("expected page 1 after scope change, got %d", p.Page())
	}
	if p.Mode() != ModeScoped {
		t.Errorf("expected scoped mode, got %q", p.Mode())
	}
}

func TestPaginator_GenerationIncrementsEveryBegin(t *testing.T) {
	p := NewPaginator(20)

	gen1, _ := p.Begin(TriggerSearchChange)
	p.Succeed(gen1, 10, false)
	gen2, _ := p.Begin(TriggerSearchChange)

	if gen2 <= gen1 {
		t.Errorf("expected generation to increase, got %d then %d", gen1, gen2)
	}
}

func TestPaginator_StaleResultsDiscarded(t *testing.T) {
	p := NewPaginator(20)

	stale, _ := p.Begin(TriggerSearchChange)
	current, _ := p.Begin(TriggerSearchChange)

	if p.Succeed(stale, 99, true) {
		t.Error("expected stale success to be discarded")
	}
	if p.State() != StateFetching {
		t.Errorf("expected state untouched by stale result, got %v", p.State())
	}
	if p.Fail(stale) {
		t.Error("expected stale failure to be discarded")
	}

	if !p.Succeed(current, 10, false) {
		t.Error("expected current result to apply")
	}
	if p.State() != StateReady {
		t.Errorf("expected ready state, got %v", p.State())
	}
	if total, known := p.TotalKnown(); !known || total != 10 {
		t.Errorf("expected known total 10, got %d (known=%v)", total, known)
	}
}

func TestPaginator_LoadMoreRejectedInErrorState(t *testing.T) {
	p := NewPaginator(20)

	gen, _ := p.Begin(TriggerSearchChange)
	p.Fail(gen)

	if p.State() != StateError {
		t.Fatalf("expected error state, got %v", p.State())
	}
	if _, err := p.Begin(TriggerLoadMore); !errors.Is(err, ErrNoRetryableAction) {
		t.Errorf("expected ErrNoRetryableAction, got %v", err)
	}
}

func TestPaginator_RetryOnlyFromErrorState(t *testing.T) {
	p := NewPaginator(20)

	if _, err := p.Begin(TriggerRetry); !errors.Is(err, ErrNoRetryableAction) {
		t.Fatalf("expected retry rejected while idle, got %v", err)
	}

	gen, _ := p.Begin(TriggerSearchChange)
	p.Fail(gen)

	gen, err := p.Begin(TriggerRetry)
	if err != nil {
		t.Fatalf("expected retry allowed from error state, got %v", err)
	}
	if p.Page() != 1 {
		t.Errorf("expected retry to keep the failed page, got %d", p.Page())
	}
	if !p.Succeed(gen, 5, false) {
		t.Error("expected retry result to apply")
	}
}

func TestPaginator_FreshSearchAllowedFromErrorState(t *testing.T) {
	p := NewPaginator(20)

	gen, _ := p.Begin(TriggerSearchChange)
	p.Fail(gen)

	if _, err := p.Begin(TriggerSearchChange); err != nil {
		t.Errorf("expected a new search to escape the error state, got %v", err)
	}
	if p.Page() != 1 {
		t.Errorf("expected page 1, got %d", p.Page())
	}
}

func TestStateAndTriggerStrings(t *testing.T) {
	if StateIdle.String() != "idle" || StateError.String() != "error" {
		t.Error("unexpected state strings")
	}
	if TriggerLoadMore.String() != "load-more" || TriggerRetry.String() != "retry" {
		t.Error("unexpected trigger strings")
	}
}
