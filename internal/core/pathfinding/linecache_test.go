package pathfinding

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

// countingLedgerView counts TrustLinesOut calls so tests can assert the
// cache actually deduplicates lookups rather than just returning data.
type countingLedgerView struct {
	fakeLedgerView
	calls atomic.Int32
}

func (v *countingLedgerView) TrustLinesOut(ctx context.Context, acct Account) ([]TrustLine, error) {
	v.calls.Add(1)
	return v.fakeLedgerView.TrustLinesOut(ctx, acct)
}

func TestLineCache_FetchesOnceAndMemoizes(t *testing.T) {
	view := &countingLedgerView{fakeLedgerView: *newFakeLedgerView()}
	who := acct(1)
	view.lines[who] = []TrustLine{{Peer: acct(2), Currency: "USD"}}
	cache := NewLineCache()

	for i := 0; i < 5; i++ {
		lines, err := cache.LinesOut(context.Background(), view, who)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lines) != 1 {
			t.Fatalf("call %d: got %d lines, want 1", i, len(lines))
		}
	}

	if got := view.calls.Load(); got != 1 {
		t.Errorf("TrustLinesOut called %d times, want exactly 1", got)
	}
}

func TestLineCache_ConcurrentLookupsCollapseToOneFetch(t *testing.T) {
	view := &countingLedgerView{fakeLedgerView: *newFakeLedgerView()}
	who := acct(7)
	view.lines[who] = []TrustLine{{Peer: acct(8), Currency: "EUR"}}
	cache := NewLineCache()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := cache.LinesOut(context.Background(), view, who); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := view.calls.Load(); got != 1 {
		t.Errorf("TrustLinesOut called %d times under concurrent load, want exactly 1", got)
	}
}

func TestLineCache_DistinctAccountsFetchIndependently(t *testing.T) {
	view := &countingLedgerView{fakeLedgerView: *newFakeLedgerView()}
	a, b := acct(1), acct(2)
	view.lines[a] = []TrustLine{{Peer: acct(3), Currency: "USD"}}
	view.lines[b] = []TrustLine{{Peer: acct(4), Currency: "USD"}}
	cache := NewLineCache()

	if _, err := cache.LinesOut(context.Background(), view, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.LinesOut(context.Background(), view, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := view.calls.Load(); got != 2 {
		t.Errorf("expected one fetch per distinct account, got %d calls", got)
	}
}
