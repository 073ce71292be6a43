package pathfinding

import (
	"errors"
	"testing"

	"github.com/ledgerflow/pathd/internal/core/tx/payment"
	"github.com/ledgerflow/pathd/internal/core/tx/sle"
)

func TestPathfinder_FindPaths_InvalidSource(t *testing.T) {
	view := newFakeLedgerView()
	view.exists[acct(2)] = true // only the destination exists

	req := PathRequest{SrcAccount: acct(1), DstAccount: acct(2), DstAmount: xrpAmount(100)}
	pf := NewPathfinder(NewLineCache(), view, nil, nil, req)

	_, err := pf.FindPaths(0)
	var pfErr *PathfindError
	if !errors.As(err, &pfErr) || pfErr.Kind != ErrInvalidSource {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

func TestPathfinder_FindPaths_InvalidDestination(t *testing.T) {
	view := newFakeLedgerView()
	view.exists[acct(1)] = true // only the source exists

	req := PathRequest{SrcAccount: acct(1), DstAccount: acct(2), DstAmount: xrpAmount(100)}
	pf := NewPathfinder(NewLineCache(), view, nil, nil, req)

	_, err := pf.FindPaths(0)
	var pfErr *PathfindError
	if !errors.As(err, &pfErr) || pfErr.Kind != ErrInvalidDestination {
		t.Fatalf("expected ErrInvalidDestination, got %v", err)
	}
}

func TestPathfinder_BestPaths_BeforeComputeRanksErrors(t *testing.T) {
	view := newFakeLedgerView()
	req := PathRequest{SrcAccount: acct(1), DstAccount: acct(2), DstAmount: xrpAmount(100)}
	pf := NewPathfinder(NewLineCache(), view, nil, nil, req)

	_, err := pf.BestPaths(4, nil)
	var pfErr *PathfindError
	if !errors.As(err, &pfErr) || pfErr.Kind != ErrNoPath {
		t.Fatalf("calling BestPaths before ComputeRanks must fail with ErrNoPath, got %v", err)
	}
}

func TestPathfinder_EndToEnd_NonNativeSameCurrencyThroughIntermediary(t *testing.T) {
	src := acct(1)
	mid := acct(2)
	dst := acct(3)
	usd := usdIssue(src)

	view := newFakeLedgerView()
	view.exists[src] = true
	view.exists[dst] = true
	view.lines[src] = []TrustLine{{Peer: mid, Currency: "USD"}}
	view.lines[mid] = []TrustLine{{Peer: dst, Currency: "USD"}}

	oracle := &fakeOracle{fn: func(req OracleRequest) (OracleResult, error) {
		if req.AddDefaultPath {
			// src has no direct USD trust line to dst in this fixture.
			return OracleResult{Status: OraclePathDry}, nil
		}
		return OracleResult{Status: OracleSuccess, Delivered: req.DstAmount}, nil
	}}

	req := PathRequest{
		SrcAccount:  src,
		DstAccount:  dst,
		SrcCurrency: "USD",
		DstAmount:   nonNativeEitherAmount("USD", src),
	}
	pf := NewPathfinder(NewLineCache(), view, oracle, NewLoadEventRegistrar(), req)

	found, err := pf.FindPaths(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected FindPaths to find the two-hop path through the intermediary")
	}

	if err := pf.ComputeRanks(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	best, err := pf.BestPaths(4, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(best.Paths) != 1 {
		t.Fatalf("got %d best paths, want 1", len(best.Paths))
	}
	last, ok := best.Paths[0].lastAccount()
	if !ok || last != dst {
		t.Errorf("best path ends at %v (ok=%v), want destination %v", last, ok, dst)
	}
}

func TestPathfinder_EndToEnd_NativeToNativeUsesDefaultPath(t *testing.T) {
	src := acct(1)
	dst := acct(2)

	view := newFakeLedgerView()
	view.exists[src] = true
	view.exists[dst] = true

	oracle := &fakeOracle{fn: func(req OracleRequest) (OracleResult, error) {
		if !req.AddDefaultPath {
			t.Fatalf("PaymentNativeToNative has no templates; only the default-path probe should ever call the oracle, got %+v", req)
		}
		return OracleResult{Status: OracleSuccess, Delivered: req.DstAmount}, nil
	}}

	req := PathRequest{SrcAccount: src, DstAccount: dst, DstAmount: xrpAmount(100)}
	pf := NewPathfinder(NewLineCache(), view, oracle, nil, req)

	found, err := pf.FindPaths(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("FindPaths must report success once both accounts exist, even with an empty template set")
	}

	if err := pf.ComputeRanks(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	best, err := pf.BestPaths(4, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(best.Paths) != 1 {
		t.Fatalf("got %d best paths, want the single default direct-transfer path", len(best.Paths))
	}
	last, ok := best.Paths[0].lastAccount()
	if !ok || last != dst {
		t.Errorf("default path ends at %v (ok=%v), want destination %v", last, ok, dst)
	}
}

// nonNativeEitherAmount avoids dstIssueFor's address-decoding dependency by
// constructing an IOU EitherAmount whose issuer field is a raw placeholder
// string rather than a real encoded classic address: this test only needs
// DstAmount.IsNative == false and the currency code, not a resolvable issuer.
func nonNativeEitherAmount(currency string, issuer Account) payment.EitherAmount {
	_ = issuer
	return payment.EitherAmount{IsNative: false, IOU: sle.NewIssuedAmountFromFloat64(10, currency, "placeholder")}
}
