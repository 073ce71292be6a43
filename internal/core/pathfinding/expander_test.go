package pathfinding

import (
	"context"
	"testing"
)

func TestAddAccountLinks_SkipsAlreadyVisitedAndWrongCurrency(t *testing.T) {
	src := acct(1)
	mid := acct(2)
	other := acct(3)
	dst := acct(4)

	view := newFakeLedgerView()
	view.lines[src] = []TrustLine{
		{Peer: mid, Currency: "USD"},
		{Peer: other, Currency: "EUR"}, // wrong currency, must be skipped
	}

	req := PathRequest{SrcAccount: src, DstAccount: dst}
	exp := newExpander(view, NewLineCache(), req, usdIssue(src))

	current := Path{AccountHop(src, usdIssue(src))}
	out, err := exp.addAccountLinks(context.Background(), current, AddAccounts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d extensions, want 1 (only the USD line)", len(out))
	}
	if last, _ := out[0].lastAccount(); last != mid {
		t.Errorf("extension landed on %v, want %v", last, mid)
	}

	// Re-running from a path that already visited mid must not re-offer it.
	revisit := Path{AccountHop(src, usdIssue(src)), AccountHop(mid, usdIssue(src))}
	view.lines[mid] = []TrustLine{{Peer: src, Currency: "USD"}}
	out2, err := exp.addAccountLinks(context.Background(), revisit, AddAccounts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out2) != 0 {
		t.Errorf("re-visiting an account already in the path must produce no extensions, got %d", len(out2))
	}
}

func TestAddAccountLinks_ACLastOnlyAcceptsDestination(t *testing.T) {
	src := acct(1)
	mid := acct(2)
	dst := acct(3)

	view := newFakeLedgerView()
	view.lines[src] = []TrustLine{
		{Peer: mid, Currency: "USD"},
		{Peer: dst, Currency: "USD"},
	}

	req := PathRequest{SrcAccount: src, DstAccount: dst}
	exp := newExpander(view, NewLineCache(), req, usdIssue(src))

	current := Path{AccountHop(src, usdIssue(src))}
	out, err := exp.addAccountLinks(context.Background(), current, AddAccounts|ACLast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("ACLast should only keep the hop landing on the destination, got %d extensions", len(out))
	}
	if last, _ := out[0].lastAccount(); last != dst {
		t.Errorf("ACLast extension landed on %v, want destination %v", last, dst)
	}
}

func TestAddAccountLinks_NoRippleOutBlocksExpansion(t *testing.T) {
	src := acct(1)
	mid := acct(2)
	far := acct(3)

	view := newFakeLedgerView()
	// mid's line back to src is no-ripple: the strict pass-through rule
	// forbids extending a path that entered mid via src through that same
	// link's currency to any further account.
	view.lines[src] = []TrustLine{{Peer: mid, Currency: "USD"}}
	view.lines[mid] = []TrustLine{
		{Peer: src, Currency: "USD", NoRipple: true},
		{Peer: far, Currency: "USD"},
	}

	req := PathRequest{SrcAccount: src, DstAccount: far}
	exp := newExpander(view, NewLineCache(), req, usdIssue(src))

	current := Path{AccountHop(src, usdIssue(src)), AccountHop(mid, usdIssue(src))}
	out, err := exp.addAccountLinks(context.Background(), current, AddAccounts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("no-ripple outgoing link must block further expansion, got %d extensions", len(out))
	}
}

func TestAddBookLinks_OBNativeAndOBLastFilters(t *testing.T) {
	src := acct(1)
	eurIssuer := acct(5)
	usd := usdIssue(src)
	eur := NewIssue("EUR", eurIssuer)

	view := newFakeLedgerView()
	view.books[usd] = []Issue{NativeIssue(), eur}

	req := PathRequest{SrcAccount: src, DstAccount: acct(9)}
	exp := newExpander(view, NewLineCache(), req, NativeIssue())

	current := Path{AccountHop(src, usd)}

	nativeOnly, err := exp.addBookLinks(context.Background(), current, AddBooks|OBNative)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nativeOnly) != 1 || nativeOnly[0].lastIssue() != NativeIssue() {
		t.Errorf("OBNative should only keep the native-output book, got %+v", nativeOnly)
	}

	destOnly, err := exp.addBookLinks(context.Background(), current, AddBooks|OBLast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(destOnly) != 1 || destOnly[0].lastIssue() != NativeIssue() {
		t.Errorf("OBLast should only keep the book landing on the destination Issue, got %+v", destOnly)
	}
}

func TestAddBookLinks_RejectsOriginIssuedLoopback(t *testing.T) {
	src := acct(1)
	usd := usdIssue(src)

	view := newFakeLedgerView()
	// A book back into an Issue issued by the source account itself is a
	// trivial loop and must never be offered.
	view.books[NativeIssue()] = []Issue{usd}

	req := PathRequest{SrcAccount: src, DstAccount: acct(9)}
	exp := newExpander(view, NewLineCache(), req, usd)

	current := Path{AccountHop(src, NativeIssue())}
	out, err := exp.addBookLinks(context.Background(), current, AddBooks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("book hop landing on the source's own issuance must be rejected, got %d", len(out))
	}
}

func TestPathsOut_CapsFanoutAndIsCached(t *testing.T) {
	src := acct(1)
	view := newFakeLedgerView()
	req := PathRequest{SrcAccount: src, DstAccount: acct(9)}
	exp := newExpander(view, NewLineCache(), req, usdIssue(src))

	first := exp.pathsOut("USD", src, false, acct(9))
	if first != defaultBranchCap {
		t.Errorf("non-destination currency/account should use defaultBranchCap (%d), got %d", defaultBranchCap, first)
	}

	second := exp.pathsOut("USD", src, true, acct(9))
	if second != defaultBranchCap {
		t.Errorf("pathsOut must be cached per (currency, account) cell; expected the first call's cached value %d, got %d", defaultBranchCap, second)
	}

	destCap := exp.pathsOut("EUR", acct(9), false, acct(9))
	if destCap != destBranchCap {
		t.Errorf("converging on the destination account should use destBranchCap (%d), got %d", destBranchCap, destCap)
	}
}
