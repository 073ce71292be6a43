package pathfinding

import (
	"context"

	"github.com/ledgerflow/pathd/internal/core/tx/payment"
)

// fakeLedgerView is a scripted LedgerView double: accounts, trust lines, and
// book-offer candidates are all pre-seeded maps rather than derived from a
// real ledger snapshot.
type fakeLedgerView struct {
	exists map[Account]bool
	lines  map[Account][]TrustLine
	books  map[Issue][]Issue
}

func newFakeLedgerView() *fakeLedgerView {
	return &fakeLedgerView{
		exists: make(map[Account]bool),
		lines:  make(map[Account][]TrustLine),
		books:  make(map[Issue][]Issue),
	}
}

func (v *fakeLedgerView) AccountExists(ctx context.Context, acct Account) (bool, error) {
	return v.exists[acct], nil
}

func (v *fakeLedgerView) DefaultIssuerFor(ctx context.Context, acct Account, currency string) (Account, error) {
	return acct, nil
}

func (v *fakeLedgerView) TrustLinesOut(ctx context.Context, acct Account) ([]TrustLine, error) {
	return v.lines[acct], nil
}

func (v *fakeLedgerView) BooksFor(ctx context.Context, issueIn Issue) ([]Issue, error) {
	return v.books[issueIn], nil
}

// fakeOracle is a scripted SettlementOracle double: fn decides the result
// for every probe, so tests can script per-call behavior without a real
// settlement calculator.
type fakeOracle struct {
	fn func(req OracleRequest) (OracleResult, error)
}

func (o *fakeOracle) RippleCalculate(ctx context.Context, req OracleRequest) (OracleResult, error) {
	return o.fn(req)
}

func acct(b byte) Account {
	var a Account
	a[19] = b
	return a
}

func usdIssue(issuer Account) Issue {
	return NewIssue("USD", issuer)
}

func xrpAmount(drops int64) payment.EitherAmount {
	return payment.NewXRPEitherAmount(drops)
}
