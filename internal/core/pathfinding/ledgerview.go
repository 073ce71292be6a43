package pathfinding

import (
	"context"
	"errors"
	"strconv"

	"github.com/ledgerflow/pathd/internal/core/ledger/service"
	"github.com/ledgerflow/pathd/internal/core/tx"
	"github.com/ledgerflow/pathd/internal/core/tx/payment"
	"github.com/ledgerflow/pathd/internal/core/tx/sle"
)

// LedgerView exposes the read-only accessors the pathfinding components
// need against one fixed snapshot. Every method is pure: it never mutates
// the snapshot and is safe to call concurrently from multiple requests
// sharing the same view, per spec.md section 4.1.
type LedgerView interface {
	// AccountExists reports whether acct has an AccountRoot entry.
	AccountExists(ctx context.Context, acct Account) (bool, error)

	// DefaultIssuerFor returns the issuer to assume for currency when a
	// path request leaves the source issuer unspecified.
	DefaultIssuerFor(ctx context.Context, acct Account, currency string) (Account, error)

	// TrustLinesOut returns every trust line originating at acct.
	TrustLinesOut(ctx context.Context, acct Account) ([]TrustLine, error)

	// BooksFor returns the Issues that an order book takes issueIn for.
	BooksFor(ctx context.Context, issueIn Issue) ([]Issue, error)
}

// serviceLedgerView adapts LedgerView onto the ledger query surface already
// used by the account_info, account_lines, and book_offers RPC handlers
// (internal/core/ledger/service.Service), so the pathfinder rides the same
// read path production traffic uses instead of a bespoke one.
type serviceLedgerView struct {
	svc         *service.Service
	ledgerIndex string
}

// NewServiceLedgerView builds the LedgerView a Pathfinder runs against when
// it has direct access to the node's own ledger service, rather than only a
// remote RPC query surface — the transaction-engine-facing counterpart to
// RPCLedgerView.
func NewServiceLedgerView(svc *service.Service, ledgerIndex string) LedgerView {
	return &serviceLedgerView{
		svc:         svc,
		ledgerIndex: ledgerIndex,
	}
}

func (v *serviceLedgerView) AccountExists(ctx context.Context, acct Account) (bool, error) {
	addr, err := sle.EncodeAccountID(acct)
	if err != nil {
		return false, err
	}
	if _, err := v.svc.GetAccountInfo(addr, v.ledgerIndex); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DefaultIssuerFor follows the convention that an unspecified source issuer
// means the sending account's own issuances: the account is its own default
// issuer for any currency it rippling through its trust lines.
func (v *serviceLedgerView) DefaultIssuerFor(ctx context.Context, acct Account, currency string) (Account, error) {
	return acct, nil
}

func (v *serviceLedgerView) TrustLinesOut(ctx context.Context, acct Account) ([]TrustLine, error) {
	addr, err := sle.EncodeAccountID(acct)
	if err != nil {
		return nil, err
	}

	result, err := v.svc.GetAccountLines(addr, v.ledgerIndex, "", 0)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}

	lines := make([]TrustLine, 0, len(result.Lines))
	for _, l := range result.Lines {
		peer, err := sle.DecodeAccountID(l.Account)
		if err != nil {
			continue
		}
		lines = append(lines, TrustLine{
			Peer:       peer,
			Currency:   l.Currency,
			NoRipple:   l.NoRipple,
			Limit:      decimalIOU(l.Limit, l.Currency, l.Account),
			Balance:    decimalIOU(l.Balance, l.Currency, l.Account),
			Authorized: l.Authorized,
			Freeze:     l.Freeze,
		})
	}
	return lines, nil
}

// decimalIOU parses a decimal string from an account_lines response into an
// IOU EitherAmount. A malformed value parses as zero rather than aborting
// the whole line list.
func decimalIOU(decimal, currency, issuer string) payment.EitherAmount {
	value, err := strconv.ParseFloat(decimal, 64)
	if err != nil {
		return payment.ZeroIOUEitherAmount(currency, issuer)
	}
	return payment.NewIOUEitherAmount(sle.NewIssuedAmountFromFloat64(value, currency, issuer))
}

// BooksFor enumerates every order book that takes issueIn, by scanning the
// ledger's Offer entries once via service.GetBookIssues rather than probing
// a fixed candidate list — so a book that trades issueIn against a currency
// this request never mentions is still found.
func (v *serviceLedgerView) BooksFor(ctx context.Context, issueIn Issue) ([]Issue, error) {
	gets := issueToAmount(issueIn)

	amounts, err := v.svc.GetBookIssues(gets, v.ledgerIndex)
	if err != nil {
		return nil, err
	}

	out := make([]Issue, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, amountToIssue(a))
	}
	return out, nil
}

// amountToIssue extracts the currency/issuer pair a tx.Amount carries,
// inverting issueToAmount.
func amountToIssue(a tx.Amount) Issue {
	if a.IsNative() {
		return NativeIssue()
	}
	issuer, _ := sle.DecodeAccountID(a.Issuer)
	return Issue{Currency: a.Currency, Issuer: issuer}
}

// issueToAmount builds a zero-value tx.Amount carrying only the currency
// and issuer fields GetBookOffers compares a book's offers against.
func issueToAmount(issue Issue) tx.Amount {
	if issue.IsXRP() {
		return tx.Amount{Native: true}
	}
	issuerAddr, _ := sle.EncodeAccountID(issue.Issuer)
	return tx.Amount{Currency: issue.Currency, Issuer: issuerAddr, Native: false}
}
