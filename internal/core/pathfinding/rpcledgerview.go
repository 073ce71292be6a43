package pathfinding

import (
	"context"
	"strconv"

	"github.com/ledgerflow/pathd/internal/core/tx/payment"
	"github.com/ledgerflow/pathd/internal/core/tx/sle"
)

// RPCLedgerView adapts LedgerView onto closures an RPC handler supplies over
// its live rpc.Services.Ledger. It is expressed as closures, rather than
// wrapping an rpc.LedgerService directly, because this package sits beneath
// internal/rpc in the dependency graph (internal/rpc's handlers will depend
// on pathfinding, not the reverse) and importing rpc here would risk an
// import cycle back through rpc_handlers.
type RPCLedgerView struct {
	// AccountExistsFn reports whether addr has an AccountRoot entry.
	AccountExistsFn func(ctx context.Context, addr string) (bool, error)

	// LinesFn returns every trust line originating at addr.
	LinesFn func(ctx context.Context, addr string) ([]TrustLine, error)

	// BooksFn returns the Issues an order book takes issueIn for.
	BooksFn func(ctx context.Context, issueIn Issue) ([]Issue, error)
}

func (v *RPCLedgerView) AccountExists(ctx context.Context, acct Account) (bool, error) {
	addr, err := sle.EncodeAccountID(acct)
	if err != nil {
		return false, err
	}
	return v.AccountExistsFn(ctx, addr)
}

// DefaultIssuerFor follows the same self-issued convention as
// serviceLedgerView.DefaultIssuerFor.
func (v *RPCLedgerView) DefaultIssuerFor(ctx context.Context, acct Account, currency string) (Account, error) {
	return acct, nil
}

func (v *RPCLedgerView) TrustLinesOut(ctx context.Context, acct Account) ([]TrustLine, error) {
	addr, err := sle.EncodeAccountID(acct)
	if err != nil {
		return nil, err
	}
	return v.LinesFn(ctx, addr)
}

func (v *RPCLedgerView) BooksFor(ctx context.Context, issueIn Issue) ([]Issue, error) {
	return v.BooksFn(ctx, issueIn)
}

// NewTrustLineFromDecimal builds a TrustLine from the decimal-string limit
// and balance an RPC response carries, the same conversion ledgerview.go's
// decimalIOU applies for the direct service.Service-backed LedgerView.
// peerAddr is the trust line's counterparty classic address.
func NewTrustLineFromDecimal(peerAddr, currency, limit, balance string, noRipple, authorized, freeze bool) (TrustLine, error) {
	peer, err := sle.DecodeAccountID(peerAddr)
	if err != nil {
		return TrustLine{}, err
	}
	return TrustLine{
		Peer:       peer,
		Currency:   currency,
		NoRipple:   noRipple,
		Limit:      rpcDecimalIOU(limit, currency, peerAddr),
		Balance:    rpcDecimalIOU(balance, currency, peerAddr),
		Authorized: authorized,
		Freeze:     freeze,
	}, nil
}

func rpcDecimalIOU(decimal, currency, issuer string) payment.EitherAmount {
	value, err := strconv.ParseFloat(decimal, 64)
	if err != nil {
		return payment.ZeroIOUEitherAmount(currency, issuer)
	}
	return payment.NewIOUEitherAmount(sle.NewIssuedAmountFromFloat64(value, currency, issuer))
}
