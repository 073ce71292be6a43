package rpc

import (
	"strconv"

	"github.com/ledgerflow/pathd/internal/core/ledger/service"
	"github.com/ledgerflow/pathd/internal/core/tx"
	"github.com/ledgerflow/pathd/internal/core/tx/sle"
	"github.com/ledgerflow/pathd/internal/rpc/rpc_types"
)

// serviceLedgerAdapter adapts the node's service.Service onto
// rpc_types.LedgerService, translating between service's internal result
// shapes and the wire-facing ones rpc_handlers methods build responses from.
type serviceLedgerAdapter struct {
	svc *service.Service
}

// NewServiceLedgerAdapter wraps svc for use as the ledger backend the
// RPC server's method handlers read through.
func NewServiceLedgerAdapter(svc *service.Service) rpc_types.LedgerService {
	return &serviceLedgerAdapter{svc: svc}
}

func (a *serviceLedgerAdapter) GetAccountInfo(account string, ledgerIndex string) (interface{}, error) {
	return a.svc.GetAccountInfo(account, ledgerIndex)
}

func (a *serviceLedgerAdapter) GetAccountLines(account, ledgerIndex, peer string, limit uint32) (*rpc_types.AccountLinesResult, error) {
	result, err := a.svc.GetAccountLines(account, ledgerIndex, peer, limit)
	if err != nil {
		return nil, err
	}

	lines := make([]rpc_types.TrustLine, 0, len(result.Lines))
	for _, l := range result.Lines {
		lines = append(lines, rpc_types.TrustLine{
			Account:    l.Account,
			Currency:   l.Currency,
			Balance:    l.Balance,
			Limit:      l.Limit,
			NoRipple:   l.NoRipple,
			Authorized: l.Authorized,
			Freeze:     l.Freeze,
		})
	}

	return &rpc_types.AccountLinesResult{
		Account:     result.Account,
		Lines:       lines,
		LedgerHash:  result.LedgerHash,
		LedgerIndex: result.LedgerIndex,
		Validated:   result.Validated,
		Marker:      result.Marker,
	}, nil
}

func (a *serviceLedgerAdapter) GetBookOffers(takerGets, takerPays rpc_types.Amount, ledgerIndex string, limit uint32) (*rpc_types.BookOffersResult, error) {
	gets, err := txAmountFromRPC(takerGets)
	if err != nil {
		return nil, err
	}
	pays, err := txAmountFromRPC(takerPays)
	if err != nil {
		return nil, err
	}

	result, err := a.svc.GetBookOffers(gets, pays, ledgerIndex, limit)
	if err != nil {
		return nil, err
	}

	offers := make([]interface{}, 0, len(result.Offers))
	for _, o := range result.Offers {
		offers = append(offers, o)
	}

	return &rpc_types.BookOffersResult{
		LedgerHash:  result.LedgerHash,
		LedgerIndex: result.LedgerIndex,
		Offers:      offers,
		Validated:   result.Validated,
	}, nil
}

// txAmountFromRPC converts a parsed rpc_types.Amount into the tx.Amount
// the service layer's book queries key off of. An empty or "XRP" currency
// means drops; anything else is an issued currency.
func txAmountFromRPC(amt rpc_types.Amount) (tx.Amount, error) {
	if amt.Currency == "" || amt.Currency == "XRP" {
		drops, err := strconv.ParseInt(amt.Value, 10, 64)
		if err != nil {
			return tx.Amount{}, err
		}
		return sle.NewXRPAmountFromInt(drops), nil
	}
	return sle.NewIssuedAmountFromDecimalString(amt.Value, amt.Currency, amt.Issuer), nil
}
