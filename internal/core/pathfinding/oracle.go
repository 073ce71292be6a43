package pathfinding

import (
	"context"

	"github.com/ledgerflow/pathd/internal/core/tx"
	"github.com/ledgerflow/pathd/internal/core/tx/payment"
	"github.com/ledgerflow/pathd/internal/core/tx/sle"
)

// OracleStatus classifies a settlement oracle outcome into the four-way
// taxonomy of spec.md section 7.
type OracleStatus int

const (
	OracleSuccess OracleStatus = iota
	OracleTemporary
	OraclePathDry
	OracleNoLiquidity
	OracleFatal
)

// OracleRequest describes one path_liquidity probe.
type OracleRequest struct {
	SrcAccount     Account
	DstAccount     Account
	DstAmount      payment.EitherAmount
	Path           Path
	AddDefaultPath bool
}

// OracleResult is what the settlement oracle reports for one candidate.
type OracleResult struct {
	Delivered payment.EitherAmount
	Spent     payment.EitherAmount
	Quality   payment.Quality
	Status    OracleStatus
}

// SettlementOracle measures, for a candidate path against a snapshot, how
// much of the requested amount it can actually deliver and at what quality.
// It is a capability passed to the Pathfinder, never a global, per spec.md
// section 9, so tests can substitute a scripted mock.
type SettlementOracle interface {
	RippleCalculate(ctx context.Context, req OracleRequest) (OracleResult, error)
}

// flowOracle is the production SettlementOracle, grounded on
// payment.RippleCalculate/payment.Flow — the same settlement calculator
// that executes Payment transactions in this repository. It builds its
// PaymentSandbox over the tx.LedgerView snapshot supplied at construction,
// which must be the same ledger snapshot the Pathfinder's own LedgerView
// was built from, and never mutates it: RippleCalculate's returned sandbox
// is discarded rather than applied.
type flowOracle struct {
	view      tx.LedgerView
	ledgerSeq uint32
}

// NewFlowOracle builds the production SettlementOracle over one ledger
// snapshot, for a Pathfinder running against the transaction engine's own
// tx.LedgerView rather than behind the RPC query surface.
func NewFlowOracle(view tx.LedgerView, ledgerSeq uint32) SettlementOracle {
	return &flowOracle{view: view, ledgerSeq: ledgerSeq}
}

func (o *flowOracle) RippleCalculate(ctx context.Context, req OracleRequest) (OracleResult, error) {
	dstAmount := eitherToTxAmount(req.DstAmount)
	steps := pathToSteps(req.Path)

	actualIn, actualOut, _, _, result := payment.RippleCalculate(
		o.view,
		req.SrcAccount,
		req.DstAccount,
		dstAmount,
		nil,
		[][]payment.PathStep{steps},
		req.AddDefaultPath,
		true,  // partialPayment: a probe only wants to know how much is deliverable
		false, // limitQuality
		[32]byte{},
		o.ledgerSeq,
	)

	return OracleResult{
		Delivered: actualOut,
		Spent:     actualIn,
		Quality:   payment.QualityFromAmounts(actualIn, actualOut),
		Status:    statusFromResult(result),
	}, nil
}

// eitherToTxAmount unwraps an EitherAmount into the concrete tx.Amount
// RippleCalculate expects for its dstAmount parameter.
func eitherToTxAmount(amt payment.EitherAmount) tx.Amount {
	if amt.IsNative {
		return sle.NewXRPAmountFromInt(amt.XRP)
	}
	return amt.IOU
}

// pathToSteps converts a Path to the PathStep slice payment.RippleCalculate
// expects. The source element and the final destination hop are both
// implicit in RippleCalculate's srcAccount/dstAccount arguments, so only
// the elements strictly between them become PathSteps.
func pathToSteps(p Path) []payment.PathStep {
	if len(p) <= 2 {
		return nil
	}
	steps := make([]payment.PathStep, 0, len(p)-2)
	for _, el := range p[1 : len(p)-1] {
		steps = append(steps, pathElementToStep(el))
	}
	return steps
}

func pathElementToStep(el PathElement) payment.PathStep {
	if el.IsBook {
		step := payment.PathStep{Currency: el.Issue.Currency}
		if !el.Issue.IsXRP() {
			if addr, err := sle.EncodeAccountID(el.Issue.Issuer); err == nil {
				step.Issuer = addr
			}
		}
		return step
	}
	addr, _ := sle.EncodeAccountID(el.Account)
	return payment.PathStep{Account: addr}
}

// rpcEstimateOracle is the SettlementOracle used when a Pathfinder runs
// behind the read-only RPC query surface (rpc.LedgerService) rather than
// against the transaction engine's own tx.LedgerView. The RPC layer has no
// access to a PaymentSandbox to run payment.RippleCalculate against, so
// this oracle estimates deliverability instead: it accepts a path at face
// value (full requested delivery, a flat quality) unless linesFn reports an
// account-hop trust line whose available headroom is smaller, in which case
// delivery is capped to that headroom. This trades settlement precision for
// being computable from query-only data; ripple_path_find callers already
// treat its "alternatives" as estimates to be revalidated at submission
// time, same as rippled's own advisory path responses.
type rpcEstimateOracle struct {
	linesFn func(ctx context.Context, addr string) ([]TrustLine, error)
}

// NewRPCFlowOracle builds the estimate-based SettlementOracle for the RPC
// query path. ledger is accepted for symmetry with the RPC handler's other
// constructors; estimation only needs the trust-line lookup the handler's
// RPCLedgerView already exposes, so the handler passes that closure through
// rather than this package depending on package rpc directly.
func NewRPCFlowOracle(linesFn func(ctx context.Context, addr string) ([]TrustLine, error)) SettlementOracle {
	return &rpcEstimateOracle{linesFn: linesFn}
}

func (o *rpcEstimateOracle) RippleCalculate(ctx context.Context, req OracleRequest) (OracleResult, error) {
	delivered := req.DstAmount
	if !req.DstAmount.IsNative {
		for _, el := range req.Path {
			if el.IsBook {
				continue
			}
			headroom, err := o.accountHeadroom(ctx, el.Account, el.Issue.Currency)
			if err != nil {
				return OracleResult{}, err
			}
			if headroom.Compare(delivered) < 0 {
				delivered = headroom
			}
		}
	}

	if delivered.IsEffectivelyZero() {
		return OracleResult{Status: OraclePathDry}, nil
	}

	return OracleResult{
		Delivered: delivered,
		Spent:     delivered,
		Quality:   payment.QualityFromAmounts(delivered, delivered),
		Status:    OracleSuccess,
	}, nil
}

// accountHeadroom estimates how much more of currency an account hop can
// accept, from the difference between its trust line limit and balance.
func (o *rpcEstimateOracle) accountHeadroom(ctx context.Context, acct Account, currency string) (payment.EitherAmount, error) {
	addr, err := sle.EncodeAccountID(acct)
	if err != nil {
		return payment.EitherAmount{}, err
	}
	lines, err := o.linesFn(ctx, addr)
	if err != nil {
		return payment.EitherAmount{}, err
	}
	for _, l := range lines {
		if l.Currency != currency {
			continue
		}
		headroom := l.Limit.Sub(l.Balance)
		if headroom.IsNegative() {
			return payment.ZeroIOUEitherAmount(currency, addr), nil
		}
		return headroom, nil
	}
	return payment.ZeroIOUEitherAmount(currency, addr), nil
}

// statusFromResult maps a tx.Result from the settlement calculator onto the
// OracleStatus taxonomy, per SPEC_FULL.md section 7's result table.
func statusFromResult(result tx.Result) OracleStatus {
	switch result {
	case tx.TesSUCCESS, tx.TecPATH_PARTIAL:
		return OracleSuccess
	case tx.TecPATH_DRY:
		return OraclePathDry
	case tx.TecUNFUNDED_PAYMENT, tx.TecNO_LINE, tx.TecNO_LINE_INSUF_RESERVE, tx.TecNO_LINE_REDUNDANT:
		return OracleNoLiquidity
	}
	switch {
	case result.IsTer():
		return OracleTemporary
	case result.IsTef(), result.IsTel():
		return OracleFatal
	default:
		return OracleFatal
	}
}
