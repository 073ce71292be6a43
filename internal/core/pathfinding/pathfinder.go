package pathfinding

import (
	"context"

	"github.com/ledgerflow/pathd/internal/core/tx/payment"
	"github.com/ledgerflow/pathd/internal/core/tx/sle"
)

// Pathfinder runs one payment path search end to end: expansion into
// candidate paths, liquidity ranking against the settlement oracle, and
// selection of the paths returned to the caller. One Pathfinder serves one
// PathRequest against one fixed ledger snapshot; it holds no state that
// outlives the search, per spec.md section 5.
type Pathfinder struct {
	cache     *LineCache
	view      LedgerView
	oracle    SettlementOracle
	registrar *LoadEventRegistrar
	req       PathRequest

	srcIssue Issue
	dstIssue Issue

	complete []Path
	ranked   []rankedPath
}

// NewPathfinder builds a Pathfinder for one request. cache and view are
// shared across concurrently running searches against the same snapshot;
// oracle and registrar are per-node singletons injected for testability.
func NewPathfinder(cache *LineCache, view LedgerView, oracle SettlementOracle, registrar *LoadEventRegistrar, req PathRequest) *Pathfinder {
	return &Pathfinder{
		cache:     cache,
		view:      view,
		oracle:    oracle,
		registrar: registrar,
		req:       req,
		srcIssue:  srcIssueFor(req),
		dstIssue:  dstIssueFor(req.DstAmount),
	}
}

// FindPaths runs the Path Generator at the given search level, replacing any
// previously found candidate set. It returns an error if the request's
// source or destination account does not exist on the snapshot; otherwise it
// returns true unconditionally, even when the template-generated candidate
// set comes back empty, since ComputeRanks' default-path probe (spec.md
// section 4.5 step 2) still runs independently of that set and may itself
// produce a result — the only case pathTable guarantees this for is
// PaymentNativeToNative, whose templates are empty at every level.
func (p *Pathfinder) FindPaths(level int) (bool, error) {
	ctx := context.Background()

	var handle LoadEventHandle
	if p.registrar != nil {
		handle = p.registrar.Acquire("FindPaths")
		defer handle.Release()
	}

	srcOK, err := p.view.AccountExists(ctx, p.req.SrcAccount)
	if err != nil {
		return false, err
	}
	if !srcOK {
		return false, &PathfindError{Kind: ErrInvalidSource, Message: "source account does not exist"}
	}

	dstOK, err := p.view.AccountExists(ctx, p.req.DstAccount)
	if err != nil {
		return false, err
	}
	if !dstOK {
		return false, &PathfindError{Kind: ErrInvalidDestination, Message: "destination account does not exist"}
	}

	exp := newExpander(p.view, p.cache, p.req, p.dstIssue)
	gen := newGenerator(exp, p.req, p.srcIssue, p.dstIssue)

	complete, err := gen.findPaths(ctx, level)
	if err != nil {
		return false, err
	}

	p.complete = complete
	p.ranked = nil
	return true, nil
}

// ComputeRanks probes every candidate FindPaths produced through the
// settlement oracle and sorts the survivors by the PathRank comparator, per
// spec.md section 4.5.
func (p *Pathfinder) ComputeRanks(maxPaths int) error {
	ctx := context.Background()

	var handle LoadEventHandle
	if p.registrar != nil {
		handle = p.registrar.Acquire("ComputeRanks")
		defer handle.Release()
	}

	ranked, err := computeRanks(ctx, p.oracle, p.req, p.srcIssue, p.dstIssue, p.complete, maxPaths)
	if err != nil {
		return err
	}
	p.ranked = ranked
	return nil
}

// BestPaths selects the primary path set, any overflow candidates, and an
// optional single full-liquidity path, from the ranks ComputeRanks produced.
// srcIssuer, if non-nil, restricts selection to paths whose first hop issuer
// matches it.
func (p *Pathfinder) BestPaths(maxPaths int, srcIssuer *Issue) (BestPathsResult, error) {
	if p.ranked == nil {
		return BestPathsResult{}, &PathfindError{Kind: ErrNoPath, Message: "ComputeRanks has not run"}
	}
	return bestPaths(p.ranked, maxPaths, p.req.DstAmount, srcIssuer), nil
}

// srcIssueFor derives the Issue a search should treat as the source's
// starting point: the request's explicit SrcIssuer if given, the native
// Issue for an XRP send, or the sending account's own self-issued Issue for
// the requested currency otherwise.
func srcIssueFor(req PathRequest) Issue {
	if req.SrcIssuer != nil {
		return *req.SrcIssuer
	}
	if req.SrcCurrency == "" || req.SrcCurrency == "XRP" {
		return NativeIssue()
	}
	return NewIssue(req.SrcCurrency, req.SrcAccount)
}

// dstIssueFor extracts the destination Issue carried by a requested
// delivery amount.
func dstIssueFor(amt payment.EitherAmount) Issue {
	if amt.IsNative {
		return NativeIssue()
	}
	issuer, err := sle.DecodeAccountID(amt.IOU.Issuer)
	if err != nil {
		return Issue{Currency: amt.IOU.Currency}
	}
	return NewIssue(amt.IOU.Currency, issuer)
}
