package pathfinding

import (
	"context"
	"sort"

	"github.com/ledgerflow/pathd/internal/core/tx/payment"
)

// keepFraction is the "small fraction of the remaining amount" spec.md
// section 4.5 step 3 uses to derive min_delivered from the remaining
// register: a candidate delivering less than this is not worth keeping.
const keepFraction = 0.01

// rankedPath pairs a completed candidate with its computed rank.
type rankedPath struct {
	path Path
	rank PathRank
}

// computeRanks implements compute_ranks: it probes every completed
// candidate via the settlement oracle, keeps the ones clearing
// min_delivered, and returns them sorted by the PathRank comparator.
//
// Before ranking the template-generated candidates, it evaluates the
// trivial default path first, per spec.md section 4.5 step 2: a direct
// transfer between srcAccount and dstAccount through their own default
// issuers, with no intermediate hops. This is the only candidate a
// native-to-native request ever has, since pathTable carries no templates
// for PaymentNativeToNative, and it also covers the degenerate case where
// the source and destination Issue are already the same account/currency
// pair, where no template would otherwise produce a one-hop path either.
// When viable, its delivered amount is subtracted from remaining before
// the template-generated candidates are probed.
func computeRanks(ctx context.Context, oracle SettlementOracle, req PathRequest, srcIssue, dstIssue Issue, complete []Path, maxPaths int) ([]rankedPath, error) {
	remaining := req.DstAmount

	var ranked []rankedPath

	defaultRank, newRemaining, err := probeDefaultPath(ctx, oracle, req, srcIssue, dstIssue, remaining)
	if err != nil {
		return nil, err
	}
	if defaultRank != nil {
		ranked = append(ranked, *defaultRank)
		remaining = newRemaining
	}

	for index, path := range complete {
		if remaining.IsEffectivelyZero() {
			break
		}

		minDelivered := remaining.MultiplyFloat(keepFraction)

		result, err := oracle.RippleCalculate(ctx, OracleRequest{
			SrcAccount: req.SrcAccount,
			DstAccount: req.DstAccount,
			DstAmount:  remaining,
			Path:       path,
		})
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case OracleFatal:
			return nil, &PathfindError{Kind: ErrSnapshotLost, Message: "settlement oracle reported a fatal error"}
		case OracleTemporary, OraclePathDry, OracleNoLiquidity:
			continue
		}

		if result.Delivered.Compare(minDelivered) < 0 {
			continue
		}

		ranked = append(ranked, rankedPath{
			path: path,
			rank: PathRank{
				Quality:   result.Quality,
				Length:    len(path),
				Delivered: result.Delivered,
				Index:     index,
			},
		})

		remaining = remaining.Sub(result.Delivered)
		if remaining.IsNegative() {
			remaining = zeroLike(remaining)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].rank.Less(ranked[j].rank)
	})

	return ranked, nil
}

// defaultPathIndex is the sentinel PathRank.Index the default-path probe
// uses, distinguishing it from any real index into the complete slice
// (which starts at 0).
const defaultPathIndex = -1

// probeDefaultPath evaluates the trivial direct srcAccount->dstAccount
// transfer through oracle, honoring OracleRequest.AddDefaultPath so a
// flowOracle backed by payment.RippleCalculate runs it the same way
// rippled's own "default path" always does. It reports nil, remaining, nil
// when the probe is not viable, leaving remaining untouched.
func probeDefaultPath(ctx context.Context, oracle SettlementOracle, req PathRequest, srcIssue, dstIssue Issue, remaining payment.EitherAmount) (*rankedPath, payment.EitherAmount, error) {
	defaultPath := Path{AccountHop(req.SrcAccount, srcIssue), AccountHop(req.DstAccount, dstIssue)}

	result, err := oracle.RippleCalculate(ctx, OracleRequest{
		SrcAccount:     req.SrcAccount,
		DstAccount:     req.DstAccount,
		DstAmount:      remaining,
		Path:           defaultPath,
		AddDefaultPath: true,
	})
	if err != nil {
		return nil, remaining, err
	}

	switch result.Status {
	case OracleFatal:
		return nil, remaining, &PathfindError{Kind: ErrSnapshotLost, Message: "settlement oracle reported a fatal error"}
	case OracleTemporary, OraclePathDry, OracleNoLiquidity:
		return nil, remaining, nil
	}
	if result.Delivered.IsEffectivelyZero() {
		return nil, remaining, nil
	}

	rank := rankedPath{
		path: defaultPath,
		rank: PathRank{
			Quality:   result.Quality,
			Length:    len(defaultPath),
			Delivered: result.Delivered,
			Index:     defaultPathIndex,
		},
	}

	remaining = remaining.Sub(result.Delivered)
	if remaining.IsNegative() {
		remaining = zeroLike(remaining)
	}

	return &rank, remaining, nil
}

func zeroLike(amt payment.EitherAmount) payment.EitherAmount {
	if amt.IsNative {
		return payment.ZeroXRPEitherAmount()
	}
	return payment.ZeroIOUEitherAmount(amt.IOU.Currency, amt.IOU.Issuer)
}

// BestPathsResult is the output of Pathfinder.BestPaths.
type BestPathsResult struct {
	// Paths is the primary, up-to-maxPaths selection.
	Paths []Path

	// ExtraPaths holds any further qualifying candidates beyond maxPaths.
	ExtraPaths []Path

	// FullLiquidityPath, if non-nil, is a single path disjoint from Paths
	// whose delivered amount alone would satisfy the deficit left after
	// Paths, per spec.md section 9's disjointness resolution.
	FullLiquidityPath *Path
}

// bestPaths implements best_paths: walk the sorted ranks, respecting an
// optional required source issuer, accumulate up to maxPaths until the
// destination amount is covered, and otherwise look for one single path
// that alone would cover the deficit.
func bestPaths(ranked []rankedPath, maxPaths int, dstAmount payment.EitherAmount, srcIssuer *Issue) BestPathsResult {
	var result BestPathsResult
	used := make(map[int]bool)

	delivered := zeroLike(dstAmount)

	for _, rp := range ranked {
		if len(result.Paths) >= maxPaths {
			break
		}
		if srcIssuer != nil && !firstHopIssuerMatches(rp.path, *srcIssuer) {
			continue
		}

		result.Paths = append(result.Paths, rp.path)
		used[rp.rank.Index] = true
		delivered = delivered.Add(rp.rank.Delivered)

		if delivered.Compare(dstAmount) >= 0 {
			break
		}
	}

	deficit := dstAmount.Sub(delivered)
	if deficit.IsNegative() {
		deficit = zeroLike(dstAmount)
	}

	if !deficit.IsEffectivelyZero() {
		for _, rp := range ranked {
			if used[rp.rank.Index] {
				continue
			}
			if srcIssuer != nil && !firstHopIssuerMatches(rp.path, *srcIssuer) {
				continue
			}
			if rp.rank.Delivered.Compare(deficit) >= 0 {
				p := rp.path
				result.FullLiquidityPath = &p
				used[rp.rank.Index] = true
				break
			}
		}
	}

	for _, rp := range ranked {
		if used[rp.rank.Index] {
			continue
		}
		if srcIssuer != nil && !firstHopIssuerMatches(rp.path, *srcIssuer) {
			continue
		}
		result.ExtraPaths = append(result.ExtraPaths, rp.path)
	}

	return result
}

// firstHopIssuerMatches reports whether path's own first hop issues from
// wanted. A book hop has no issuer of its own to check against, so it is
// never excluded by this filter.
func firstHopIssuerMatches(path Path, wanted Issue) bool {
	if len(path) == 0 {
		return true
	}
	if path[0].IsBook {
		return true
	}
	return path[0].Issue.Issuer == wanted.Issuer
}
