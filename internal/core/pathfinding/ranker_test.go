package pathfinding

import (
	"context"
	"errors"
	"testing"

	"github.com/ledgerflow/pathd/internal/core/tx/payment"
)

func scripted(results ...OracleResult) *fakeOracle {
	i := 0
	return &fakeOracle{fn: func(req OracleRequest) (OracleResult, error) {
		r := results[i]
		i++
		return r, nil
	}}
}

func TestComputeRanks_SkipsDryAndNoLiquidityWithoutError(t *testing.T) {
	req := PathRequest{DstAmount: xrpAmount(1000)}
	paths := []Path{{AccountHop(acct(1), NativeIssue())}, {AccountHop(acct(2), NativeIssue())}}
	oracle := scripted(
		OracleResult{Status: OraclePathDry}, // default-path probe: not viable
		OracleResult{Status: OraclePathDry},
		OracleResult{Status: OracleNoLiquidity},
	)

	ranked, err := computeRanks(context.Background(), oracle, req, NativeIssue(), NativeIssue(), paths, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("dry and no-liquidity probes must not be kept, got %d", len(ranked))
	}
}

func TestComputeRanks_FatalStatusAborts(t *testing.T) {
	req := PathRequest{DstAmount: xrpAmount(1000)}
	paths := []Path{{AccountHop(acct(1), NativeIssue())}}
	// Consumed by the default-path probe, run before any candidate in paths.
	oracle := scripted(OracleResult{Status: OracleFatal})

	_, err := computeRanks(context.Background(), oracle, req, NativeIssue(), NativeIssue(), paths, 4)
	if err == nil {
		t.Fatal("a fatal oracle status must surface as an error")
	}
	var pfErr *PathfindError
	if !errors.As(err, &pfErr) || pfErr.Kind != ErrSnapshotLost {
		t.Errorf("expected ErrSnapshotLost, got %v", err)
	}
}

func TestComputeRanks_DropsBelowMinDelivered(t *testing.T) {
	req := PathRequest{DstAmount: xrpAmount(1000)}
	paths := []Path{{AccountHop(acct(1), NativeIssue())}}
	// 1000 * keepFraction (0.01) = 10; delivering 5 must be dropped.
	oracle := scripted(
		OracleResult{Status: OraclePathDry}, // default-path probe: not viable
		OracleResult{Status: OracleSuccess, Delivered: xrpAmount(5)},
	)

	ranked, err := computeRanks(context.Background(), oracle, req, NativeIssue(), NativeIssue(), paths, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("delivery below the minimum-delivered floor must be dropped, got %d", len(ranked))
	}
}

func TestComputeRanks_StopsOnceRemainingSatisfied(t *testing.T) {
	req := PathRequest{DstAmount: xrpAmount(100)}
	paths := []Path{
		{AccountHop(acct(1), NativeIssue())},
		{AccountHop(acct(2), NativeIssue())},
	}
	calls := 0
	oracle := &fakeOracle{fn: func(req OracleRequest) (OracleResult, error) {
		calls++
		return OracleResult{Status: OracleSuccess, Delivered: xrpAmount(100)}, nil
	}}

	ranked, err := computeRanks(context.Background(), oracle, req, NativeIssue(), NativeIssue(), paths, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("got %d ranked paths, want 1 once the remaining amount is fully covered", len(ranked))
	}
	if calls != 1 {
		t.Errorf("the oracle must not be probed again once remaining reaches zero, got %d calls", calls)
	}
}

func TestComputeRanks_SortsByRank(t *testing.T) {
	req := PathRequest{DstAmount: xrpAmount(10000)}
	paths := []Path{
		{AccountHop(acct(1), NativeIssue())},
		{AccountHop(acct(2), NativeIssue())},
	}
	results := []OracleResult{
		{Status: OraclePathDry}, // default-path probe: not viable
		{Status: OracleSuccess, Delivered: xrpAmount(100), Quality: payment.Quality{Value: 500}},
		{Status: OracleSuccess, Delivered: xrpAmount(100), Quality: payment.Quality{Value: 100}},
	}
	oracle := scripted(results...)

	ranked, err := computeRanks(context.Background(), oracle, req, NativeIssue(), NativeIssue(), paths, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d ranked paths, want 2", len(ranked))
	}
	if ranked[0].rank.Quality.Value != 100 {
		t.Errorf("best (lowest-value) quality must sort first, got %d", ranked[0].rank.Quality.Value)
	}
}

func TestBestPaths_PrimaryFullLiquidityAndExtraAreDisjoint(t *testing.T) {
	dst := xrpAmount(300)
	ranked := []rankedPath{
		{path: Path{AccountHop(acct(1), NativeIssue())}, rank: PathRank{Quality: payment.Quality{Value: 100}, Delivered: xrpAmount(100), Index: 0}},
		{path: Path{AccountHop(acct(2), NativeIssue())}, rank: PathRank{Quality: payment.Quality{Value: 200}, Delivered: xrpAmount(100), Index: 1}},
		{path: Path{AccountHop(acct(3), NativeIssue())}, rank: PathRank{Quality: payment.Quality{Value: 300}, Delivered: xrpAmount(300), Index: 2}},
		{path: Path{AccountHop(acct(4), NativeIssue())}, rank: PathRank{Quality: payment.Quality{Value: 400}, Delivered: xrpAmount(50), Index: 3}},
	}

	result := bestPaths(ranked, 2, dst, nil)

	if len(result.Paths) != 2 {
		t.Fatalf("got %d primary paths, want 2 (maxPaths)", len(result.Paths))
	}
	if result.FullLiquidityPath == nil {
		t.Fatal("expected a full-liquidity path covering the remaining deficit")
	}
	for _, p := range result.ExtraPaths {
		last, _ := p.lastAccount()
		if last == acct(1) || last == acct(2) || last == acct(3) {
			t.Errorf("extra path %v must be disjoint from primary and full-liquidity selections", p)
		}
	}
}

func TestBestPaths_RespectsSrcIssuerFilter(t *testing.T) {
	wantedIssuer := acct(9)
	otherIssuer := acct(8)
	wanted := NewIssue("USD", wantedIssuer)

	matching := PathElement{Account: acct(1), Issue: wanted}
	nonMatching := PathElement{Account: acct(2), Issue: NewIssue("USD", otherIssuer)}

	ranked := []rankedPath{
		{path: Path{matching}, rank: PathRank{Quality: payment.Quality{Value: 100}, Delivered: xrpAmount(100), Index: 0}},
		{path: Path{nonMatching}, rank: PathRank{Quality: payment.Quality{Value: 50}, Delivered: xrpAmount(100), Index: 1}},
	}

	result := bestPaths(ranked, 2, xrpAmount(1000), &wanted)

	if len(result.Paths) != 1 {
		t.Fatalf("got %d primary paths, want exactly the 1 whose first hop issuer matches", len(result.Paths))
	}
	if result.Paths[0][0].Account != acct(1) {
		t.Errorf("kept the wrong path: %v", result.Paths[0])
	}
}
