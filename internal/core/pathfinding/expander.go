package pathfinding

import "context"

// branchCap bounds how many trust-line extensions addAccountLinks emits for
// one (currency, account) cell. The true rippled-equivalent score is an
// opaque, ledger-derived fan-out budget; lacking its formula, this spec
// treats it as a tunable constant scaled up for the account/currency a path
// is converging toward, per spec.md section 9's open-question resolution.
const (
	defaultBranchCap = 3
	destBranchCap    = 8
)

type pathsOutKey struct {
	currency string
	account  Account
}

// expander implements add_link/addLinks: given a partial path and a flag
// set, it emits every permissible one-hop extension.
type expander struct {
	view     LedgerView
	cache    *LineCache
	req      PathRequest
	dstIssue Issue

	pathsOutCache map[pathsOutKey]int
}

func newExpander(view LedgerView, cache *LineCache, req PathRequest, dstIssue Issue) *expander {
	return &expander{
		view:          view,
		cache:         cache,
		req:           req,
		dstIssue:      dstIssue,
		pathsOutCache: make(map[pathsOutKey]int),
	}
}

// addLinks expands every path in currentPaths via addLink, accumulating the
// extensions in a single returned slice.
func (e *expander) addLinks(ctx context.Context, currentPaths []Path, flags ExpandFlags) ([]Path, error) {
	var out []Path
	for _, p := range currentPaths {
		ext, err := e.addLink(ctx, p, flags)
		if err != nil {
			return nil, err
		}
		out = append(out, ext...)
	}
	return out, nil
}

// addLink emits zero or more extensions of current permitted by flags.
func (e *expander) addLink(ctx context.Context, current Path, flags ExpandFlags) ([]Path, error) {
	var out []Path

	if flags&AddAccounts != 0 {
		ext, err := e.addAccountLinks(ctx, current, flags)
		if err != nil {
			return nil, err
		}
		out = append(out, ext...)
	}

	if flags&AddBooks != 0 {
		ext, err := e.addBookLinks(ctx, current, flags)
		if err != nil {
			return nil, err
		}
		out = append(out, ext...)
	}

	return out, nil
}

func (e *expander) fromAccount(current Path) Account {
	if acct, ok := current.lastAccount(); ok {
		return acct
	}
	return e.req.SrcAccount
}

func (e *expander) addAccountLinks(ctx context.Context, current Path, flags ExpandFlags) ([]Path, error) {
	blocked, err := e.isNoRippleOut(ctx, current)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, nil
	}

	fromAcct := e.fromAccount(current)
	issue := current.lastIssue()

	lines, err := e.cache.LinesOut(ctx, e.view, fromAcct)
	if err != nil {
		return nil, err
	}

	isDestCurrency := issue.Currency == e.dstIssue.Currency
	cap := e.pathsOut(issue.Currency, fromAcct, isDestCurrency, e.req.DstAccount)

	var out []Path
	emitted := 0
	for _, line := range lines {
		if emitted >= cap {
			break
		}
		if line.Currency != issue.Currency {
			continue
		}
		if flags&ACLast != 0 && line.Peer != e.req.DstAccount {
			continue
		}
		if current.visitedAccount(line.Peer) {
			continue
		}

		next := current.clone()
		next = append(next, AccountHop(line.Peer, issue))
		out = append(out, next)
		emitted++
	}
	return out, nil
}

func (e *expander) addBookLinks(ctx context.Context, current Path, flags ExpandFlags) ([]Path, error) {
	issueIn := current.lastIssue()

	outs, err := e.view.BooksFor(ctx, issueIn)
	if err != nil {
		return nil, err
	}

	var out []Path
	for _, issueOut := range outs {
		if issueOut == issueIn {
			continue
		}
		if flags&OBNative != 0 && !issueOut.IsXRP() {
			continue
		}
		if flags&OBLast != 0 && issueOut != e.dstIssue {
			continue
		}
		if e.issueMatchesOrigin(issueOut) {
			continue
		}

		next := current.clone()
		next = append(next, BookHop(issueOut))
		out = append(out, next)
	}
	return out, nil
}

// issueMatchesOrigin prevents a book hop from landing back on an Issue
// issued by the source account, which would only produce a trivial loop.
func (e *expander) issueMatchesOrigin(y Issue) bool {
	if y.IsXRP() {
		return false
	}
	return y.Issuer == e.req.SrcAccount
}

// isNoRippleOut reports whether current ends on an account-to-account link
// whose intermediary has set no-ripple outgoing toward the link's far
// account — the strict pass-through rule from spec.md section 4.3.
func (e *expander) isNoRippleOut(ctx context.Context, current Path) (bool, error) {
	lastIdx, prevIdx := -1, -1
	for i := len(current) - 1; i >= 0; i-- {
		if current[i].IsBook {
			continue
		}
		if lastIdx == -1 {
			lastIdx = i
			continue
		}
		prevIdx = i
		break
	}
	if lastIdx == -1 || prevIdx == -1 {
		return false, nil
	}

	from := current[prevIdx].Account
	to := current[lastIdx].Account
	currency := current[lastIdx].Issue.Currency
	return e.isNoRipple(ctx, from, to, currency)
}

func (e *expander) isNoRipple(ctx context.Context, from, to Account, currency string) (bool, error) {
	lines, err := e.cache.LinesOut(ctx, e.view, to)
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if line.Peer == from && line.Currency == currency {
			return line.NoRipple, nil
		}
	}
	return false, nil
}

// pathsOut returns the cached branching budget for one (currency, account)
// cell, computing and installing it on first use.
func (e *expander) pathsOut(currency string, account Account, isDestCurrency bool, dest Account) int {
	key := pathsOutKey{currency: currency, account: account}
	if v, ok := e.pathsOutCache[key]; ok {
		return v
	}

	cap := defaultBranchCap
	if isDestCurrency || account == dest {
		cap = destBranchCap
	}
	e.pathsOutCache[key] = cap
	return cap
}
