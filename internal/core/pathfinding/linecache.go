package pathfinding

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LineCache memoizes LedgerView.TrustLinesOut lookups for one snapshot.
// Trust lines never change for the lifetime of the snapshot a Pathfinder
// runs against, so entries are installed once and kept for the cache's
// whole lifetime: there is no eviction, unlike a request-spanning cache.
//
// singleflight.Group gives the "first lookup performs a single ledger
// query and installs the result; concurrent readers of a miss serialize
// on exactly one fetch" contract for free.
type LineCache struct {
	group   singleflight.Group
	results sync.Map // Account -> []TrustLine
}

// NewLineCache creates an empty LineCache.
func NewLineCache() *LineCache {
	return &LineCache{}
}

// LinesOut returns the trust lines originating at acct, fetching and
// installing them via view on the first call and serving every
// subsequent call (concurrent or not) from the installed result.
func (c *LineCache) LinesOut(ctx context.Context, view LedgerView, acct Account) ([]TrustLine, error) {
	if cached, ok := c.results.Load(acct); ok {
		return cached.([]TrustLine), nil
	}

	key := string(acct[:])
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if cached, ok := c.results.Load(acct); ok {
			return cached.([]TrustLine), nil
		}
		lines, err := view.TrustLinesOut(ctx, acct)
		if err != nil {
			return nil, err
		}
		c.results.Store(acct, lines)
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]TrustLine), nil
}
