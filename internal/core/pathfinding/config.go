package pathfinding

import "github.com/ledgerflow/pathd/internal/config"

// SearchLevelFromConfig derives the search level a Pathfinder should run at
// from the node's configured aggressiveness, per spec.md section 6. fast
// selects the lighter level used for a quick first pass (e.g. before
// streaming a slower, deeper result over a subscription).
func SearchLevelFromConfig(cfg *config.Config, fast bool) int {
	if cfg == nil {
		return 0
	}
	if fast {
		return cfg.PathSearchFast
	}
	if cfg.PathSearch > cfg.PathSearchMax {
		return cfg.PathSearchMax
	}
	return cfg.PathSearch
}
