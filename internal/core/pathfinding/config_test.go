package pathfinding

import (
	"testing"

	"github.com/ledgerflow/pathd/internal/config"
)

func TestSearchLevelFromConfig_NilConfig(t *testing.T) {
	if got := SearchLevelFromConfig(nil, false); got != 0 {
		t.Errorf("nil config should fall back to level 0, got %d", got)
	}
}

func TestSearchLevelFromConfig_Fast(t *testing.T) {
	cfg := &config.Config{PathSearchFast: 1, PathSearch: 3, PathSearchMax: 3}
	if got := SearchLevelFromConfig(cfg, true); got != 1 {
		t.Errorf("fast=true should use PathSearchFast (1), got %d", got)
	}
}

func TestSearchLevelFromConfig_ClampsToMax(t *testing.T) {
	cfg := &config.Config{PathSearch: 5, PathSearchMax: 3}
	if got := SearchLevelFromConfig(cfg, false); got != 3 {
		t.Errorf("PathSearch above PathSearchMax should clamp to PathSearchMax (3), got %d", got)
	}
}

func TestSearchLevelFromConfig_UsesPathSearchWithinBounds(t *testing.T) {
	cfg := &config.Config{PathSearch: 2, PathSearchMax: 3}
	if got := SearchLevelFromConfig(cfg, false); got != 2 {
		t.Errorf("PathSearch within PathSearchMax should pass through unchanged, got %d", got)
	}
}
