package pathfinding

import "testing"

func TestLoadEventRegistrar_RecordsOnRelease(t *testing.T) {
	r := NewLoadEventRegistrar()
	h := r.Acquire("FindPaths")
	h.Release()

	count, _ := r.Snapshot("FindPaths")
	if count != 1 {
		t.Errorf("Snapshot count = %d, want 1 after a single Acquire/Release", count)
	}
}

func TestLoadEventRegistrar_ReleaseIsIdempotent(t *testing.T) {
	r := NewLoadEventRegistrar()
	h := r.Acquire("ComputeRanks")
	h.Release()
	h.Release()
	h.Release()

	count, _ := r.Snapshot("ComputeRanks")
	if count != 1 {
		t.Errorf("Snapshot count = %d, want 1 regardless of how many times Release is called", count)
	}
}

func TestLoadEventRegistrar_TracksNamesIndependently(t *testing.T) {
	r := NewLoadEventRegistrar()
	r.Acquire("FindPaths").Release()
	r.Acquire("FindPaths").Release()
	r.Acquire("ComputeRanks").Release()

	findCount, _ := r.Snapshot("FindPaths")
	rankCount, _ := r.Snapshot("ComputeRanks")
	if findCount != 2 {
		t.Errorf("FindPaths count = %d, want 2", findCount)
	}
	if rankCount != 1 {
		t.Errorf("ComputeRanks count = %d, want 1", rankCount)
	}
}

func TestLoadEventRegistrar_SnapshotOfUnknownNameIsZero(t *testing.T) {
	r := NewLoadEventRegistrar()
	count, duration := r.Snapshot("NeverAcquired")
	if count != 0 || duration != 0 {
		t.Errorf("Snapshot of an unacquired name = (%d, %v), want (0, 0)", count, duration)
	}
}
