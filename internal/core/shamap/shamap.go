package shamap

import (
	"errors"
	"sort"
	"sync"

	crypto "github.com/ledgerflow/pathd/internal/crypto/common"
)

// Type distinguishes the two SHAMap roles a Ledger carries: the state tree
// (one entry per ledger object) and the transaction tree (one entry per
// transaction plus metadata).
type Type int

const (
	TypeState Type = iota
	TypeTransaction
)

// ErrImmutable is returned by any mutating call against a SHAMap that has
// been sealed with SetImmutable, mirroring rippled's read-only ledger
// snapshots.
var ErrImmutable = errors.New("shamap: map is immutable")

// SHAMap is a keyed collection of items addressed by a 256-bit hash, the
// role rippled's Merkle-ized radix tree plays for a Ledger's state and
// transaction trees. Path discovery only ever needs point lookups and a
// full scan over one fixed, already-validated snapshot — never mutation,
// proof generation, or peer-to-peer sync — so this keeps that read
// surface and drops the tree's Merkle bookkeeping.
type SHAMap struct {
	mu        sync.RWMutex
	typ       Type
	items     map[[32]byte]*SHAMapItem
	immutable bool
}

// New constructs an empty, mutable SHAMap of the given type.
func New(typ Type) (*SHAMap, error) {
	return &SHAMap{typ: typ, items: make(map[[32]byte]*SHAMapItem)}, nil
}

// Type reports whether this map holds ledger state or transactions.
func (sm *SHAMap) Type() Type {
	return sm.typ
}

// SetImmutable seals the map against further Put/Delete calls, the state a
// Pathfinder's fixed ledger snapshot is always handed in.
func (sm *SHAMap) SetImmutable() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.immutable = true
}

// Get returns the item stored at key, if any.
func (sm *SHAMap) Get(key [32]byte) (*SHAMapItem, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	item, ok := sm.items[key]
	return item, ok
}

// Has reports whether key is present.
func (sm *SHAMap) Has(key [32]byte) bool {
	_, ok := sm.Get(key)
	return ok
}

// Put installs data under key, replacing any existing item there.
func (sm *SHAMap) Put(key [32]byte, data []byte) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.immutable {
		return ErrImmutable
	}
	sm.items[key] = NewSHAMapItem(key, data)
	return nil
}

// Delete removes the item stored at key, if any.
func (sm *SHAMap) Delete(key [32]byte) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.immutable {
		return ErrImmutable
	}
	delete(sm.items, key)
	return nil
}

// Len reports how many items the map currently holds.
func (sm *SHAMap) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.items)
}

// ForEach walks every item in ascending key order, stopping early the first
// time fn returns false. Snapshotting the key list up front means fn may
// safely call back into the map (e.g. via Get) without deadlocking.
func (sm *SHAMap) ForEach(fn func(item *SHAMapItem) bool) {
	sm.mu.RLock()
	keys := make([][32]byte, 0, len(sm.items))
	items := make(map[[32]byte]*SHAMapItem, len(sm.items))
	for k, v := range sm.items {
		keys = append(keys, k)
		items[k] = v
	}
	sm.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return lessKey(keys[i], keys[j])
	})
	for _, k := range keys {
		if !fn(items[k]) {
			return
		}
	}
}

// Hash returns the SHA512-Half of every item's data, concatenated in
// ascending key order. This is not rippled's Merkle tree hash (there is no
// tree here to hash), but it is a real, order-independent-input,
// order-dependent-output content hash suitable for detecting whether two
// snapshots of the same map type hold identical data. The error return
// exists to mirror the ledger entry hashers this map ultimately backs; it is
// always nil.
func (sm *SHAMap) Hash() ([32]byte, error) {
	sm.mu.RLock()
	keys := make([][32]byte, 0, len(sm.items))
	items := make(map[[32]byte]*SHAMapItem, len(sm.items))
	for k, v := range sm.items {
		keys = append(keys, k)
		items[k] = v
	}
	sm.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return lessKey(keys[i], keys[j])
	})

	var buf []byte
	for _, k := range keys {
		buf = append(buf, k[:]...)
		buf = append(buf, items[k].Data()...)
	}
	return crypto.Sha512Half(buf), nil
}

func lessKey(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
