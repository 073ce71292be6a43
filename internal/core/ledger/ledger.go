package ledger

import (
	"encoding/binary"
	"errors"
	"time"

	crypto "github.com/ledgerflow/pathd/internal/crypto/common"

	"github.com/ledgerflow/pathd/internal/core/XRPAmount"
	"github.com/ledgerflow/pathd/internal/core/ledger/header"
	"github.com/ledgerflow/pathd/internal/core/ledger/keylet"
	"github.com/ledgerflow/pathd/internal/core/shamap"
)

// Ledger is one snapshot of network state: a state tree, a transaction
// tree, and the header summarizing both. Open ledgers accept new
// transactions; once Close is called the ledger is immutable and its
// StateMap/TxMap are sealed.
type Ledger struct {
	Immutable bool
	StateMap  *shamap.SHAMap
	TxMap     *shamap.SHAMap
	Fees      XRPAmount.Fees

	header header.LedgerHeader
}

// FromGenesis builds the genesis ledger from the maps and header the
// genesis package produced.
func FromGenesis(hdr header.LedgerHeader, stateMap, txMap *shamap.SHAMap, fees XRPAmount.Fees) *Ledger {
	l := &Ledger{
		StateMap: stateMap,
		TxMap:    txMap,
		Fees:     fees,
		header:   hdr,
	}
	l.header.Accepted = true
	l.header.Validated = true
	l.StateMap.SetImmutable()
	l.TxMap.SetImmutable()
	l.Immutable = true
	return l
}

// NewOpenWithHeader builds an open ledger from an explicit header, the shape
// internal/cli's replay tooling needs to reconstruct a ledger from a stored
// snapshot rather than from its parent.
func NewOpenWithHeader(hdr header.LedgerHeader, stateMap, txMap *shamap.SHAMap, fees XRPAmount.Fees) *Ledger {
	return &Ledger{
		StateMap: stateMap,
		TxMap:    txMap,
		Fees:     fees,
		header:   hdr,
	}
}

// NewOpen builds the next open ledger following parent: a copy of its
// current state so mutations don't leak back into the immutable parent, an
// empty transaction map, and a header advancing the sequence and parent
// hash.
func NewOpen(parent *Ledger, closeTime time.Time) (*Ledger, error) {
	if parent == nil {
		return nil, errors.New("ledger: parent must not be nil")
	}

	stateMap, err := shamap.New(shamap.TypeState)
	if err != nil {
		return nil, err
	}
	parent.StateMap.ForEach(func(item *shamap.SHAMapItem) bool {
		stateMap.Put(item.Key(), item.Data())
		return true
	})

	txMap, err := shamap.New(shamap.TypeTransaction)
	if err != nil {
		return nil, err
	}

	hdr := header.LedgerHeader{
		LedgerIndex:     parent.header.LedgerIndex + 1,
		ParentHash:      parent.Hash(),
		ParentCloseTime: parent.header.CloseTime,
		Drops:           parent.header.Drops,
		CloseTime:       closeTime,
	}

	return &Ledger{
		StateMap: stateMap,
		TxMap:    txMap,
		Fees:     parent.Fees,
		header:   hdr,
	}, nil
}

// Header returns a snapshot of the ledger's header fields.
func (l *Ledger) Header() header.LedgerHeader {
	return l.header
}

// Sequence returns the ledger index.
func (l *Ledger) Sequence() uint32 {
	return uint32(l.header.LedgerIndex)
}

// Hash returns the ledger's own hash. For a closed ledger this is the
// value fixed at Close; for a still-open ledger it is recomputed from the
// live map contents on every call.
func (l *Ledger) Hash() [32]byte {
	if l.header.Accepted {
		return l.header.Hash
	}
	stateHash, _ := l.StateMap.Hash()
	txHash, _ := l.TxMap.Hash()
	hdr := l.header
	hdr.AccountHash = stateHash
	hdr.TxHash = txHash
	return calculateHash(hdr)
}

// ParentHash returns the hash of the preceding ledger.
func (l *Ledger) ParentHash() [32]byte {
	return l.header.ParentHash
}

// CloseTime returns the time this ledger closed (or will close, if open).
func (l *Ledger) CloseTime() time.Time {
	return l.header.CloseTime
}

// TotalDrops returns the total XRP drops in existence as of this ledger.
func (l *Ledger) TotalDrops() uint64 {
	return l.header.Drops
}

// IsValidated reports whether the network has validated this ledger.
func (l *Ledger) IsValidated() bool {
	return l.header.Validated
}

// IsClosed reports whether this ledger's transaction set is final.
func (l *Ledger) IsClosed() bool {
	return l.header.Accepted
}

// SetValidated marks the ledger validated. The error return exists to
// match the rest of the ledger lifecycle calls it sits beside; it is
// always nil.
func (l *Ledger) SetValidated() error {
	l.header.Validated = true
	return nil
}

// Close seals the ledger's transaction set: it fixes the close time,
// freezes StateMap/TxMap against further mutation, and computes the
// header's own hash over the final map contents.
func (l *Ledger) Close(closeTime time.Time, closeTimeResolution int32) error {
	if l.header.Accepted {
		return errors.New("ledger: already closed")
	}
	l.header.Accepted = true
	l.header.CloseTime = closeTime
	l.header.CloseTimeResolution = closeTimeResolution

	stateHash, err := l.StateMap.Hash()
	if err != nil {
		return err
	}
	txHash, err := l.TxMap.Hash()
	if err != nil {
		return err
	}
	l.header.AccountHash = stateHash
	l.header.TxHash = txHash
	l.header.Hash = calculateHash(l.header)

	l.StateMap.SetImmutable()
	l.TxMap.SetImmutable()
	l.Immutable = true
	return nil
}

// StateMapHash returns the current hash of the state tree.
func (l *Ledger) StateMapHash() ([32]byte, error) {
	return l.StateMap.Hash()
}

// TxMapHash returns the current hash of the transaction tree.
func (l *Ledger) TxMapHash() ([32]byte, error) {
	return l.TxMap.Hash()
}

// SerializeHeader encodes the header as a fixed sequence of big-endian
// fields, the shape a nodestore blob for a ledger header takes.
func (l *Ledger) SerializeHeader() []byte {
	return serializeHeader(l.header)
}

// Read implements tx.LedgerView by looking up k in the state map.
func (l *Ledger) Read(k keylet.Keylet) ([]byte, error) {
	item, ok := l.StateMap.Get(k.Key)
	if !ok {
		return nil, nil
	}
	return item.Data(), nil
}

// Exists implements tx.LedgerView by checking whether k has an entry.
func (l *Ledger) Exists(k keylet.Keylet) (bool, error) {
	return l.StateMap.Has(k.Key), nil
}

// Insert implements tx.LedgerView by adding a new state entry.
func (l *Ledger) Insert(k keylet.Keylet, data []byte) error {
	return l.StateMap.Put(k.Key, data)
}

// Update implements tx.LedgerView by replacing an existing state entry.
func (l *Ledger) Update(k keylet.Keylet, data []byte) error {
	return l.StateMap.Put(k.Key, data)
}

// Erase implements tx.LedgerView by removing a state entry.
func (l *Ledger) Erase(k keylet.Keylet) error {
	return l.StateMap.Delete(k.Key)
}

// AdjustDropsDestroyed implements tx.LedgerView by accumulating fee burn
// into the header's running total.
func (l *Ledger) AdjustDropsDestroyed(drops XRPAmount.XRPAmount) {
	l.header.Drops -= uint64(drops)
}

// ForEach implements tx.LedgerView by walking every state entry.
func (l *Ledger) ForEach(fn func(key [32]byte, data []byte) bool) error {
	l.StateMap.ForEach(func(item *shamap.SHAMapItem) bool {
		return fn(item.Key(), item.Data())
	})
	return nil
}

// GetTransaction looks up a transaction by hash in the transaction map.
func (l *Ledger) GetTransaction(txHash [32]byte) ([]byte, bool, error) {
	item, ok := l.TxMap.Get(txHash)
	if !ok {
		return nil, false, nil
	}
	return item.Data(), true, nil
}

// AddTransaction records a transaction in the transaction map.
func (l *Ledger) AddTransaction(txHash [32]byte, txData []byte) error {
	return l.TxMap.Put(txHash, txData)
}

// ForEachTransaction walks every entry in the transaction map.
func (l *Ledger) ForEachTransaction(fn func(txHash [32]byte, txData []byte) bool) {
	l.TxMap.ForEach(func(item *shamap.SHAMapItem) bool {
		return fn(item.Key(), item.Data())
	})
}

// calculateHash hashes the fields that make a ledger header unique, mirroring
// genesis.CalculateLedgerHash for non-genesis ledgers.
func calculateHash(hdr header.LedgerHeader) [32]byte {
	buf := make([]byte, 0, 128)
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], uint64(hdr.LedgerIndex))
	buf = append(buf, seqBuf[:]...)
	binary.BigEndian.PutUint64(seqBuf[:], hdr.Drops)
	buf = append(buf, seqBuf[:]...)
	buf = append(buf, hdr.ParentHash[:]...)
	buf = append(buf, hdr.TxHash[:]...)
	buf = append(buf, hdr.AccountHash[:]...)
	binary.BigEndian.PutUint64(seqBuf[:], uint64(hdr.ParentCloseTime.Unix()))
	buf = append(buf, seqBuf[:]...)
	binary.BigEndian.PutUint64(seqBuf[:], uint64(hdr.CloseTime.Unix()))
	buf = append(buf, seqBuf[:]...)
	buf = append(buf, byte(hdr.CloseTimeResolution))
	binary.BigEndian.PutUint32(seqBuf[:4], hdr.CloseFlags)
	buf = append(buf, seqBuf[:4]...)
	return crypto.Sha512Half(buf)
}

// serializeHeader encodes hdr as a fixed sequence of big-endian fields.
func serializeHeader(hdr header.LedgerHeader) []byte {
	buf := make([]byte, 0, 200)
	var b8 [8]byte
	binary.BigEndian.PutUint64(b8[:], uint64(hdr.LedgerIndex))
	buf = append(buf, b8[:]...)
	binary.BigEndian.PutUint64(b8[:], hdr.Drops)
	buf = append(buf, b8[:]...)
	buf = append(buf, hdr.Hash[:]...)
	buf = append(buf, hdr.ParentHash[:]...)
	buf = append(buf, hdr.TxHash[:]...)
	buf = append(buf, hdr.AccountHash[:]...)
	binary.BigEndian.PutUint64(b8[:], uint64(hdr.ParentCloseTime.Unix()))
	buf = append(buf, b8[:]...)
	binary.BigEndian.PutUint64(b8[:], uint64(hdr.CloseTime.Unix()))
	buf = append(buf, b8[:]...)
	buf = append(buf, byte(hdr.CloseTimeResolution))
	binary.BigEndian.PutUint32(b8[:4], hdr.CloseFlags)
	buf = append(buf, b8[:4]...)
	if hdr.Validated {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}
