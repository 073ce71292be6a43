package header

import (
	"time"
)

// Ledger close flags
const sLCFNoConsensusTime uint32 = 0x01

// LedgerHeader is the fixed-size summary of a ledger: its hashes, sequence,
// close time, and validation state. Fields are exported directly; callers
// throughout internal/core/ledger/service and internal/cli build RPC-facing
// DTOs and replay snapshots straight out of these values.
type LedgerHeader struct {
	LedgerIndex     uint
	ParentCloseTime time.Time

	//
	// For closed ledgers
	//

	Hash        [32]byte
	TxHash      [32]byte
	AccountHash [32]byte
	ParentHash  [32]byte
	Drops       uint64 //TODO ADD XRPAMOUNT TYPE

	// If Validated is false, it means "not yet validated."
	// Once Validated is true, it will never be set false at a later time.
	Validated bool
	Accepted  bool

	// flags indicating how this ledger close took place
	CloseFlags uint32

	// the resolution for this ledger close time (2-120 seconds)
	CloseTimeResolution int32

	// For closed ledgers, the time the ledger
	// closed. For open ledgers, the time the ledger
	// will close if there's no transactions.
	CloseTime time.Time
}

// GetCloseAgree returns true if there was consensus on the close time
func (h *LedgerHeader) GetCloseAgree() bool {
	return (h.CloseFlags & sLCFNoConsensusTime) == 0
}

// DeserializeHeader Deserialize a ledger header from a byte array. */
func DeserializeHeader(Slice []byte, hasHash bool) (*LedgerHeader, error) {
	return nil, nil
}

// DeserializePrefixedHeader Deserialize a ledger header (prefixed with 4 bytes) from a byte array. */
func DeserializePrefixedHeader(Slice []byte, hasHash bool) (*LedgerHeader, error) {
	return nil, nil
}
