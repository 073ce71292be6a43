package genesis

import (
	"encoding/binary"

	addresscodec "github.com/ledgerflow/pathd/internal/codec/address-codec"
	"github.com/ledgerflow/pathd/internal/core/XRPAmount"
	"github.com/ledgerflow/pathd/internal/core/ledger/header"
	"github.com/ledgerflow/pathd/internal/core/shamap"
	crypto "github.com/ledgerflow/pathd/internal/crypto/common"
)

// GenesisLedgerSequence is the index of the first ledger a standalone node
// (or a fresh chain) starts from.
const GenesisLedgerSequence uint = 1

// genesisXRP is the total XRP the genesis account is seeded with, matching
// rippled's 100 billion XRP total supply.
const genesisXRP = 100_000_000_000

// InitialXRP is genesisXRP expressed in drops.
const InitialXRP uint64 = genesisXRP * uint64(XRPAmount.DropsPerXRP)

// genesisAddress is rippled's well-known genesis account, derived from the
// master passphrase "masterpassphrase". It is not a secret: every rippled
// standalone network starts every unit of XRP here.
const genesisAddress = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"

// Config controls how Create builds the genesis ledger.
type Config struct {
	// Fees is the fee schedule to install. Zero value falls back to
	// StandardFees.
	Fees XRPAmount.Fees

	// UseModernFees selects whether a FeeSettings ledger entry (the
	// post-XRPFees-amendment representation) is written alongside the
	// genesis account, versus leaving fees implicit in the header alone.
	UseModernFees bool

	// Amendments lists amendment hashes to treat as already enabled from
	// ledger 1 onward, for tests that need a feature live from genesis.
	Amendments [][32]byte
}

// DefaultConfig returns the configuration a standalone node starts with.
func DefaultConfig() Config {
	return Config{
		Fees:          StandardFees(),
		UseModernFees: true,
	}
}

// StandardFees returns rippled's default fee schedule: a 10-drop base fee,
// a 10 XRP owner reserve, and a 2 XRP per-object increment.
func StandardFees() XRPAmount.Fees {
	return XRPAmount.Fees{
		Base:      XRPAmount.NewXRPAmount(10),
		Reserve:   XRPAmount.DropsPerXRP * 10,
		Increment: XRPAmount.DropsPerXRP * 2,
	}
}

// Result is the genesis ledger's header plus its two seeded maps.
type Result struct {
	Header         header.LedgerHeader
	StateMap       *shamap.SHAMap
	TxMap          *shamap.SHAMap
	GenesisAddress string
}

// GenerateGenesisAccountID returns the well-known genesis account's ID and
// classic address.
func GenerateGenesisAccountID() ([20]byte, string, error) {
	var accountID [20]byte
	_, payload, err := addresscodec.DecodeClassicAddressToAccountID(genesisAddress)
	if err != nil {
		return accountID, "", err
	}
	copy(accountID[:], payload)
	return accountID, genesisAddress, nil
}

// Create builds ledger 1: an empty transaction map and a state map holding
// a single AccountRoot-shaped entry for the genesis account, seeded with
// the network's entire starting XRP supply. When cfg.UseModernFees is set,
// a FeeSettings-shaped entry carrying cfg.Fees is written alongside it.
func Create(cfg Config) (*Result, error) {
	if cfg.Fees == (XRPAmount.Fees{}) {
		cfg.Fees = StandardFees()
	}

	accountID, address, err := GenerateGenesisAccountID()
	if err != nil {
		return nil, err
	}

	stateMap, err := shamap.New(shamap.TypeState)
	if err != nil {
		return nil, err
	}
	txMap, err := shamap.New(shamap.TypeTransaction)
	if err != nil {
		return nil, err
	}

	accountKey := crypto.Sha512Half(accountID[:])
	if err := stateMap.Put(accountKey, encodeGenesisAccountRoot(accountID, InitialXRP)); err != nil {
		return nil, err
	}

	if cfg.UseModernFees {
		feeKey := crypto.Sha512Half([]byte("fee-settings"))
		if err := stateMap.Put(feeKey, encodeGenesisFeeSettings(cfg.Fees)); err != nil {
			return nil, err
		}
	}

	stateHash, err := stateMap.Hash()
	if err != nil {
		return nil, err
	}
	txHash, err := txMap.Hash()
	if err != nil {
		return nil, err
	}

	hdr := header.LedgerHeader{
		LedgerIndex: GenesisLedgerSequence,
		AccountHash: stateHash,
		TxHash:      txHash,
		Drops:       InitialXRP,
		Validated:   false,
		Accepted:    true,
	}
	hdr.Hash = CalculateLedgerHash(hdr)

	stateMap.SetImmutable()
	txMap.SetImmutable()

	return &Result{
		Header:         hdr,
		StateMap:       stateMap,
		TxMap:          txMap,
		GenesisAddress: address,
	}, nil
}

// CalculateLedgerHash hashes the fields that make a ledger header unique:
// sequence, drops, the three tree/parent hashes, close time bookkeeping,
// and the close flags.
func CalculateLedgerHash(hdr header.LedgerHeader) [32]byte {
	buf := make([]byte, 0, 128)
	var b8 [8]byte
	binary.BigEndian.PutUint64(b8[:], uint64(hdr.LedgerIndex))
	buf = append(buf, b8[:]...)
	binary.BigEndian.PutUint64(b8[:], hdr.Drops)
	buf = append(buf, b8[:]...)
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
	return crypto.Sha512Half(buf)
}

// encodeGenesisAccountRoot builds a minimal AccountRoot-shaped blob: an
// 0x0061 ledger entry type prefix (rippled's AccountRoot code) followed by
// the account ID and its starting balance. It carries enough information
// for callers that only need the account ID and balance back out; it is
// not rippled's full field-coded AccountRoot serialization.
func encodeGenesisAccountRoot(accountID [20]byte, balanceDrops uint64) []byte {
	buf := make([]byte, 0, 32)
	buf = append(buf, 0x00, 0x61)
	buf = append(buf, accountID[:]...)
	var b8 [8]byte
	binary.BigEndian.PutUint64(b8[:], balanceDrops)
	buf = append(buf, b8[:]...)
	return buf
}

// encodeGenesisFeeSettings builds a minimal FeeSettings-shaped blob: an
// 0x0073 ledger entry type prefix (rippled's FeeSettings code) followed by
// the base fee, reserve base, and reserve increment.
func encodeGenesisFeeSettings(fees XRPAmount.Fees) []byte {
	buf := make([]byte, 0, 26)
	buf = append(buf, 0x00, 0x73)
	var b8 [8]byte
	binary.BigEndian.PutUint64(b8[:], uint64(fees.Base))
	buf = append(buf, b8[:]...)
	binary.BigEndian.PutUint64(b8[:], uint64(fees.Reserve))
	buf = append(buf, b8[:]...)
	binary.BigEndian.PutUint64(b8[:], uint64(fees.Increment))
	buf = append(buf, b8[:]...)
	return buf
}
