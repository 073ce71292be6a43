package genesis

import (
	"testing"

	"github.com/ledgerflow/pathd/internal/core/XRPAmount"
)

func TestGenerateGenesisAccountID(t *testing.T) {
	accountID, address, err := GenerateGenesisAccountID()
	if err != nil {
		t.Fatalf("GenerateGenesisAccountID failed: %v", err)
	}

	// The well-known genesis account address
	expectedAddress := "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"

	if address != expectedAddress {
		t.Errorf("Genesis address mismatch: got %s, expected %s", address, expectedAddress)
	}

	// Account ID should be 20 bytes, not all zeros
	if accountID == [20]byte{} {
		t.Error("Genesis account ID should not be empty")
	}

	t.Logf("Genesis account: %s", address)
	t.Logf("Genesis account ID: %x", accountID)
}

func TestCreateGenesisLedger(t *testing.T) {
	cfg := DefaultConfig()
	genesisResult, err := Create(cfg)
	if err != nil {
		t.Fatalf("Create genesis failed: %v", err)
	}

	// Verify genesis ledger properties
	if genesisResult.Header.LedgerIndex != GenesisLedgerSequence {
		t.Errorf("Genesis ledger sequence mismatch: got %d, expected %d",
			genesisResult.Header.LedgerIndex, GenesisLedgerSequence)
	}

	if genesisResult.Header.Drops != InitialXRP {
		t.Errorf("Genesis XRP mismatch: got %d, expected %d",
			genesisResult.Header.Drops, InitialXRP)
	}

	// Parent hash should be all zeros
	if genesisResult.Header.ParentHash != [32]byte{} {
		t.Error("Genesis parent hash should be all zeros")
	}

	// Ledger hash should not be empty
	if genesisResult.Header.Hash == [32]byte{} {
		t.Error("Genesis ledger hash should not be empty")
	}

	// State map hash should not be empty
	stateHash, err := genesisResult.StateMap.Hash()
	if err != nil {
		t.Fatalf("Failed to get state map hash: %v", err)
	}
	if stateHash == [32]byte{} {
		t.Error("Genesis state map hash should not be empty")
	}

	// Verify the state hash matches header
	if genesisResult.Header.AccountHash != stateHash {
		t.Error("Account hash in header should match state map hash")
	}

	// Genesis account should be the well-known address
	expectedAddress := "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	if genesisResult.GenesisAddress != expectedAddress {
		t.Errorf("Genesis address mismatch: got %s, expected %s",
			genesisResult.GenesisAddress, expectedAddress)
	}

	t.Logf("Genesis ledger hash: %x", genesisResult.Header.Hash)
	t.Logf("Genesis account hash: %x", genesisResult.Header.AccountHash)
	t.Logf("Genesis tx hash: %x", genesisResult.Header.TxHash)
	t.Logf("Genesis account: %s", genesisResult.GenesisAddress)
}

func TestCreateGenesisLedgerWithAmendments(t *testing.T) {
	cfg := DefaultConfig()

	// Add a fake amendment hash
	fakeAmendment := [32]byte{1, 2, 3, 4}
	cfg.Amendments = [][32]byte{fakeAmendment}

	genesisResult, err := Create(cfg)
	if err != nil {
		t.Fatalf("Create genesis with amendments failed: %v", err)
	}

	// Genesis should still be valid
	if genesisResult.Header.LedgerIndex != GenesisLedgerSequence {
		t.Errorf("Genesis ledger sequence mismatch: got %d, expected %d",
			genesisResult.Header.LedgerIndex, GenesisLedgerSequence)
	}

	t.Logf("Genesis with amendments created successfully")
}

func TestCreateGenesisLedgerLegacyFees(t *testing.T) {
	cfg := Config{
		Fees:          StandardFees(),
		UseModernFees: false, // Use legacy fee format
		Amendments:    nil,
	}

	genesisResult, err := Create(cfg)
	if err != nil {
		t.Fatalf("Create genesis with legacy fees failed: %v", err)
	}

	if genesisResult.Header.Drops != InitialXRP {
		t.Errorf("Genesis XRP mismatch: got %d, expected %d",
			genesisResult.Header.Drops, InitialXRP)
	}

	t.Logf("Genesis with legacy fees created successfully")
}

func TestStandardFees(t *testing.T) {
	fees := StandardFees()

	expectedBase := XRPAmount.NewXRPAmount(10)
	expectedReserve := XRPAmount.DropsPerXRP * 10
	expectedIncrement := XRPAmount.DropsPerXRP * 2

	if fees.Base != expectedBase {
		t.Errorf("Base fee mismatch: got %d, expected %d", fees.Base, expectedBase)
	}

	if fees.Reserve != expectedReserve {
		t.Errorf("Reserve mismatch: got %d, expected %d", fees.Reserve, expectedReserve)
	}

	if fees.Increment != expectedIncrement {
		t.Errorf("Increment mismatch: got %d, expected %d",
			fees.Increment, expectedIncrement)
	}
}

func TestCalculateLedgerHash(t *testing.T) {
	cfg := DefaultConfig()
	genesisResult, err := Create(cfg)
	if err != nil {
		t.Fatalf("Create genesis failed: %v", err)
	}

	// Recalculate hash
	recalculatedHash := CalculateLedgerHash(genesisResult.Header)

	if recalculatedHash != genesisResult.Header.Hash {
		t.Errorf("Recalculated hash mismatch: got %x, expected %x",
			recalculatedHash, genesisResult.Header.Hash)
	}
}
