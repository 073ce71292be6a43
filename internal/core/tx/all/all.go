// Package all imports all transaction sub-packages to trigger their init() registrations.
// Import this package in the main application to ensure all transaction types are registered.
package all

import (
	_ "github.com/ledgerflow/pathd/internal/core/tx/amm"
	_ "github.com/ledgerflow/pathd/internal/core/tx/check"
	_ "github.com/ledgerflow/pathd/internal/core/tx/credential"
	_ "github.com/ledgerflow/pathd/internal/core/tx/did"
	_ "github.com/ledgerflow/pathd/internal/core/tx/escrow"
	_ "github.com/ledgerflow/pathd/internal/core/tx/mpt"
	_ "github.com/ledgerflow/pathd/internal/core/tx/nftoken"
	_ "github.com/ledgerflow/pathd/internal/core/tx/offer"
	_ "github.com/ledgerflow/pathd/internal/core/tx/oracle"
	//_ "github.com/ledgerflow/pathd/internal/core/tx/paychan"
	_ "github.com/ledgerflow/pathd/internal/core/tx/payment"
	_ "github.com/ledgerflow/pathd/internal/core/tx/permissioneddomain"
	_ "github.com/ledgerflow/pathd/internal/core/tx/trustset"
	_ "github.com/ledgerflow/pathd/internal/core/tx/vault"
)
