package postgres

import (
	"github.com/ledgerflow/pathd/internal/storage/relationaldb"
	"github.com/ledgerflow/pathd/testutils"
)

func init() {
	// Register the PostgreSQL repository manager factory with testutils
	testutils.RegisterRepositoryFactory("postgres", func(config *relationaldb.Config) (relationaldb.RepositoryManager, error) {
		return NewRepositoryManager(config)
	})
}