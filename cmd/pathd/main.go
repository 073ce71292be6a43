package main

import (
	"github.com/ledgerflow/pathd/internal/cli"
)

func main() {
	cli.Execute()
}
