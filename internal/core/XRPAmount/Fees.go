package XRPAmount

// Fees holds the fee schedule in force for a ledger: the base transaction
// fee and the owner reserve (base plus a per-object increment).
type Fees struct {
	Base      XRPAmount
	Reserve   XRPAmount
	Increment XRPAmount
}

func (f *Fees) AccountReserve(ownerSize int64) XRPAmount {
	return f.Reserve + f.Increment.Mul(ownerSize)
}
