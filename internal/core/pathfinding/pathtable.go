package pathfinding

import "sync"

// pathTable maps PaymentType x search level to the ordered PathType
// templates findPaths should try, per spec.md section 4.4. Populated once
// by InitPathTable; thereafter read-only.
var pathTable map[PaymentType][][]PathType

var initPathTableOnce sync.Once

// InitPathTable performs the one-time initialization of the static
// (PaymentType, level) -> templates table, per spec.md section 6. It is
// safe to call more than once; only the first call has effect.
func InitPathTable() {
	initPathTableOnce.Do(buildPathTable)
}

func buildPathTable() {
	pathTable = map[PaymentType][][]PathType{
		// Native-to-native payments always settle by direct transfer; the
		// default path the ranker evaluates first (spec.md section 4.5 step
		// 2) already covers this, so no templates are needed at any level.
		PaymentNativeToNative: {
			{}, {}, {}, {},
		},

		PaymentNativeToNonNative: {
			// level 0
			{
				PathType{NodeSource, NodeDestBook, NodeDestination},
			},
			// level 1
			{
				PathType{NodeSource, NodeDestBook, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeDestBook, NodeDestination},
			},
			// level 2
			{
				PathType{NodeSource, NodeDestBook, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeDestBook, NodeDestination},
				PathType{NodeSource, NodeDestBook, NodeAccounts, NodeDestination},
			},
			// level 3
			{
				PathType{NodeSource, NodeDestBook, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeDestBook, NodeDestination},
				PathType{NodeSource, NodeDestBook, NodeAccounts, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeDestBook, NodeAccounts, NodeDestination},
			},
		},

		PaymentNonNativeToNative: {
			// level 0
			{
				PathType{NodeSource, NodeNativeBook, NodeDestination},
			},
			// level 1
			{
				PathType{NodeSource, NodeNativeBook, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeNativeBook, NodeDestination},
			},
			// level 2
			{
				PathType{NodeSource, NodeNativeBook, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeNativeBook, NodeDestination},
				PathType{NodeSource, NodeNativeBook, NodeAccounts, NodeDestination},
			},
			// level 3
			{
				PathType{NodeSource, NodeNativeBook, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeNativeBook, NodeDestination},
				PathType{NodeSource, NodeNativeBook, NodeAccounts, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeNativeBook, NodeAccounts, NodeDestination},
			},
		},

		PaymentNonNativeToSameCurrency: {
			// level 0
			{
				PathType{NodeSource, NodeAccounts, NodeDestination},
			},
			// level 1
			{
				PathType{NodeSource, NodeAccounts, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeAccounts, NodeDestination},
			},
			// level 2
			{
				PathType{NodeSource, NodeAccounts, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeAccounts, NodeDestination},
				PathType{NodeSource, NodeBooks, NodeDestination},
			},
			// level 3
			{
				PathType{NodeSource, NodeAccounts, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeAccounts, NodeDestination},
				PathType{NodeSource, NodeBooks, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeBooks, NodeAccounts, NodeDestination},
			},
		},

		PaymentNonNativeToDifferentCurrency: {
			// level 0
			{
				PathType{NodeSource, NodeBooks, NodeDestination},
			},
			// level 1
			{
				PathType{NodeSource, NodeBooks, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeBooks, NodeDestination},
			},
			// level 2
			{
				PathType{NodeSource, NodeBooks, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeBooks, NodeDestination},
				PathType{NodeSource, NodeBooks, NodeAccounts, NodeDestination},
			},
			// level 3
			{
				PathType{NodeSource, NodeBooks, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeBooks, NodeDestination},
				PathType{NodeSource, NodeBooks, NodeAccounts, NodeDestination},
				PathType{NodeSource, NodeNativeBook, NodeBooks, NodeDestination},
				PathType{NodeSource, NodeAccounts, NodeBooks, NodeAccounts, NodeDestination},
			},
		},
	}
}

// templatesFor returns the PathType templates for paymentType at level,
// clamped to the table's highest defined level so that higher levels are
// always a superset of lower ones (spec.md section 8 monotonicity).
func templatesFor(paymentType PaymentType, level int) []PathType {
	InitPathTable()

	levels := pathTable[paymentType]
	if len(levels) == 0 {
		return nil
	}
	if level < 0 {
		level = 0
	}
	if level >= len(levels) {
		level = len(levels) - 1
	}
	return levels[level]
}
