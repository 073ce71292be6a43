package pathfinding

import "fmt"

// ErrorKind classifies a PathfindError onto the error taxonomy of spec.md
// section 7, so callers (chiefly the RPC layer) can map it onto a stable
// wire error code without string-matching messages.
type ErrorKind int

const (
	// ErrInvalidSource means the request's source account does not exist
	// on the ledger snapshot.
	ErrInvalidSource ErrorKind = iota
	// ErrInvalidDestination means the request's destination account does
	// not exist on the ledger snapshot.
	ErrInvalidDestination
	// ErrMalformedCurrency means a currency code in the request failed
	// validation.
	ErrMalformedCurrency
	// ErrSnapshotLost means the ledger snapshot backing this search became
	// unusable mid-search (the settlement oracle reported a fatal error).
	ErrSnapshotLost
	// ErrNoPath means the search completed but produced no usable path.
	ErrNoPath
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidSource:
		return "invalidSource"
	case ErrInvalidDestination:
		return "invalidDestination"
	case ErrMalformedCurrency:
		return "malformedCurrency"
	case ErrSnapshotLost:
		return "snapshotLost"
	case ErrNoPath:
		return "noPath"
	default:
		return "unknown"
	}
}

// PathfindError is the structured error type every pathfinding operation
// returns on failure, carrying enough detail for the RPC layer to pick a
// wire error code without inspecting message text.
type PathfindError struct {
	Kind    ErrorKind
	Message string
}

func (e *PathfindError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}
