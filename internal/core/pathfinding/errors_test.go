package pathfinding

import "testing"

func TestErrorKindString(t *testing.T) {
	cases := map[ErrorKind]string{
		ErrInvalidSource:      "invalidSource",
		ErrInvalidDestination: "invalidDestination",
		ErrMalformedCurrency:  "malformedCurrency",
		ErrSnapshotLost:       "snapshotLost",
		ErrNoPath:             "noPath",
		ErrorKind(99):         "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestPathfindError_Error(t *testing.T) {
	err := &PathfindError{Kind: ErrInvalidSource, Message: "account not found"}
	want := "invalidSource: account not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPathfindError_SatisfiesErrorInterface(t *testing.T) {
	var err error = &PathfindError{Kind: ErrNoPath, Message: "no liquidity"}
	if err.Error() == "" {
		t.Error("PathfindError must produce a non-empty message through the error interface")
	}
}
