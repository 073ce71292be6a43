// Package pathfinding implements the payment path discovery engine: given a
// source account, a destination account, and a desired delivery amount, it
// enumerates, ranks, and returns a small set of high-quality payment paths
// through trust lines and order books.
package pathfinding

import (
	"github.com/ledgerflow/pathd/internal/core/tx/payment"
)

// Account identifies a participant in the settlement network.
type Account [20]byte

// Issue is a (currency, issuer) pair. The native currency's Issue has a
// zero-value issuer and compares equal only to another native Issue.
type Issue = payment.Issue

// NewIssue builds a non-native Issue for the given currency and issuer.
func NewIssue(currency string, issuer Account) Issue {
	return Issue{Currency: currency, Issuer: [20]byte(issuer)}
}

// NativeIssue returns the Issue for the network's native currency.
func NativeIssue() Issue {
	return Issue{Currency: "XRP"}
}

// TrustLine is a directed relation from an account to a peer account in a
// currency, carrying the no-ripple flag read off the RippleState entry on
// the owning account's side of the line.
type TrustLine struct {
	Peer      Account
	Currency  string
	NoRipple  bool
	Limit     payment.EitherAmount
	Balance   payment.EitherAmount
	Authorized bool
	Freeze    bool
}

// NodeType is the role a hop plays within a PathType template.
type NodeType int

const (
	// NodeSource anchors the path at its starting element.
	NodeSource NodeType = iota
	// NodeAccounts expands via trust lines.
	NodeAccounts
	// NodeBooks expands via a non-native order book.
	NodeBooks
	// NodeNativeBook expands via a book whose output is the native currency.
	NodeNativeBook
	// NodeDestBook expands via a book whose output is the destination Issue.
	NodeDestBook
	// NodeDestination is the terminal hop; it must land on the destination.
	NodeDestination
)

func (n NodeType) String() string {
	switch n {
	case NodeSource:
		return "SOURCE"
	case NodeAccounts:
		return "ACCOUNTS"
	case NodeBooks:
		return "BOOKS"
	case NodeNativeBook:
		return "NATIVE_BOOK"
	case NodeDestBook:
		return "DEST_BOOK"
	case NodeDestination:
		return "DESTINATION"
	default:
		return "UNKNOWN"
	}
}

// PathType is an ordered sequence of NodeType, an expansion template.
type PathType []NodeType

// PaymentType classifies a request by the native-ness of the source and
// destination currencies, selecting which PathType templates apply.
type PaymentType int

const (
	PaymentNativeToNative PaymentType = iota
	PaymentNativeToNonNative
	PaymentNonNativeToNative
	PaymentNonNativeToSameCurrency
	PaymentNonNativeToDifferentCurrency
)

// ClassifyPaymentType derives the PaymentType from the source and
// destination Issues of a request.
func ClassifyPaymentType(srcIssue, dstIssue Issue) PaymentType {
	srcNative := srcIssue.IsXRP()
	dstNative := dstIssue.IsXRP()

	switch {
	case srcNative && dstNative:
		return PaymentNativeToNative
	case srcNative && !dstNative:
		return PaymentNativeToNonNative
	case !srcNative && dstNative:
		return PaymentNonNativeToNative
	case srcIssue.Currency == dstIssue.Currency:
		return PaymentNonNativeToSameCurrency
	default:
		return PaymentNonNativeToDifferentCurrency
	}
}

// PathElement is a single hop in a Path: a tagged variant of an account hop
// or a book hop, matching rippled's STPathElement but rendered as a value
// type rather than an inheritance hierarchy (per DESIGN.md's open-question
// decisions).
type PathElement struct {
	// IsBook is true for a book hop, false for an account hop.
	IsBook bool

	// Account is the target account for an account hop. Unused for book hops.
	Account Account

	// Issue is the Issue reached by this hop. For an account hop this is the
	// currency/issuer in effect after crossing the account (normally
	// unchanged from the previous element). For a book hop this is the
	// book's output Issue.
	Issue Issue
}

// AccountHop builds an account-to-account PathElement.
func AccountHop(acct Account, issue Issue) PathElement {
	return PathElement{Account: acct, Issue: issue}
}

// BookHop builds a book-crossing PathElement.
func BookHop(outIssue Issue) PathElement {
	return PathElement{IsBook: true, Issue: outIssue}
}

// Path is an ordered sequence of PathElements. The first element is the
// source element (seeded with the source Issue); every subsequent element is
// an extension produced by the Path Expander.
type Path []PathElement

// lastAccount returns the account of the last account-hop element in the
// path, and whether one was found.
func (p Path) lastAccount() (Account, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].IsBook {
			return p[i].Account, true
		}
	}
	return Account{}, false
}

// lastIssue returns the Issue in effect after the path's final element.
func (p Path) lastIssue() Issue {
	if len(p) == 0 {
		return Issue{}
	}
	return p[len(p)-1].Issue
}

// clone returns a copy of the path with room to append one more element
// without aliasing the original's backing array.
func (p Path) clone() Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return out
}

// visitedAccount reports whether acct already appears as an account hop.
func (p Path) visitedAccount(acct Account) bool {
	for _, el := range p {
		if !el.IsBook && el.Account == acct {
			return true
		}
	}
	return false
}

// PathRank scores one completed candidate path for sorting and selection.
// Ordering: higher quality first; ties broken by lower length, then by
// delivered liquidity descending, then by original index ascending (stable).
type PathRank struct {
	Quality   payment.Quality
	Length    int
	Delivered payment.EitherAmount
	Index     int
}

// Less implements the PathRank comparator from spec.md section 3.
func (r PathRank) Less(other PathRank) bool {
	if cmp := r.Quality.Compare(other.Quality); cmp != 0 {
		return cmp < 0 // lower Quality.Value is better quality
	}
	if r.Length != other.Length {
		return r.Length < other.Length
	}
	if d := r.Delivered.Compare(other.Delivered); d != 0 {
		return d > 0 // higher delivered liquidity wins
	}
	return r.Index < other.Index
}

// ExpandFlags controls which extensions the Path Expander emits for a hop.
// The bit values match rippled's Pathfinder.h afADD_ACCOUNTS/afADD_BOOKS/
// afOB_XRP/afOB_LAST/afAC_LAST, renamed at the Go API boundary the way this
// codebase already renames XRP-specific concepts to "native"
// (Amount.IsNative).
type ExpandFlags uint8

const (
	// AddAccounts emits account-to-account hops via trust lines.
	AddAccounts ExpandFlags = 0x01
	// AddBooks emits hops via order books.
	AddBooks ExpandFlags = 0x02
	// OBNative restricts book expansion to books whose output is native.
	OBNative ExpandFlags = 0x04
	// OBLast requires the next book hop to land on the destination Issue.
	OBLast ExpandFlags = 0x08
	// ACLast requires the next account hop to land on the destination account.
	ACLast ExpandFlags = 0x10
)

// flagsFor computes the ExpandFlags for a NodeType at a given position in a
// template, per spec.md section 4.4 step 3b.
func flagsFor(node NodeType, isLast bool) ExpandFlags {
	switch node {
	case NodeAccounts:
		f := AddAccounts
		if isLast {
			f |= ACLast
		}
		return f
	case NodeBooks:
		return AddBooks
	case NodeNativeBook:
		return AddBooks | OBNative
	case NodeDestBook:
		return AddBooks | OBLast
	case NodeDestination:
		return AddAccounts | ACLast
	default:
		return 0
	}
}

// PathRequest describes one pathfinding request.
type PathRequest struct {
	SrcAccount  Account
	DstAccount  Account
	SrcCurrency string
	DstAmount   payment.EitherAmount
	// SrcIssuer, if non-nil, restricts the first hop's issuer (rippled's
	// mSrcIssuer). Nil means "use the default issuer."
	SrcIssuer *Issue
}
