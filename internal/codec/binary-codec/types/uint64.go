//revive:disable:var-naming
package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"github.com/ledgerflow/pathd/internal/codec/binary-codec/types/interfaces"
)

// UInt64 represents a 64-bit unsigned integer.
type UInt64 struct{}

// ErrInvalidUInt64String is returned when a value is not a valid string representation of a UInt64.
var ErrInvalidUInt64String = errors.New("invalid UInt64 string, value should be a string representation of a UInt64")

// FromJSON converts a JSON value into a serialized byte slice representing a 64-bit unsigned integer.
// The input value is assumed to be a hex string (without leading zeros, like "a" for 10).
// If the serialization fails, an error is returned.
func (u *UInt64) FromJSON(value any) ([]byte, error) {
	var buf = new(bytes.Buffer)

	strVal, ok := value.(string)
	if !ok {
		return nil, ErrInvalidUInt64String
	}

	// Pad the hex string to 16 characters (8 bytes)
	strVal = strings.Repeat("0", 16-len(strVal)) + strVal
	decoded, err := hex.DecodeString(strVal)
	if err != nil {
		return nil, err
	}
	buf.Write(decoded)

	return buf.Bytes(), nil
}

// ToJSON takes a BinaryParser and optional parameters, and converts the serialized byte data
// back into a JSON string value. This method assumes the parser contains data representing
// a 64-bit unsigned integer. If the parsing fails, an error is returned.
// The output is a lowercase hex string with leading zeros stripped (matching rippled behavior).
func (u *UInt64) ToJSON(p interfaces.BinaryParser, _ ...int) (any, error) {
	b, err := p.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	// Convert to hex and strip leading zeros (rippled outputs minimal hex representation)
	hexStr := hex.EncodeToString(b)
	hexStr = strings.TrimLeft(hexStr, "0")
	if hexStr == "" {
		hexStr = "0"
	}
	return hexStr, nil
}

// isNumeric checks if a string only contains numerical values.
func isNumeric(s string) bool {
	match, _ := regexp.MatchString("^[0-9]+$", s)
	return match
}
