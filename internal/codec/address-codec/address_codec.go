// Package addresscodec implements the base58check encodings XRPL uses for
// classic addresses: XRPL's own base58 alphabet, not Bitcoin's, and a
// version-byte-prefixed, double-SHA256-checksummed payload.
package addresscodec

import (
	"crypto/sha256"
	"errors"
	"math/big"
)

// xrplAlphabet is rippled's base58 dictionary (Base58Dictionary.h), a
// permutation of Bitcoin's alphabet chosen so that visually similar
// characters land on different digits than Bitcoin addresses use.
const xrplAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

const (
	// prefixAccountID is the version byte for a classic account address.
	prefixAccountID byte = 0x00
)

var bigRadix = big.NewInt(58)

func base58Encode(payload []byte) string {
	zeroCount := 0
	for zeroCount < len(payload) && payload[zeroCount] == 0 {
		zeroCount++
	}

	num := new(big.Int).SetBytes(payload)
	mod := new(big.Int)
	var out []byte
	for num.Sign() > 0 {
		num.DivMod(num, bigRadix, mod)
		out = append(out, xrplAlphabet[mod.Int64()])
	}
	for i := 0; i < zeroCount; i++ {
		out = append(out, xrplAlphabet[0])
	}
	// out was built least-significant digit first; reverse it.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(s string) ([]byte, error) {
	num := new(big.Int)
	for _, r := range s {
		idx := indexOf(xrplAlphabet, byte(r))
		if idx < 0 {
			return nil, errors.New("addresscodec: invalid base58 character")
		}
		num.Mul(num, bigRadix)
		num.Add(num, big.NewInt(int64(idx)))
	}

	decoded := num.Bytes()

	leadingZeros := 0
	for leadingZeros < len(s) && s[leadingZeros] == xrplAlphabet[0] {
		leadingZeros++
	}

	out := make([]byte, leadingZeros+len(decoded))
	copy(out[leadingZeros:], decoded)
	return out, nil
}

func indexOf(alphabet string, c byte) int {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return i
		}
	}
	return -1
}

func doubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// encodeVersioned base58check-encodes payload with the given version byte,
// per rippled's B58EncodeToken.
func encodeVersioned(version byte, payload []byte) string {
	full := make([]byte, 0, 1+len(payload)+4)
	full = append(full, version)
	full = append(full, payload...)
	checksum := doubleSHA256(full)
	full = append(full, checksum[:4]...)
	return base58Encode(full)
}

// decodeVersioned reverses encodeVersioned, verifying the checksum and
// returning the version byte and payload separately.
func decodeVersioned(s string) (byte, []byte, error) {
	raw, err := base58Decode(s)
	if err != nil {
		return 0, nil, err
	}
	if len(raw) < 5 {
		return 0, nil, errors.New("addresscodec: decoded payload too short")
	}
	body, checksum := raw[:len(raw)-4], raw[len(raw)-4:]
	want := doubleSHA256(body)
	for i := 0; i < 4; i++ {
		if want[i] != checksum[i] {
			return 0, nil, errors.New("addresscodec: checksum mismatch")
		}
	}
	return body[0], body[1:], nil
}

// EncodeAccountIDToClassicAddress encodes a 20-byte account ID into its
// base58check classic address form (the "r..." string).
func EncodeAccountIDToClassicAddress(accountID []byte) (string, error) {
	if len(accountID) != 20 {
		return "", errors.New("addresscodec: account ID must be 20 bytes")
	}
	return encodeVersioned(prefixAccountID, accountID), nil
}

// DecodeClassicAddressToAccountID decodes a classic address string back into
// its version byte and 20-byte account ID.
func DecodeClassicAddressToAccountID(address string) (byte, []byte, error) {
	version, payload, err := decodeVersioned(address)
	if err != nil {
		return 0, nil, err
	}
	if version != prefixAccountID {
		return 0, nil, errors.New("addresscodec: not a classic account address")
	}
	if len(payload) != 20 {
		return 0, nil, errors.New("addresscodec: decoded account ID must be 20 bytes")
	}
	return version, payload, nil
}
