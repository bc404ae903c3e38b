// Package coin defines the identifiers and secret material of mend coins.
//
// A coin is a serial-numbered value token. Its identity is public (a
// denomination and a serial number); ownership is proven by knowledge of the
// coin's authentication value, a 16-byte secret of which every node in the
// network holds its own independent fragment.
package coin

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// AuthValueSize is the size, in bytes, of an authentication value.
const AuthValueSize = 16

// Ref identifies a coin by denomination and serial number. It names state
// held elsewhere and never carries secret material itself.
type Ref struct {
	Denomination int8   `json:"denomination"`
	Serial       uint32 `json:"serial"`
}

// String returns the canonical "denomination.serial" form of the reference.
func (r Ref) String() string {
	return fmt.Sprintf("%d.%d", r.Denomination, r.Serial)
}

// AuthValue is the 16-byte secret that proves current ownership of a coin.
// It is compared, replaced, or derived; it is never logged.
type AuthValue [AuthValueSize]byte

// Equal reports whether two authentication values are identical. The
// comparison runs in constant time.
func (v AuthValue) Equal(other AuthValue) bool {
	return subtle.ConstantTimeCompare(v[:], other[:]) == 1
}

// Hex returns the hexadecimal encoding of the value. It is intended for deed
// files and operator tooling, not for logs.
func (v AuthValue) Hex() string {
	return hex.EncodeToString(v[:])
}

// AuthValueFromHex parses a 32-character hexadecimal string into an
// authentication value.
func AuthValueFromHex(s string) (AuthValue, error) {
	var v AuthValue

	b, err := hex.DecodeString(s)
	if err != nil {
		return v, err
	}

	if len(b) != AuthValueSize {
		return v, fmt.Errorf("authentication value must be %d bytes, not %d", AuthValueSize, len(b))
	}

	copy(v[:], b)

	return v, nil
}
