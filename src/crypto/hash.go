// Package crypto provides the keyed derivation and randomness primitives used
// by mend nodes.
package crypto

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/mendnet/mend/src/coin"
	"github.com/zeebo/blake3"
)

// RecoverySecretSize is the size, in bytes, of a recovery group secret.
const RecoverySecretSize = 16

// RecoverySecret derives the per-node authentication value for a coin from a
// recovery group secret. The derivation is keyed so that holding the secret
// for one group reveals nothing about any other group, and it binds the node
// index so every node arrives at a different fragment for the same coin.
func RecoverySecret(nodeIndex uint8, group [RecoverySecretSize]byte, ref coin.Ref) coin.AuthValue {
	key := blake3.Sum256(group[:])

	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic(fmt.Errorf("failed to key hasher: %v", err))
	}

	msg := make([]byte, 6)
	msg[0] = nodeIndex
	msg[1] = byte(ref.Denomination)
	binary.BigEndian.PutUint32(msg[2:], ref.Serial)
	h.Write(msg)

	var out coin.AuthValue
	if _, err := h.Digest().Read(out[:]); err != nil {
		panic(fmt.Errorf("failed to read digest: %v", err))
	}

	return out
}

// RandomTicketID returns a uniformly random nonzero ticket identifier. Zero
// is reserved to mean "no ticket".
func RandomTicketID() uint32 {
	buf := make([]byte, 4)

	for {
		if _, err := crand.Read(buf); err != nil {
			panic(fmt.Errorf("failed to read random bytes: %v", err))
		}

		if id := binary.BigEndian.Uint32(buf); id != 0 {
			return id
		}
	}
}

// RandomAuthValue returns a fresh random authentication value. It is used
// when minting coins and when proposing new ownership.
func RandomAuthValue() coin.AuthValue {
	var v coin.AuthValue

	if _, err := crand.Read(v[:]); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}

	return v
}

// RandomGroupSecret returns a fresh random recovery group secret.
func RandomGroupSecret() [RecoverySecretSize]byte {
	var g [RecoverySecretSize]byte

	if _, err := crand.Read(g[:]); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}

	return g
}
