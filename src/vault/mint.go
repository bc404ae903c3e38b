package vault

import (
	"fmt"

	"github.com/mendnet/mend/src/coin"
	"github.com/mendnet/mend/src/crypto"
)

// Deed is the operator-facing record of the fragments a node was minted with.
// It is written once at seeding time so the mint can assemble full coins out
// of band; the node itself never reads it back.
type Deed struct {
	NodeIndex uint8             `json:"node_index"`
	Coins     map[string]string `json:"coins"`
}

// Mint registers freshly minted coins in the vault, one run of serial numbers
// per denomination, each with a random fragment. It returns the deed entries
// for the new coins.
func Mint(store Store, denominations []int8, perDenomination uint32) (map[string]string, error) {
	if len(denominations) == 0 {
		return nil, fmt.Errorf("no denominations to mint")
	}

	if perDenomination == 0 {
		return nil, fmt.Errorf("coins per denomination must be positive")
	}

	deed := make(map[string]string)

	for _, den := range denominations {
		for serial := uint32(1); serial <= perDenomination; serial++ {
			ref := coin.Ref{Denomination: den, Serial: serial}
			value := crypto.RandomAuthValue()

			if err := store.Add(ref, value); err != nil {
				return nil, err
			}

			deed[ref.String()] = value.Hex()
		}
	}

	return deed, nil
}
