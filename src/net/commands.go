package net

import (
	"github.com/mendnet/mend/src/coin"
)

// CoinCandidate pairs a coin with the authentication value its holder
// presents for it.
type CoinCandidate struct {
	Ref   coin.Ref
	Value coin.AuthValue
}

// IssueRequest asks a node to check a batch of presented coins and open a
// ticket vouching for the ones that pass.
type IssueRequest struct {
	Coins []CoinCandidate
}

// IssueResponse carries the ticket identifier and one result per coin, in
// request order. Ticket is zero when no coin passed.
type IssueResponse struct {
	Status  uint8
	Ticket  uint32
	Results []bool
}

// ValidateRequest asks the node that issued a ticket to reveal its contents.
// Peer is the index of the asking node; a ticket can be claimed once per
// peer.
type ValidateRequest struct {
	Peer   uint8
	Ticket uint32
}

// ValidateResponse lists the coins the ticket vouches for.
type ValidateResponse struct {
	Status uint8
	Coins  []coin.Ref
}

// ClassifyCandidate pairs a coin with the two authentication values to test
// it against.
type ClassifyCandidate struct {
	Ref      coin.Ref
	Current  coin.AuthValue
	Proposed coin.AuthValue
}

// ClassifyRequest asks a node which of two values it holds for each coin,
// without changing anything.
type ClassifyRequest struct {
	Coins []ClassifyCandidate
}

// ClassifyResponse carries two result sets, in request order: whether the
// node holds the current value, and whether it holds the proposed one.
type ClassifyResponse struct {
	Status   uint8
	Current  []bool
	Proposed []bool
}

// RecoverRequest asks a node to repair its fragments for a batch of coins.
// Tickets holds one ticket identifier per network peer, in index order, with
// zero standing for "no ticket from this peer".
type RecoverRequest struct {
	Coins   []coin.Ref
	Group   [16]byte
	Tickets []uint32
}

// RecoverResponse reports which coins were repaired, in request order.
type RecoverResponse struct {
	Status    uint8
	Recovered []bool
}

// EchoRequest probes a node for liveness.
type EchoRequest struct {
}

// EchoResponse answers an echo probe.
type EchoResponse struct {
	Status uint8
}
