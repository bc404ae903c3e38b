package peers

import "fmt"

// Peer is a mend node as seen by the rest of the network. Peers are
// identified by their index, which doubles as their position in every
// recovery ticket list exchanged on the wire.
type Peer struct {
	Index   uint8  `json:"index"`
	NetAddr string `json:"net_addr"`
	Moniker string `json:"moniker"`
}

// NewPeer creates a Peer. If moniker is empty, one is derived from the index.
func NewPeer(index uint8, netAddr string, moniker string) *Peer {
	if moniker == "" {
		moniker = fmt.Sprintf("node%d", index)
	}

	return &Peer{
		Index:   index,
		NetAddr: netAddr,
		Moniker: moniker,
	}
}
