package peers

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// MinPeers is the smallest network a node will join. A single node has
	// nobody to recover from.
	MinPeers = 2
	// MaxPeers bounds the network size so every recovery request can carry
	// one ticket identifier per peer in a fixed-size frame.
	MaxPeers = 64
)

// PeerSet is the fixed membership of a mend network. Indexes are contiguous
// from zero so a peer's index is also its position in ticket lists.
type PeerSet struct {
	Peers   []*Peer         `json:"peers"`
	ByIndex map[uint8]*Peer `json:"-"`

	//cached values
	quorum *int
}

/* Constructors */

// NewPeerSet creates a PeerSet from a list of Peers. Indexes must cover
// 0..len(peers)-1 with no gaps or duplicates.
func NewPeerSet(peers []*Peer) (*PeerSet, error) {
	if len(peers) < MinPeers || len(peers) > MaxPeers {
		return nil, fmt.Errorf("peer set must contain between %d and %d peers, not %d", MinPeers, MaxPeers, len(peers))
	}

	peerSet := &PeerSet{
		ByIndex: make(map[uint8]*Peer),
	}

	for _, peer := range peers {
		if int(peer.Index) >= len(peers) {
			return nil, fmt.Errorf("peer index %d out of range for %d peers", peer.Index, len(peers))
		}

		if _, ok := peerSet.ByIndex[peer.Index]; ok {
			return nil, fmt.Errorf("duplicate peer index %d", peer.Index)
		}

		if peer.NetAddr == "" {
			return nil, fmt.Errorf("peer %d has no network address", peer.Index)
		}

		peerSet.ByIndex[peer.Index] = peer
	}

	peerSet.Peers = peers

	return peerSet, nil
}

// NewPeerSetFromPeerSliceBytes creates a PeerSet from a JSON-encoded peer
// slice.
func NewPeerSetFromPeerSliceBytes(peerSliceBytes []byte) (*PeerSet, error) {
	peers := []*Peer{}

	b := bytes.NewBuffer(peerSliceBytes)
	dec := json.NewDecoder(b)

	if err := dec.Decode(&peers); err != nil {
		return nil, err
	}

	return NewPeerSet(peers)
}

/* Utilities */

// Len returns the number of peers in the PeerSet.
func (peerSet *PeerSet) Len() int {
	return len(peerSet.Peers)
}

// Marshal encodes the peer slice as JSON.
func (peerSet *PeerSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(peerSet.Peers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Quorum returns the number of matching votes that makes a recovery outcome
// authoritative. It is a strict majority of the whole network, counting
// unreachable peers as voting against.
func (peerSet *PeerSet) Quorum() int {
	if peerSet.quorum == nil {
		val := peerSet.Len()/2 + 1
		peerSet.quorum = &val
	}
	return *peerSet.quorum
}

// Others returns every peer except the one at the given index.
func (peerSet *PeerSet) Others(index uint8) []*Peer {
	others := []*Peer{}
	for _, p := range peerSet.Peers {
		if p.Index != index {
			others = append(others, p)
		}
	}
	return others
}
