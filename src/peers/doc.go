// Package peers defines the concept of a mend peer and implements functions
// to manage collections of peers.
//
// A mend peer is an entity that operates a mend node. The network has a fixed
// membership: every node knows every other node ahead of time, and there is
// no discovery or membership change at runtime. Peers are identified by a
// small integer index which is assigned once, when the network is laid out,
// and never reused for a different machine.
//
// The index is load-bearing. Recovery requests carry one ticket identifier
// per peer, in index order, so a peer's index is also its position in every
// ticket list exchanged on the wire. Indexes must therefore be contiguous
// from zero, which NewPeerSet enforces.
//
// Upon starting up, a node expects to find a peers.json file in its data
// directory listing every member of the network, including itself. The file
// is read once at startup; nodes do not gossip membership.
package peers
