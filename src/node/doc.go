// Package node implements the reactive component of a mend node.
//
// This is the part of mend that answers the coin operations and runs the
// recovery algorithm against the rest of the network. Node implements a small
// state machine with two states, Serving and Shutdown; while Serving, every
// request read from the transport is handled in its own goroutine and a
// background loop periodically flushes dirty vault records to disk.
//
// Tickets
//
// A client that still knows the authentication values of its coins proves it
// to each node separately with an Issue request. The node compares every
// presented value against its own vault and opens a ticket, a short-lived
// record of exactly which coins passed, identified by a random 32-bit id.
// Tickets are the only testimony a node ever gives about a coin: they carry
// coin references, never authentication values.
//
// Recovery
//
// When a client has lost the fragments of some nodes but can still gather
// tickets from a majority of the network, it sends one node a Recover request
// carrying the coin list, a proposed-group identifier, and the ticket ids,
// one per peer. The node validates each ticket with the peer that issued it,
// in parallel, and counts one vote per peer per coin. Each coin that reaches
// a strict majority of the whole network has its local fragment replaced by a
// value derived from the group identifier, the coin reference, and this
// node's index, so every node of the group converges on its own independent
// fragment without ever exchanging one. Peers that are down or refuse their
// ticket simply contribute no votes.
//
// Validation
//
// Validate is the node-to-node half of recovery: the node that issued a
// ticket reveals its coin list to the asking peer, once. A second claim by
// the same peer is refused, so a captured ticket id cannot be replayed to
// collect testimony twice.
package node
