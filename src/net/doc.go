// Package net implements the transports used to communicate between mend
// nodes.
//
// This package contains implementations of the Transport interface, which is
// used by mend nodes to send and receive RPC requests (IssueRequest,
// ValidateRequest, ClassifyRequest, RecoverRequest, EchoRequest). There are
// two implementations:
//
// - Inmem: in-memory transport used only for testing
//
// - TCP: communicating over plain TCP
//
// Wire format
//
// Every request travels as a single frame: one opcode byte, the body length
// as a big-endian 32-bit integer, the raw body, and a two-byte trailer
// (0x3E 0x3E). Responses use the same frame with a status byte in place of
// the opcode. Bodies are fixed binary layouts rather than a self-describing
// encoding: batches are arrays of fixed-size entries, and per-coin results
// come back as bitmaps, most significant bit first, except classification,
// which answers one class byte per coin. Failure statuses travel as a bare
// status byte with an empty body.
//
// The only body whose length is not self-describing is the recovery request,
// which carries one ticket identifier per network peer; decoding it requires
// knowing the network size, which is fixed for the lifetime of a deployment
// and passed to the transport at construction.
//
// TCP
//
// The TCP transport maintains a small pool of connections per target and
// applies I/O deadlines to every exchange. Recovery requests get a longer
// deadline because the target node fans out to the whole network before it
// can respond.
//
// To use a TCP transport, set the following configuration options in the
// Config object (cf config package):
//
// - BindAddr: the IP:PORT of the TCP socket that the node binds to.
//
// - AdvertiseAddr: (optional) The address that is advertised to other nodes.
// If BindAddr is a local address not reachable by other peers, it is usefull
// to set AdvertiseAddr to the reachable public address.
package net
