package net

import (
	"net"
	"time"
)

// StreamLayer is the connection abstraction that the NetworkTransport frames
// mend requests over. It keeps the mechanics of listening and dialing apart
// from the framing and deadline logic above, so the same transport runs over
// plain TCP today and could run over TLS without change.
type StreamLayer interface {
	net.Listener

	// Dial opens a connection to another node, giving up after timeout.
	// The timeout is that of the operation in flight: validations issued
	// during a recovery fan-out dial with the heal timeout, every other
	// exchange with the plain I/O timeout.
	Dial(address string, timeout time.Duration) (net.Conn, error)

	// AdvertiseAddr returns the address other nodes should dial to reach
	// this one, which may differ from the bound address.
	AdvertiseAddr() string
}
