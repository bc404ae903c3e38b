package net

import (
	"bufio"
	"errors"
	"io"
	"math"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

/*******************************************************************************
MOST OF THIS IS TAKEN FROM HASHICORP RAFT
*******************************************************************************/

const (
	bufSize = math.MaxUint16
)

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")
)

/*
NetworkTransport provides a network based transport that can be used to
communicate with mend nodes on remote machines. It requires an underlying
stream layer to provide a stream abstraction, which can be simple TCP, TLS,
etc.

This transport is very simple and lightweight. Each request is framed by a
byte that indicates the operation, the length of the raw binary body, the
body itself, and a two-byte trailer. Responses use the same frame with a
status byte in place of the operation.
*/
type NetworkTransport struct {
	logger *logrus.Entry

	connPool     map[string][]*netConn
	connPoolLock sync.Mutex
	maxPool      int

	consumeCh chan RPC

	peerCount int

	shutdown     bool
	shutdownCh   chan struct{}
	shutdownLock sync.Mutex

	stream StreamLayer

	timeout     time.Duration
	healTimeout time.Duration
}

type netConn struct {
	target string
	conn   net.Conn
	r      *bufio.Reader
	w      *bufio.Writer
}

// Release closes the underlying connection
func (n *netConn) Release() error {
	return n.conn.Close()
}

// NewNetworkTransport creates a new network transport with the given stream
// layer. The maxPool controls how many connections we will pool (per
// target). peerCount is the size of the network, which fixes the length of
// the ticket list in recovery requests. The timeout is used to apply I/O
// deadlines; healTimeout stretches them for recovery requests, which wait on
// the remote node's own fan-out.
func NewNetworkTransport(
	stream StreamLayer,
	maxPool int,
	peerCount int,
	timeout time.Duration,
	healTimeout time.Duration,
	logger *logrus.Entry,
) *NetworkTransport {

	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	trans := &NetworkTransport{
		connPool:    make(map[string][]*netConn),
		consumeCh:   make(chan RPC),
		logger:      logger,
		maxPool:     maxPool,
		peerCount:   peerCount,
		shutdownCh:  make(chan struct{}),
		stream:      stream,
		timeout:     timeout,
		healTimeout: healTimeout,
	}

	return trans
}

// Close is used to stop the network transport.
func (n *NetworkTransport) Close() error {
	n.shutdownLock.Lock()
	defer n.shutdownLock.Unlock()

	if !n.shutdown {
		close(n.shutdownCh)
		n.stream.Close()

		n.shutdown = true
	}
	return nil
}

// Consumer implements the Transport interface.
func (n *NetworkTransport) Consumer() <-chan RPC {
	return n.consumeCh
}

// LocalAddr implements the Transport interface.
func (n *NetworkTransport) LocalAddr() string {
	addr := n.stream.Addr()

	if addr != nil {
		return addr.String()
	}

	return ""
}

// AdvertiseAddr implements the Transport interface.
func (n *NetworkTransport) AdvertiseAddr() string {
	return n.stream.AdvertiseAddr()
}

// IsShutdown is used to check if the transport is shutdown.
func (n *NetworkTransport) IsShutdown() bool {
	select {
	case <-n.shutdownCh:
		return true
	default:
		return false
	}
}

// getPooledConn is used to grab a pooled connection.
func (n *NetworkTransport) getPooledConn(target string) *netConn {
	n.connPoolLock.Lock()
	defer n.connPoolLock.Unlock()

	conns, ok := n.connPool[target]
	if !ok || len(conns) == 0 {
		return nil
	}

	var conn *netConn
	num := len(conns)
	conn, conns[num-1] = conns[num-1], nil
	n.connPool[target] = conns[:num-1]
	return conn
}

// getConn is used to get a connection from the pool.
func (n *NetworkTransport) getConn(target string, timeout time.Duration) (*netConn, error) {
	// Check for a pooled conn
	if conn := n.getPooledConn(target); conn != nil {
		return conn, nil
	}

	// Dial a new connection
	conn, err := n.stream.Dial(target, timeout)
	if err != nil {
		return nil, err
	}

	// Wrap the conn
	netConn := &netConn{
		target: target,
		conn:   conn,
		r:      bufio.NewReaderSize(conn, bufSize),
		w:      bufio.NewWriterSize(conn, bufSize),
	}

	// Done
	return netConn, nil
}

// returnConn returns a connection back to the pool.
func (n *NetworkTransport) returnConn(conn *netConn) {
	n.connPoolLock.Lock()
	defer n.connPoolLock.Unlock()

	key := conn.target
	conns, _ := n.connPool[key]

	if !n.IsShutdown() && len(conns) < n.maxPool {
		n.connPool[key] = append(conns, conn)
	} else {
		conn.Release()
	}
}

// Issue implements the Transport interface.
func (n *NetworkTransport) Issue(target string, args *IssueRequest, resp *IssueResponse) error {
	status, body, err := n.roundTrip(target, rpcIssue, n.timeout, marshalIssueRequest(args))
	if err != nil {
		return err
	}

	out, err := unmarshalIssueResponse(status, body, len(args.Coins))
	if err != nil {
		return err
	}

	*resp = *out
	return nil
}

// Validate implements the Transport interface. Validation is the call
// recovery fans out with, so it is bounded by the heal timeout rather than
// the plain I/O timeout.
func (n *NetworkTransport) Validate(target string, args *ValidateRequest, resp *ValidateResponse) error {
	status, body, err := n.roundTrip(target, rpcValidate, n.healTimeout, marshalValidateRequest(args))
	if err != nil {
		return err
	}

	out, err := unmarshalValidateResponse(status, body)
	if err != nil {
		return err
	}

	*resp = *out
	return nil
}

// Classify implements the Transport interface.
func (n *NetworkTransport) Classify(target string, args *ClassifyRequest, resp *ClassifyResponse) error {
	status, body, err := n.roundTrip(target, rpcClassify, n.timeout, marshalClassifyRequest(args))
	if err != nil {
		return err
	}

	out, err := unmarshalClassifyResponse(status, body, len(args.Coins))
	if err != nil {
		return err
	}

	*resp = *out
	return nil
}

// Recover implements the Transport interface. The deadline stretches past the
// heal timeout because the target node runs its own full fan-out before
// responding.
func (n *NetworkTransport) Recover(target string, args *RecoverRequest, resp *RecoverResponse) error {
	status, body, err := n.roundTrip(target, rpcRecover, n.healTimeout+n.timeout, marshalRecoverRequest(args))
	if err != nil {
		return err
	}

	out, err := unmarshalRecoverResponse(status, body, len(args.Coins))
	if err != nil {
		return err
	}

	*resp = *out
	return nil
}

// Echo implements the Transport interface.
func (n *NetworkTransport) Echo(target string, args *EchoRequest, resp *EchoResponse) error {
	status, _, err := n.roundTrip(target, rpcEcho, n.timeout, nil)
	if err != nil {
		return err
	}

	resp.Status = status
	return nil
}

// roundTrip handles a simple request/response exchange.
func (n *NetworkTransport) roundTrip(target string, rpcType uint8, timeout time.Duration, body []byte) (uint8, []byte, error) {
	// Get a conn
	conn, err := n.getConn(target, timeout)
	if err != nil {
		return 0, nil, err
	}

	// Set a deadline
	if timeout > 0 {
		conn.conn.SetDeadline(time.Now().Add(timeout))
	}

	// Send the RPC
	if err = sendRPC(conn, rpcType, body); err != nil {
		return 0, nil, err
	}

	// Decode the response
	status, respBody, err := decodeResponse(conn)
	if err != nil {
		return 0, nil, err
	}

	n.returnConn(conn)

	return status, respBody, nil
}

// sendRPC is used to frame and send the RPC.
func sendRPC(conn *netConn, rpcType uint8, body []byte) error {
	if err := writeFrame(conn.w, rpcType, body); err != nil {
		conn.Release()
		return err
	}

	// Flush
	if err := conn.w.Flush(); err != nil {
		conn.Release()
		return err
	}
	return nil
}

// decodeResponse is used to read a response frame. The connection is released
// on any read error, so it is only reusable when decodeResponse succeeds.
func decodeResponse(conn *netConn) (uint8, []byte, error) {
	status, body, err := readFrame(conn.r)
	if err != nil {
		conn.Release()
		return 0, nil, err
	}

	return status, body, nil
}

// Listen opens the stream and handles incoming connections.
func (n *NetworkTransport) Listen() {
	for {
		// Accept incoming connections
		conn, err := n.stream.Accept()
		if err != nil {
			if n.IsShutdown() {
				return
			}
			n.logger.WithField("error", err).Error("Failed to accept connection")
			continue
		}
		n.logger.WithFields(logrus.Fields{
			"node": conn.LocalAddr(),
			"from": conn.RemoteAddr(),
		}).Debug("accepted connection")

		// Handle the connection in dedicated routine
		go n.handleConn(conn)
	}
}

// handleConn is used to handle an inbound connection for its lifespan.
func (n *NetworkTransport) handleConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReaderSize(conn, bufSize)
	w := bufio.NewWriterSize(conn, bufSize)

	for {
		if err := n.handleCommand(r, w); err != nil {

			if err == ErrTransportShutdown {
				n.logger.WithField("error", err).Warn("Failed to serve incoming command")
			} else {
				if err != io.EOF {
					n.logger.WithField("error", err).Error("Failed to serve incoming command")
				}
			}
			return
		}
		if err := w.Flush(); err != nil {
			n.logger.WithField("error", err).Error("Failed to flush response")
			return
		}
	}
}

// handleCommand is used to decode and dispatch a single command. A request
// that cannot be decoded inside a well-delimited frame is answered with
// StatusMalformed without dropping the connection; a broken frame drops it.
func (n *NetworkTransport) handleCommand(r *bufio.Reader, w *bufio.Writer) error {
	rpcType, body, err := readFrame(r)
	if err != nil {
		return err
	}

	// Create the RPC object
	respCh := make(chan RPCResponse, 1)
	rpc := RPC{
		RespChan: respCh,
	}

	// Decode the command
	switch rpcType {
	case rpcEcho:
		if len(body) != 0 {
			return writeFrame(w, StatusMalformed, nil)
		}
		rpc.Command = &EchoRequest{}
	case rpcIssue:
		req, err := unmarshalIssueRequest(body)
		if err != nil {
			return writeFrame(w, StatusMalformed, nil)
		}
		rpc.Command = req
	case rpcValidate:
		req, err := unmarshalValidateRequest(body)
		if err != nil {
			return writeFrame(w, StatusMalformed, nil)
		}
		rpc.Command = req
	case rpcClassify:
		req, err := unmarshalClassifyRequest(body)
		if err != nil {
			return writeFrame(w, StatusMalformed, nil)
		}
		rpc.Command = req
	case rpcRecover:
		req, err := unmarshalRecoverRequest(body, n.peerCount)
		if err != nil {
			return writeFrame(w, StatusMalformed, nil)
		}
		rpc.Command = req
	default:
		return writeFrame(w, StatusMalformed, nil)
	}

	// Dispatch the RPC
	select {
	case n.consumeCh <- rpc:
	case <-n.shutdownCh:
		return ErrTransportShutdown
	}

	// Wait for response
	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return writeFrame(w, StatusError, nil)
		}

		status, respBody, err := marshalResponse(resp.Response)
		if err != nil {
			n.logger.WithField("error", err).Error("Failed to marshal response")
			return writeFrame(w, StatusError, nil)
		}

		return writeFrame(w, status, respBody)
	case <-n.shutdownCh:
		return ErrTransportShutdown
	}
}
