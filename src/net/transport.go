package net

// RPCResponse captures both a response and a potential error.
type RPCResponse struct {
	Response interface{}
	Error    error
}

// RPC encapsulates an RPC request and provides a response mechanism.
type RPC struct {
	Command  interface{}
	RespChan chan<- RPCResponse
}

// Respond is used to respond with a response, error or both.
func (r *RPC) Respond(resp interface{}, err error) {
	r.RespChan <- RPCResponse{resp, err}
}

// Transport provides an interface for network transports
// to allow a node to communicate with other nodes.
type Transport interface {

	// Starts the transport listening
	Listen()

	// Consumer returns a channel that can be used to
	// consume and respond to RPC requests.
	Consumer() <-chan RPC

	// LocalAddr is used to return our local address
	LocalAddr() string

	// AdvertiseAddr is used to return our advertise address where other peers
	// can reach us
	AdvertiseAddr() string

	// Issue, Validate, Classify, Recover, and Echo send the appropriate RPC
	// to the target node.

	Issue(target string, args *IssueRequest, resp *IssueResponse) error

	Validate(target string, args *ValidateRequest, resp *ValidateResponse) error

	Classify(target string, args *ClassifyRequest, resp *ClassifyResponse) error

	Recover(target string, args *RecoverRequest, resp *RecoverResponse) error

	Echo(target string, args *EchoRequest, resp *EchoResponse) error

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}
