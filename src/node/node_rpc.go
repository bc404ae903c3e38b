package node

import (
	"fmt"
	"sync/atomic"

	"github.com/mendnet/mend/src/coin"
	"github.com/mendnet/mend/src/net"
	"github.com/mendnet/mend/src/pool"
	"github.com/sirupsen/logrus"
)

func (n *Node) requestValidate(target string, ticket uint32) (net.ValidateResponse, error) {
	args := net.ValidateRequest{
		Peer:   n.self.Index,
		Ticket: ticket,
	}

	var out net.ValidateResponse

	err := n.trans.Validate(target, &args, &out)

	return out, err
}

func (n *Node) processRPC(rpc net.RPC) {
	switch cmd := rpc.Command.(type) {
	case *net.IssueRequest:
		n.processIssueRequest(rpc, cmd)
	case *net.ValidateRequest:
		n.processValidateRequest(rpc, cmd)
	case *net.ClassifyRequest:
		n.processClassifyRequest(rpc, cmd)
	case *net.RecoverRequest:
		n.processRecoverRequest(rpc, cmd)
	case *net.EchoRequest:
		n.processEchoRequest(rpc, cmd)
	default:
		n.logger.WithField("cmd", rpc.Command).Error("Unexpected RPC command")
		rpc.Respond(nil, fmt.Errorf("unexpected command"))
	}
}

func (n *Node) processIssueRequest(rpc net.RPC, cmd *net.IssueRequest) {
	n.logger.WithFields(logrus.Fields{
		"coins": len(cmd.Coins),
	}).Debug("process IssueRequest")

	resp := &net.IssueResponse{
		Results: make([]bool, len(cmd.Coins)),
	}

	var ticket *pool.Ticket

	busy := false
	passed := 0

	for i, candidate := range cmd.Coins {
		if busy {
			continue
		}

		if !n.authenticate(candidate.Ref, candidate.Value) {
			continue
		}

		//The first authentic coin allocates the one ticket of the batch.
		if ticket == nil {
			t, err := n.pool.Allocate()
			if err != nil {
				n.logger.WithError(err).Error("Allocating ticket")
				busy = true
				continue
			}
			ticket = t
		}

		if !ticket.Append(candidate.Ref) {
			n.logger.WithField("coin", candidate.Ref.String()).Debug("Ticket at capacity")
			continue
		}

		resp.Results[i] = true
		passed++
	}

	if ticket != nil {
		resp.Ticket = ticket.ID()
		ticket.Release()

		atomic.AddUint64(&n.ticketsIssued, 1)
		atomic.AddUint64(&n.coinsTicketed, uint64(passed))
	}

	switch {
	case busy:
		resp.Status = net.StatusBusy
	case passed == len(cmd.Coins) && passed > 0:
		resp.Status = net.StatusAllPass
	case passed == 0:
		resp.Status = net.StatusAllFail
	default:
		resp.Status = net.StatusMixed
	}

	n.logger.WithFields(logrus.Fields{
		"status": resp.Status,
		"ticket": resp.Ticket,
		"passed": passed,
	}).Debug("Responding to IssueRequest")

	rpc.Respond(resp, nil)
}

func (n *Node) processValidateRequest(rpc net.RPC, cmd *net.ValidateRequest) {
	n.logger.WithFields(logrus.Fields{
		"peer":   cmd.Peer,
		"ticket": cmd.Ticket,
	}).Debug("process ValidateRequest")

	resp := &net.ValidateResponse{}

	if int(cmd.Peer) >= n.peerSet.Len() {
		//The claim mask has one bit per peer, so an index outside the peer
		//set cannot be marked.
		resp.Status = net.StatusMalformed
	} else if ticket, err := n.pool.Find(cmd.Ticket); err != nil {
		resp.Status = net.StatusNotFound
	} else if !ticket.Claim(cmd.Peer) {
		ticket.Release()
		resp.Status = net.StatusAlreadyClaimed
	} else {
		resp.Status = net.StatusAllPass
		resp.Coins = ticket.Coins()
		ticket.Release()

		atomic.AddUint64(&n.validationsServed, 1)
	}

	n.logger.WithFields(logrus.Fields{
		"status": resp.Status,
		"coins":  len(resp.Coins),
	}).Debug("Responding to ValidateRequest")

	rpc.Respond(resp, nil)
}

func (n *Node) processClassifyRequest(rpc net.RPC, cmd *net.ClassifyRequest) {
	n.logger.WithFields(logrus.Fields{
		"coins": len(cmd.Coins),
	}).Debug("process ClassifyRequest")

	resp := &net.ClassifyResponse{
		Current:  make([]bool, len(cmd.Coins)),
		Proposed: make([]bool, len(cmd.Coins)),
	}

	current := 0
	proposed := 0

	for i, candidate := range cmd.Coins {
		record, err := n.vault.Acquire(candidate.Ref)
		if err != nil {
			//A coin the vault does not hold classifies as neither.
			continue
		}

		stored := record.AuthValue()
		record.Release()

		//Current wins when a degenerate request presents the same value
		//twice.
		if stored.Equal(candidate.Current) {
			resp.Current[i] = true
			current++
		} else if stored.Equal(candidate.Proposed) {
			resp.Proposed[i] = true
			proposed++
		}
	}

	switch {
	case current == len(cmd.Coins):
		resp.Status = net.StatusAllCurrent
	case proposed == len(cmd.Coins):
		resp.Status = net.StatusAllProposed
	case current == 0 && proposed == 0:
		resp.Status = net.StatusAllNeither
	default:
		resp.Status = net.StatusMixed
	}

	n.logger.WithFields(logrus.Fields{
		"status":   resp.Status,
		"current":  current,
		"proposed": proposed,
	}).Debug("Responding to ClassifyRequest")

	rpc.Respond(resp, nil)
}

func (n *Node) processRecoverRequest(rpc net.RPC, cmd *net.RecoverRequest) {
	named := 0
	for _, id := range cmd.Tickets {
		if id != 0 {
			named++
		}
	}

	n.logger.WithFields(logrus.Fields{
		"coins":   len(cmd.Coins),
		"tickets": named,
	}).Debug("process RecoverRequest")

	resp := &net.RecoverResponse{}

	if len(cmd.Tickets) != n.peerSet.Len() {
		resp.Status = net.StatusMalformed

		n.logger.WithFields(logrus.Fields{
			"tickets": len(cmd.Tickets),
			"peers":   n.peerSet.Len(),
		}).Debug("Responding to RecoverRequest")

		rpc.Respond(resp, nil)

		return
	}

	resp.Recovered = n.heal(cmd.Coins, cmd.Group, cmd.Tickets)

	recovered := 0
	for _, ok := range resp.Recovered {
		if ok {
			recovered++
		}
	}

	switch {
	case recovered == len(resp.Recovered) && recovered > 0:
		resp.Status = net.StatusAllPass
	case recovered == 0:
		resp.Status = net.StatusAllFail
	default:
		resp.Status = net.StatusMixed
	}

	atomic.AddUint64(&n.heals, 1)
	atomic.AddUint64(&n.coinsHealed, uint64(recovered))

	n.logger.WithFields(logrus.Fields{
		"status":    resp.Status,
		"recovered": recovered,
	}).Debug("Responding to RecoverRequest")

	rpc.Respond(resp, nil)

	n.logStats()
}

func (n *Node) processEchoRequest(rpc net.RPC, cmd *net.EchoRequest) {
	n.logger.Debug("process EchoRequest")

	rpc.Respond(&net.EchoResponse{Status: net.StatusAllPass}, nil)
}

// authenticate checks a presented value against the fragment on file for the
// coin. Unknown coins fail.
func (n *Node) authenticate(ref coin.Ref, value coin.AuthValue) bool {
	record, err := n.vault.Acquire(ref)
	if err != nil {
		return false
	}

	match := record.AuthValue().Equal(value)
	record.Release()

	return match
}
