package node

import (
	"sync"
	"sync/atomic"

	"github.com/mendnet/mend/src/coin"
	"github.com/mendnet/mend/src/common"
	"github.com/mendnet/mend/src/crypto"
	"github.com/mendnet/mend/src/net"
	"github.com/mendnet/mend/src/peers"
	"github.com/sirupsen/logrus"
)

// heal asks every peer named in the ticket list to vouch for the requested
// coins, then replaces the local fragment of each coin that gathered a quorum
// of votes. The returned slice has one entry per requested coin, in request
// order.
//
// Peers are queried in parallel and joined before tallying. A peer that
// cannot be reached, times out, or refuses its ticket contributes no votes
// and never fails the request.
func (n *Node) heal(refs []coin.Ref, group [16]byte, tickets []uint32) []bool {
	tally := make(map[coin.Ref]int, len(refs))
	for _, ref := range refs {
		tally[ref] = 0
	}

	votesCh := make(chan []coin.Ref, len(tickets))

	var wg sync.WaitGroup

	for _, peer := range n.peerSet.Others(n.self.Index) {
		ticket := tickets[peer.Index]
		if ticket == 0 {
			continue
		}

		wg.Add(1)

		go func(peer *peers.Peer, ticket uint32) {
			defer wg.Done()

			resp, err := n.requestValidate(peer.NetAddr, ticket)
			if err != nil {
				n.logger.WithFields(logrus.Fields{
					"peer":  peer.Index,
					"error": err,
				}).Debug("requestValidate()")

				atomic.AddUint64(&n.peerFailures, 1)

				return
			}

			if resp.Status != net.StatusAllPass {
				n.logger.WithFields(logrus.Fields{
					"peer":   peer.Index,
					"status": resp.Status,
				}).Debug("Ticket not honoured")

				atomic.AddUint64(&n.peerFailures, 1)

				return
			}

			votesCh <- resp.Coins
		}(peer, ticket)
	}

	wg.Wait()
	close(votesCh)

	for vouched := range votesCh {
		//A peer votes at most once per coin, and only for requested coins.
		seen := make(map[coin.Ref]bool, len(vouched))

		for _, ref := range vouched {
			if seen[ref] {
				continue
			}
			seen[ref] = true

			if _, ok := tally[ref]; ok {
				tally[ref]++
			}
		}
	}

	quorum := n.peerSet.Quorum()

	recovered := make([]bool, len(refs))
	for i, ref := range refs {
		n.logger.WithFields(logrus.Fields{
			"coin":   ref.String(),
			"votes":  tally[ref],
			"quorum": quorum,
		}).Debug("Tally")

		if tally[ref] >= quorum {
			recovered[i] = n.replaceFragment(ref, group)
		}
	}

	return recovered
}

// replaceFragment commits the derived fragment for one coin. A record the
// vault lost entirely is recreated, since a quorum of the network has just
// vouched for the coin.
func (n *Node) replaceFragment(ref coin.Ref, group [16]byte) bool {
	value := crypto.RecoverySecret(n.self.Index, group, ref)

	record, err := n.vault.Acquire(ref)
	if err != nil {
		if !common.IsStore(err, common.KeyNotFound) {
			n.logger.WithFields(logrus.Fields{
				"coin":  ref.String(),
				"error": err,
			}).Error("Acquiring record")

			return false
		}

		if err := n.vault.Add(ref, value); err != nil {
			n.logger.WithFields(logrus.Fields{
				"coin":  ref.String(),
				"error": err,
			}).Error("Recreating record")

			return false
		}

		return true
	}

	record.SetAuthValue(value)
	record.Release()

	return true
}
