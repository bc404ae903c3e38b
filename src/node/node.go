package node

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mendnet/mend/src/config"
	"github.com/mendnet/mend/src/net"
	"github.com/mendnet/mend/src/peers"
	"github.com/mendnet/mend/src/pool"
	"github.com/mendnet/mend/src/vault"
	"github.com/sirupsen/logrus"
)

//Node defines a mend node
type Node struct {
	state

	conf   *config.Config
	logger *logrus.Entry

	self    *peers.Peer
	peerSet *peers.PeerSet

	vault vault.Store
	pool  *pool.Pool

	trans net.Transport
	netCh <-chan net.RPC

	sigintCh   chan os.Signal
	shutdownCh chan struct{}

	start time.Time

	ticketsIssued     uint64
	coinsTicketed     uint64
	validationsServed uint64
	heals             uint64
	coinsHealed       uint64
	peerFailures      uint64
}

//NewNode is a factory method that returns a Node instance
func NewNode(conf *config.Config,
	self *peers.Peer,
	peerSet *peers.PeerSet,
	store vault.Store,
	ticketPool *pool.Pool,
	trans net.Transport,
) *Node {
	//Prepare sigintCh to relay SIGINT system calls
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGINT)

	node := Node{
		conf:       conf,
		logger:     conf.Logger().WithField("this_index", self.Index),
		self:       self,
		peerSet:    peerSet,
		vault:      store,
		pool:       ticketPool,
		trans:      trans,
		netCh:      trans.Consumer(),
		sigintCh:   sigintCh,
		shutdownCh: make(chan struct{}),
	}

	return &node
}

//Init intialises the node
func (n *Node) Init() error {
	n.logger.WithFields(logrus.Fields{
		"index":   n.self.Index,
		"moniker": n.self.Moniker,
		"peers":   n.peerSet.Len(),
		"quorum":  n.peerSet.Quorum(),
		"coins":   n.vault.Count(),
	}).Debug("Init")

	n.start = time.Now()

	n.setState(Serving)

	return nil
}

//RunAsync calls Run as a separate thread
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")

	go n.Run()
}

//Run invokes the main loop of the node
func (n *Node) Run() {
	//Accept connections and serve requests from other nodes and from clients
	//regardless of the state of the node.
	go n.trans.Listen()
	go n.doBackgroundWork()

	//Execute Node State Machine
	for {
		//Run different routines depending on node state
		state := n.getState()

		n.logger.WithField("state", state.String()).Debug("Run loop")

		switch state {
		case Serving:
			n.serve()
		case Shutdown:
			return
		}
	}
}

func (n *Node) doBackgroundWork() {
	for {
		select {
		case rpc := <-n.netCh:
			n.goFunc(func() {
				n.logger.Debug("Processing RPC")
				n.processRPC(rpc)
			})
		case <-n.shutdownCh:
			return
		case <-n.sigintCh:
			n.logger.Debug("Reacting to SIGINT")
			n.Shutdown()
			os.Exit(0)
		}
	}
}

// serve periodically flushes dirty vault records while requests are handled in
// the background routines.
func (n *Node) serve() {
	n.logger.Debug("SERVING")

	flushTicker := time.NewTicker(n.conf.FlushInterval)
	defer flushTicker.Stop()

	for {
		select {
		case <-flushTicker.C:
			if err := n.vault.Flush(); err != nil {
				n.logger.WithError(err).Error("Flushing vault")
			}
		case <-n.shutdownCh:
			return
		}
	}
}

//Shutdown shuts down the node
func (n *Node) Shutdown() {
	if n.getState() != Shutdown {
		n.logger.Debug("Shutdown")

		//Exit any non-shutdown state immediately
		n.setState(Shutdown)

		//Stop and wait for concurrent operations
		close(n.shutdownCh)

		n.waitRoutines()

		//transport and store should only be closed once all concurrent
		//operations are finished otherwise they will panic trying to use
		//closed objects
		n.trans.Close()

		if err := n.vault.Close(); err != nil {
			n.logger.WithError(err).Error("Closing vault")
		}
	}
}

//GetStats returns operational statistics
func (n *Node) GetStats() map[string]string {
	timeElapsed := time.Since(n.start)

	heals := atomic.LoadUint64(&n.heals)

	healsPerSecond := float64(heals) / timeElapsed.Seconds()

	poolStats := n.pool.Stats()

	s := map[string]string{
		"tickets_issued":     strconv.FormatUint(atomic.LoadUint64(&n.ticketsIssued), 10),
		"coins_ticketed":     strconv.FormatUint(atomic.LoadUint64(&n.coinsTicketed), 10),
		"validations_served": strconv.FormatUint(atomic.LoadUint64(&n.validationsServed), 10),
		"heals":              strconv.FormatUint(heals, 10),
		"coins_healed":       strconv.FormatUint(atomic.LoadUint64(&n.coinsHealed), 10),
		"peer_failures":      strconv.FormatUint(atomic.LoadUint64(&n.peerFailures), 10),
		"heals_per_second":   strconv.FormatFloat(healsPerSecond, 'f', 2, 64),
		"pool_capacity":      strconv.Itoa(poolStats.Capacity),
		"pool_live":          strconv.Itoa(poolStats.Live),
		"pool_busy":          strconv.Itoa(poolStats.Busy),
		"vault_coins":        strconv.Itoa(n.vault.Count()),
		"num_peers":          strconv.Itoa(n.peerSet.Len()),
		"quorum":             strconv.Itoa(n.peerSet.Quorum()),
		"index":              fmt.Sprint(n.self.Index),
		"state":              n.getState().String(),
		"moniker":            n.self.Moniker,
	}
	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"tickets_issued":     stats["tickets_issued"],
		"coins_ticketed":     stats["coins_ticketed"],
		"validations_served": stats["validations_served"],
		"heals":              stats["heals"],
		"coins_healed":       stats["coins_healed"],
		"peer_failures":      stats["peer_failures"],
		"pool_live":          stats["pool_live"],
		"vault_coins":        stats["vault_coins"],
		"state":              stats["state"],
	}).Debug("Stats")
}

//Index returns this node's position in the peer set
func (n *Node) Index() uint8 {
	return n.self.Index
}

//GetPeers returns the peers
func (n *Node) GetPeers() []*peers.Peer {
	return n.peerSet.Peers
}

//GetPoolStats returns ticket pool occupancy
func (n *Node) GetPoolStats() pool.Stats {
	return n.pool.Stats()
}
