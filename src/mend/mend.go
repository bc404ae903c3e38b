package mend

import (
	"fmt"

	"github.com/mendnet/mend/src/config"
	"github.com/mendnet/mend/src/net"
	"github.com/mendnet/mend/src/node"
	"github.com/mendnet/mend/src/peers"
	"github.com/mendnet/mend/src/pool"
	"github.com/mendnet/mend/src/service"
	"github.com/mendnet/mend/src/vault"
	"github.com/sirupsen/logrus"
)

// Mend is one member of a coin recovery network. It ties together the peer
// set, the coin vault, the ticket pool, the transport, the node, and the HTTP
// service.
type Mend struct {
	Config    *config.Config
	Node      *node.Node
	Transport net.Transport
	Store     vault.Store
	Pool      *pool.Pool
	Peers     *peers.PeerSet
	Service   *service.Service
}

// NewMend instantiates an engine from a configuration. Call Init before Run.
func NewMend(config *config.Config) *Mend {
	engine := &Mend{
		Config: config,
	}

	return engine
}

func (m *Mend) initPeers() error {
	peerStore := peers.NewJSONPeerSet(m.Config.DataDir)

	participants, err := peerStore.PeerSet()
	if err != nil {
		return err
	}

	m.Peers = participants

	return nil
}

func (m *Mend) initStore() error {
	if !m.Config.Store {
		m.Store = vault.NewInmemStore()

		m.Config.Logger().Debug("created new in-mem vault")

		return nil
	}

	m.Config.Logger().WithField("path", m.Config.DatabaseDir).Debug("Attempting to load or create vault")

	store, err := vault.LoadOrCreateBadgerStore(m.Config.DatabaseDir)

	if err != nil {
		return err
	}

	if store.NeedBootstrap() {
		m.Config.Logger().Debug("loaded badger vault from existing database")
	} else {
		m.Config.Logger().Debug("created new badger vault from fresh database")
	}

	m.Store = store

	return nil
}

func (m *Mend) initPool() error {
	ticketPool, err := pool.NewPool(
		m.Config.PoolSize,
		m.Config.TicketCap,
		m.Config.TicketTTL,
	)

	if err != nil {
		return err
	}

	m.Pool = ticketPool

	return nil
}

func (m *Mend) initTransport() error {
	transport, err := net.NewTCPTransport(
		m.Config.BindAddr,
		m.Config.AdvertiseAddr,
		m.Config.MaxPool,
		m.Peers.Len(),
		m.Config.TCPTimeout,
		m.Config.HealTimeout,
		m.Config.Logger(),
	)

	if err != nil {
		return err
	}

	m.Transport = transport

	return nil
}

func (m *Mend) initNode() error {
	if m.Config.Index < 0 || m.Config.Index >= peers.MaxPeers {
		return fmt.Errorf("index %d out of range", m.Config.Index)
	}

	self, ok := m.Peers.ByIndex[uint8(m.Config.Index)]

	if !ok {
		return fmt.Errorf("cannot find peer %d in peers.json", m.Config.Index)
	}

	m.Config.Logger().WithFields(logrus.Fields{
		"index": self.Index,
		"peers": m.Peers.Len(),
	}).Debug("PARTICIPANTS")

	m.Node = node.NewNode(
		m.Config,
		self,
		m.Peers,
		m.Store,
		m.Pool,
		m.Transport,
	)

	if err := m.Node.Init(); err != nil {
		return fmt.Errorf("failed to initialize node: %s", err)
	}

	return nil
}

func (m *Mend) initService() error {
	if !m.Config.NoService {
		m.Service = service.NewService(m.Config.ServiceAddr, m.Node, m.Config.Logger())
	}
	return nil
}

// Init builds the engine components in dependency order.
func (m *Mend) Init() error {
	if err := m.initPeers(); err != nil {
		return err
	}

	if err := m.initStore(); err != nil {
		return err
	}

	if err := m.initPool(); err != nil {
		return err
	}

	if err := m.initTransport(); err != nil {
		return err
	}

	if err := m.initNode(); err != nil {
		return err
	}

	if err := m.initService(); err != nil {
		return err
	}

	return nil
}

// Run starts the HTTP service and the node main loop. This is a blocking
// call; it returns when the node shuts down.
func (m *Mend) Run() {
	if m.Service != nil {
		go m.Service.Serve()
	}

	m.Node.Run()
}
