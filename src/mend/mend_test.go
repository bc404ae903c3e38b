package mend

import (
	"fmt"
	"os"
	"testing"

	"github.com/mendnet/mend/src/coin"
	"github.com/mendnet/mend/src/config"
	"github.com/mendnet/mend/src/crypto"
	"github.com/mendnet/mend/src/peers"
	"github.com/mendnet/mend/src/vault"
)

func writeTestPeers(t *testing.T, dataDir string, n int) {
	jsonPeerSet := peers.NewJSONPeerSet(dataDir)

	peerSlice := []*peers.Peer{}
	for i := 0; i < n; i++ {
		peerSlice = append(peerSlice,
			peers.NewPeer(uint8(i), fmt.Sprintf("127.0.0.1:%d", 9000+i), ""))
	}

	if err := jsonPeerSet.Write(peerSlice); err != nil {
		t.Fatalf("err: %v", err)
	}
}

func TestInitPeers(t *testing.T) {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)
	defer os.RemoveAll("test_data")

	writeTestPeers(t, "test_data", 3)

	conf := config.NewTestConfig(t)
	conf.SetDataDir("test_data")

	engine := NewMend(conf)

	if err := engine.initPeers(); err != nil {
		t.Fatal(err)
	}

	if engine.Peers.Len() != 3 {
		t.Fatalf("peers should be 3, not %d", engine.Peers.Len())
	}

	if engine.Peers.Quorum() != 2 {
		t.Fatalf("quorum should be 2, not %d", engine.Peers.Quorum())
	}
}

func TestInitStore(t *testing.T) {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)
	defer os.RemoveAll("test_data")

	conf := config.NewTestConfig(t)
	conf.SetDataDir("test_data")
	conf.Store = true

	engine := NewMend(conf)

	if err := engine.initStore(); err != nil {
		t.Fatal(err)
	}

	ref := coin.Ref{Denomination: 1, Serial: 42}
	value := crypto.RandomAuthValue()

	if err := engine.Store.Add(ref, value); err != nil {
		t.Fatalf("err: %v", err)
	}

	if err := engine.Store.Close(); err != nil {
		t.Fatalf("err: %v", err)
	}

	//A second engine on the same datadir loads the existing database.
	engine2 := NewMend(conf)

	if err := engine2.initStore(); err != nil {
		t.Fatal(err)
	}
	defer engine2.Store.Close()

	if !engine2.Store.(*vault.BadgerStore).NeedBootstrap() {
		t.Fatal("second engine should load the existing database")
	}

	record, err := engine2.Store.Acquire(ref)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	stored := record.AuthValue()
	record.Release()

	if !stored.Equal(value) {
		t.Fatalf("value should be %v, not %v", value, stored)
	}
}

func TestInit(t *testing.T) {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)
	defer os.RemoveAll("test_data")

	writeTestPeers(t, "test_data", 3)

	conf := config.NewTestConfig(t)
	conf.SetDataDir("test_data")
	conf.BindAddr = "127.0.0.1:0"

	engine := NewMend(conf)

	if err := engine.Init(); err != nil {
		t.Fatal(err)
	}
	defer engine.Node.Shutdown()

	if engine.Node == nil {
		t.Fatal("node should be initialized")
	}

	if engine.Service == nil {
		t.Fatal("service should be initialized")
	}

	if engine.Node.Index() != 0 {
		t.Fatalf("index should be 0, not %d", engine.Node.Index())
	}

	stats := engine.Node.GetStats()
	if stats["num_peers"] != "3" {
		t.Fatalf("num_peers should be 3, not %s", stats["num_peers"])
	}
}

func TestInitNodeBadIndex(t *testing.T) {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)
	defer os.RemoveAll("test_data")

	writeTestPeers(t, "test_data", 3)

	conf := config.NewTestConfig(t)
	conf.SetDataDir("test_data")
	conf.BindAddr = "127.0.0.1:0"
	conf.NoService = true
	conf.Index = 7

	engine := NewMend(conf)

	err := engine.Init()
	if err == nil {
		engine.Node.Shutdown()
		t.Fatal("Init should fail when the index is not in peers.json")
	}

	//initTransport ran before initNode failed, so the listener is open.
	if engine.Transport != nil {
		engine.Transport.Close()
	}
}
