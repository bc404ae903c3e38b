package peers

import (
	"fmt"
	"testing"
)

func fakePeerSlice(n int) []*Peer {
	peers := []*Peer{}
	for i := 0; i < n; i++ {
		peers = append(peers, NewPeer(uint8(i), fmt.Sprintf("addr%d:1337", i), ""))
	}
	return peers
}

func TestNewPeerSet(t *testing.T) {
	peerSet, err := NewPeerSet(fakePeerSlice(3))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if peerSet.Len() != 3 {
		t.Fatalf("peer set should contain 3 peers, not %d", peerSet.Len())
	}

	for i := 0; i < 3; i++ {
		p, ok := peerSet.ByIndex[uint8(i)]
		if !ok {
			t.Fatalf("ByIndex should contain peer %d", i)
		}
		if p.Moniker != fmt.Sprintf("node%d", i) {
			t.Fatalf("peer %d moniker should be node%d, not %s", i, i, p.Moniker)
		}
	}
}

func TestNewPeerSetTooSmall(t *testing.T) {
	if _, err := NewPeerSet(fakePeerSlice(1)); err == nil {
		t.Fatal("a single peer should be rejected")
	}
}

func TestNewPeerSetGap(t *testing.T) {
	peers := fakePeerSlice(3)
	peers[2].Index = 5

	if _, err := NewPeerSet(peers); err == nil {
		t.Fatal("non-contiguous indexes should be rejected")
	}
}

func TestNewPeerSetDuplicateIndex(t *testing.T) {
	peers := fakePeerSlice(3)
	peers[2].Index = 1

	if _, err := NewPeerSet(peers); err == nil {
		t.Fatal("duplicate indexes should be rejected")
	}
}

func TestNewPeerSetMissingAddr(t *testing.T) {
	peers := fakePeerSlice(3)
	peers[1].NetAddr = ""

	if _, err := NewPeerSet(peers); err == nil {
		t.Fatal("a peer without an address should be rejected")
	}
}

func TestQuorum(t *testing.T) {
	testCases := []struct {
		n      int
		quorum int
	}{
		{2, 2},
		{3, 2},
		{4, 3},
		{5, 3},
		{24, 13},
		{25, 13},
	}

	for _, tc := range testCases {
		peerSet, err := NewPeerSet(fakePeerSlice(tc.n))
		if err != nil {
			t.Fatalf("err: %v", err)
		}

		if q := peerSet.Quorum(); q != tc.quorum {
			t.Fatalf("quorum of %d peers should be %d, not %d", tc.n, tc.quorum, q)
		}
	}
}

func TestOthers(t *testing.T) {
	peerSet, err := NewPeerSet(fakePeerSlice(5))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	others := peerSet.Others(2)

	if len(others) != 4 {
		t.Fatalf("Others should return 4 peers, not %d", len(others))
	}

	for _, p := range others {
		if p.Index == 2 {
			t.Fatal("Others should not contain the excluded peer")
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	peerSet, err := NewPeerSet(fakePeerSlice(4))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	raw, err := peerSet.Marshal()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	decoded, err := NewPeerSetFromPeerSliceBytes(raw)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if decoded.Len() != peerSet.Len() {
		t.Fatalf("decoded peer set should contain %d peers, not %d", peerSet.Len(), decoded.Len())
	}

	for i, p := range decoded.Peers {
		if p.NetAddr != peerSet.Peers[i].NetAddr {
			t.Fatalf("peers[%d] NetAddr should be %s, not %s", i, peerSet.Peers[i].NetAddr, p.NetAddr)
		}
	}
}
