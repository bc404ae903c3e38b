package crypto

import (
	"testing"

	"github.com/mendnet/mend/src/coin"
)

func TestRecoverySecretDeterministic(t *testing.T) {
	group := [RecoverySecretSize]byte{0x01, 0x02, 0x03, 0x04}
	ref := coin.Ref{Denomination: 5, Serial: 777}

	first := RecoverySecret(3, group, ref)
	second := RecoverySecret(3, group, ref)

	if !first.Equal(second) {
		t.Fatal("same inputs should derive the same secret")
	}
}

func TestRecoverySecretBindsNodeIndex(t *testing.T) {
	group := [RecoverySecretSize]byte{0x01, 0x02, 0x03, 0x04}
	ref := coin.Ref{Denomination: 5, Serial: 777}

	if RecoverySecret(3, group, ref).Equal(RecoverySecret(4, group, ref)) {
		t.Fatal("different nodes should derive different secrets")
	}
}

func TestRecoverySecretBindsCoin(t *testing.T) {
	group := [RecoverySecretSize]byte{0x01, 0x02, 0x03, 0x04}

	a := RecoverySecret(3, group, coin.Ref{Denomination: 5, Serial: 777})
	b := RecoverySecret(3, group, coin.Ref{Denomination: 5, Serial: 778})
	c := RecoverySecret(3, group, coin.Ref{Denomination: 6, Serial: 777})

	if a.Equal(b) || a.Equal(c) {
		t.Fatal("different coins should derive different secrets")
	}
}

func TestRecoverySecretBindsGroup(t *testing.T) {
	ref := coin.Ref{Denomination: 5, Serial: 777}

	a := RecoverySecret(3, [RecoverySecretSize]byte{0x01}, ref)
	b := RecoverySecret(3, [RecoverySecretSize]byte{0x02}, ref)

	if a.Equal(b) {
		t.Fatal("different groups should derive different secrets")
	}
}

func TestRandomTicketIDNonZero(t *testing.T) {
	for i := 0; i < 100; i++ {
		if RandomTicketID() == 0 {
			t.Fatal("ticket identifiers should never be zero")
		}
	}
}
