package vault

import (
	"testing"

	"github.com/mendnet/mend/src/coin"
)

func TestMint(t *testing.T) {
	store := NewInmemStore()

	deed, err := Mint(store, []int8{1, 5}, 10)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if len(deed) != 20 {
		t.Fatalf("deed should contain 20 entries, not %d", len(deed))
	}

	if c := store.Count(); c != 20 {
		t.Fatalf("store should count 20 records, not %d", c)
	}

	// The deed must match what the vault holds.
	ref := coin.Ref{Denomination: 5, Serial: 3}

	want, err := coin.AuthValueFromHex(deed[ref.String()])
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	r, err := store.Acquire(ref)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer r.Release()

	if !r.AuthValue().Equal(want) {
		t.Fatalf("record %s should hold %s, not %s", ref, want.Hex(), r.AuthValue().Hex())
	}
}

func TestMintTwice(t *testing.T) {
	store := NewInmemStore()

	if _, err := Mint(store, []int8{1}, 5); err != nil {
		t.Fatalf("err: %v", err)
	}

	if _, err := Mint(store, []int8{1}, 5); err == nil {
		t.Fatal("minting the same serials twice should fail")
	}
}

func TestMintRejectsEmptyRun(t *testing.T) {
	store := NewInmemStore()

	if _, err := Mint(store, nil, 5); err == nil {
		t.Fatal("minting without denominations should fail")
	}

	if _, err := Mint(store, []int8{1}, 0); err == nil {
		t.Fatal("minting zero coins should fail")
	}
}
