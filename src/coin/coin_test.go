package coin

import (
	"testing"
)

func TestRefString(t *testing.T) {
	ref := Ref{Denomination: 3, Serial: 1048576}

	if s := ref.String(); s != "3.1048576" {
		t.Fatalf("Ref.String() should be 3.1048576, not %s", s)
	}
}

func TestAuthValueEqual(t *testing.T) {
	a := AuthValue{0x01, 0x02, 0x03}
	b := AuthValue{0x01, 0x02, 0x03}
	c := AuthValue{0x01, 0x02, 0x04}

	if !a.Equal(b) {
		t.Fatal("identical values should compare equal")
	}

	if a.Equal(c) {
		t.Fatal("different values should not compare equal")
	}
}

func TestAuthValueHexRoundTrip(t *testing.T) {
	v := AuthValue{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33,
		0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb}

	parsed, err := AuthValueFromHex(v.Hex())
	if err != nil {
		t.Fatal(err)
	}

	if !parsed.Equal(v) {
		t.Fatalf("parsed value %s does not match original %s", parsed.Hex(), v.Hex())
	}
}

func TestAuthValueFromHexRejectsBadInput(t *testing.T) {
	if _, err := AuthValueFromHex("abcd"); err == nil {
		t.Fatal("short input should be rejected")
	}

	if _, err := AuthValueFromHex("zz"); err == nil {
		t.Fatal("non-hex input should be rejected")
	}
}
