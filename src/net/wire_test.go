package net

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/mendnet/mend/src/coin"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w := bufio.NewWriter(&buf)
	if err := writeFrame(w, rpcIssue, []byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("err: %v", err)
	}

	lead, body, err := readFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if lead != rpcIssue {
		t.Fatalf("lead byte should be %d, not %d", rpcIssue, lead)
	}

	if !bytes.Equal(body, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("body should be 010203, not %x", body)
	}
}

func TestFrameEmptyBody(t *testing.T) {
	var buf bytes.Buffer

	w := bufio.NewWriter(&buf)
	if err := writeFrame(w, StatusNotFound, nil); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("err: %v", err)
	}

	lead, body, err := readFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if lead != StatusNotFound {
		t.Fatalf("lead byte should be %d, not %d", StatusNotFound, lead)
	}

	if len(body) != 0 {
		t.Fatalf("body should be empty, not %x", body)
	}
}

func TestFrameBadTrailer(t *testing.T) {
	raw := []byte{rpcEcho, 0, 0, 0, 0, 0x3e, 0x00}

	if _, _, err := readFrame(bufio.NewReader(bytes.NewReader(raw))); err != errBadTrailer {
		t.Fatalf("err should be errBadTrailer, not %v", err)
	}
}

func TestFrameTooLarge(t *testing.T) {
	raw := []byte{rpcEcho, 0xff, 0xff, 0xff, 0xff}

	if _, _, err := readFrame(bufio.NewReader(bytes.NewReader(raw))); err != errFrameTooLarge {
		t.Fatalf("err should be errFrameTooLarge, not %v", err)
	}
}

func TestPackBits(t *testing.T) {
	// pass, fail, pass packs to 10100000.
	bitmap := packBits([]bool{true, false, true})

	if !bytes.Equal(bitmap, []byte{0xa0}) {
		t.Fatalf("bitmap should be a0, not %x", bitmap)
	}

	bits, err := unpackBits(bitmap, 3)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(bits, []bool{true, false, true}) {
		t.Fatalf("bits should be [true false true], not %v", bits)
	}
}

func TestPackBitsMultiByte(t *testing.T) {
	bits := make([]bool, 11)
	bits[0], bits[8], bits[10] = true, true, true

	bitmap := packBits(bits)

	if !bytes.Equal(bitmap, []byte{0x80, 0xa0}) {
		t.Fatalf("bitmap should be 80a0, not %x", bitmap)
	}

	out, err := unpackBits(bitmap, 11)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(out, bits) {
		t.Fatalf("bits should be %v, not %v", bits, out)
	}
}

func TestUnpackBitsBadLength(t *testing.T) {
	if _, err := unpackBits([]byte{0x00, 0x00}, 3); err == nil {
		t.Fatal("oversized bitmap should be rejected")
	}
}

func TestIssueRequestRoundTrip(t *testing.T) {
	req := &IssueRequest{
		Coins: []CoinCandidate{
			{Ref: coin.Ref{Denomination: 1, Serial: 100}, Value: coin.AuthValue{0x01}},
			{Ref: coin.Ref{Denomination: 25, Serial: 7}, Value: coin.AuthValue{0x02}},
		},
	}

	out, err := unmarshalIssueRequest(marshalIssueRequest(req))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(out, req) {
		t.Fatalf("request mismatch: %#v %#v", out, req)
	}
}

func TestIssueRequestRejectsBadBody(t *testing.T) {
	if _, err := unmarshalIssueRequest(nil); err == nil {
		t.Fatal("empty issue body should be rejected")
	}

	if _, err := unmarshalIssueRequest(make([]byte, issueCandidateSize+1)); err == nil {
		t.Fatal("ragged issue body should be rejected")
	}
}

func TestValidateRequestRoundTrip(t *testing.T) {
	req := &ValidateRequest{Peer: 7, Ticket: 0xdeadbeef}

	out, err := unmarshalValidateRequest(marshalValidateRequest(req))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(out, req) {
		t.Fatalf("request mismatch: %#v %#v", out, req)
	}

	if _, err := unmarshalValidateRequest([]byte{1, 2, 3}); err == nil {
		t.Fatal("short validate body should be rejected")
	}
}

func TestClassifyRequestRoundTrip(t *testing.T) {
	req := &ClassifyRequest{
		Coins: []ClassifyCandidate{
			{
				Ref:      coin.Ref{Denomination: 5, Serial: 42},
				Current:  coin.AuthValue{0xaa},
				Proposed: coin.AuthValue{0xbb},
			},
		},
	}

	out, err := unmarshalClassifyRequest(marshalClassifyRequest(req))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(out, req) {
		t.Fatalf("request mismatch: %#v %#v", out, req)
	}
}

func TestRecoverRequestRoundTrip(t *testing.T) {
	req := &RecoverRequest{
		Coins: []coin.Ref{
			{Denomination: 1, Serial: 9},
			{Denomination: 5, Serial: 10},
		},
		Group:   [16]byte{0x11, 0x22},
		Tickets: []uint32{0, 77, 0, 91},
	}

	out, err := unmarshalRecoverRequest(marshalRecoverRequest(req), 4)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(out, req) {
		t.Fatalf("request mismatch: %#v %#v", out, req)
	}
}

func TestRecoverRequestRejectsShortBody(t *testing.T) {
	if _, err := unmarshalRecoverRequest(make([]byte, groupSecretSize), 4); err == nil {
		t.Fatal("recover body without coins should be rejected")
	}
}

func TestIssueResponseRoundTrip(t *testing.T) {
	resp := &IssueResponse{
		Status:  StatusMixed,
		Ticket:  12345,
		Results: []bool{true, false, true},
	}

	out, err := unmarshalIssueResponse(resp.Status, marshalIssueResponse(resp), 3)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(out, resp) {
		t.Fatalf("response mismatch: %#v %#v", out, resp)
	}
}

func TestIssueResponseEmptyBodyStatus(t *testing.T) {
	out, err := unmarshalIssueResponse(StatusBusy, nil, 3)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if out.Status != StatusBusy || out.Ticket != 0 || out.Results != nil {
		t.Fatalf("busy response should be bare: %#v", out)
	}
}

func TestValidateResponseRoundTrip(t *testing.T) {
	resp := &ValidateResponse{
		Status: StatusAllPass,
		Coins: []coin.Ref{
			{Denomination: 1, Serial: 3},
			{Denomination: 100, Serial: 4},
		},
	}

	out, err := unmarshalValidateResponse(resp.Status, marshalValidateResponse(resp))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(out, resp) {
		t.Fatalf("response mismatch: %#v %#v", out, resp)
	}
}

func TestClassifyResponseRoundTrip(t *testing.T) {
	resp := &ClassifyResponse{
		Status:   StatusMixed,
		Current:  []bool{true, false, false},
		Proposed: []bool{false, true, false},
	}

	out, err := unmarshalClassifyResponse(resp.Status, marshalClassifyResponse(resp), 3)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(out, resp) {
		t.Fatalf("response mismatch: %#v %#v", out, resp)
	}
}

func TestClassifyResponseWireLayout(t *testing.T) {
	// One classification byte per coin: 0 neither, 1 current, 2 proposed.
	resp := &ClassifyResponse{
		Status:   StatusMixed,
		Current:  []bool{true, false, false},
		Proposed: []bool{false, false, true},
	}

	body := marshalClassifyResponse(resp)

	if !bytes.Equal(body, []byte{0x01, 0x00, 0x02}) {
		t.Fatalf("classify body should be 010002, not %x", body)
	}
}

func TestClassifyResponseRejectsBadBody(t *testing.T) {
	if _, err := unmarshalClassifyResponse(StatusMixed, []byte{0x01, 0x00}, 3); err == nil {
		t.Fatal("short classify body should be rejected")
	}

	if _, err := unmarshalClassifyResponse(StatusMixed, []byte{0x01, 0x07, 0x00}, 3); err == nil {
		t.Fatal("unknown classification byte should be rejected")
	}
}

func TestRecoverResponseRoundTrip(t *testing.T) {
	resp := &RecoverResponse{
		Status:    StatusAllPass,
		Recovered: []bool{true, true},
	}

	out, err := unmarshalRecoverResponse(resp.Status, marshalRecoverResponse(resp), 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(out, resp) {
		t.Fatalf("response mismatch: %#v %#v", out, resp)
	}
}

func TestRecoverRequestWireLayout(t *testing.T) {
	req := &RecoverRequest{
		Coins:   []coin.Ref{{Denomination: 2, Serial: 1}},
		Group:   [16]byte{0xff},
		Tickets: []uint32{5, 6},
	}

	body := marshalRecoverRequest(req)

	want := refSize + groupSecretSize + 4*2
	if len(body) != want {
		t.Fatalf("recover body should be %d bytes, not %d", want, len(body))
	}

	if body[0] != 2 {
		t.Fatalf("first byte should be the denomination, not %d", body[0])
	}

	if got := binary.BigEndian.Uint32(body[len(body)-4:]); got != 6 {
		t.Fatalf("last ticket should be 6, not %d", got)
	}
}
