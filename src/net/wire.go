package net

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mendnet/mend/src/coin"
)

// Wire opcodes, one per operation.
const (
	rpcEcho     uint8 = 0x00
	rpcIssue    uint8 = 0x01
	rpcValidate uint8 = 0x02
	rpcClassify uint8 = 0x03
	rpcRecover  uint8 = 0x04
)

const (
	// maxFrameBody caps the size of a frame body.
	maxFrameBody = 1 << 20

	refSize               = 1 + 4
	issueCandidateSize    = refSize + coin.AuthValueSize
	classifyCandidateSize = refSize + 2*coin.AuthValueSize
	groupSecretSize       = 16
)

// Frames end with two sentinel bytes so both sides detect a desynced stream
// early.
var frameTrailer = [2]byte{0x3e, 0x3e}

var (
	errFrameTooLarge = fmt.Errorf("frame body exceeds %d bytes", maxFrameBody)
	errBadTrailer    = fmt.Errorf("frame trailer mismatch")
)

// writeFrame writes one frame: a leading byte (the opcode on requests, the
// status on responses), the body length, the body, and the trailer.
func writeFrame(w *bufio.Writer, lead uint8, body []byte) error {
	if err := w.WriteByte(lead); err != nil {
		return err
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}

	if _, err := w.Write(body); err != nil {
		return err
	}

	if _, err := w.Write(frameTrailer[:]); err != nil {
		return err
	}

	return nil
}

// readFrame reads one frame and returns the leading byte and the body.
func readFrame(r *bufio.Reader) (uint8, []byte, error) {
	lead, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}

	bodyLen := binary.BigEndian.Uint32(lenBuf[:])
	if bodyLen > maxFrameBody {
		return 0, nil, errFrameTooLarge
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}

	var trailer [2]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return 0, nil, err
	}
	if trailer != frameTrailer {
		return 0, nil, errBadTrailer
	}

	return lead, body, nil
}

/*******************************************************************************
Bitmaps
*******************************************************************************/

// packBits packs results into a bitmap, most significant bit first, padded
// with zeros to a whole number of bytes.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// unpackBits reads n bits from a bitmap packed most significant bit first.
func unpackBits(buf []byte, n int) ([]bool, error) {
	if len(buf) != (n+7)/8 {
		return nil, fmt.Errorf("bitmap should be %d bytes for %d results, not %d", (n+7)/8, n, len(buf))
	}

	out := make([]bool, n)
	for i := range out {
		out[i] = buf[i/8]&(1<<uint(7-i%8)) != 0
	}
	return out, nil
}

/*******************************************************************************
Coin lists
*******************************************************************************/

func appendRef(body []byte, ref coin.Ref) []byte {
	body = append(body, byte(ref.Denomination))
	return binary.BigEndian.AppendUint32(body, ref.Serial)
}

func readRef(buf []byte) coin.Ref {
	return coin.Ref{
		Denomination: int8(buf[0]),
		Serial:       binary.BigEndian.Uint32(buf[1:5]),
	}
}

func unmarshalRefs(body []byte) ([]coin.Ref, error) {
	if len(body)%refSize != 0 {
		return nil, fmt.Errorf("coin list must be a multiple of %d bytes, not %d", refSize, len(body))
	}

	refs := make([]coin.Ref, len(body)/refSize)
	for i := range refs {
		refs[i] = readRef(body[i*refSize:])
	}
	return refs, nil
}

/*******************************************************************************
Requests
*******************************************************************************/

func marshalIssueRequest(req *IssueRequest) []byte {
	body := make([]byte, 0, len(req.Coins)*issueCandidateSize)
	for _, c := range req.Coins {
		body = appendRef(body, c.Ref)
		body = append(body, c.Value[:]...)
	}
	return body
}

func unmarshalIssueRequest(body []byte) (*IssueRequest, error) {
	if len(body) == 0 || len(body)%issueCandidateSize != 0 {
		return nil, fmt.Errorf("issue body must be a non-empty multiple of %d bytes, not %d", issueCandidateSize, len(body))
	}

	req := &IssueRequest{Coins: make([]CoinCandidate, len(body)/issueCandidateSize)}
	for i := range req.Coins {
		c := body[i*issueCandidateSize:]
		req.Coins[i].Ref = readRef(c)
		copy(req.Coins[i].Value[:], c[refSize:issueCandidateSize])
	}
	return req, nil
}

func marshalValidateRequest(req *ValidateRequest) []byte {
	body := []byte{req.Peer}
	return binary.BigEndian.AppendUint32(body, req.Ticket)
}

func unmarshalValidateRequest(body []byte) (*ValidateRequest, error) {
	if len(body) != 5 {
		return nil, fmt.Errorf("validate body must be 5 bytes, not %d", len(body))
	}
	return &ValidateRequest{
		Peer:   body[0],
		Ticket: binary.BigEndian.Uint32(body[1:5]),
	}, nil
}

func marshalClassifyRequest(req *ClassifyRequest) []byte {
	body := make([]byte, 0, len(req.Coins)*classifyCandidateSize)
	for _, c := range req.Coins {
		body = appendRef(body, c.Ref)
		body = append(body, c.Current[:]...)
		body = append(body, c.Proposed[:]...)
	}
	return body
}

func unmarshalClassifyRequest(body []byte) (*ClassifyRequest, error) {
	if len(body) == 0 || len(body)%classifyCandidateSize != 0 {
		return nil, fmt.Errorf("classify body must be a non-empty multiple of %d bytes, not %d", classifyCandidateSize, len(body))
	}

	req := &ClassifyRequest{Coins: make([]ClassifyCandidate, len(body)/classifyCandidateSize)}
	for i := range req.Coins {
		c := body[i*classifyCandidateSize:]
		req.Coins[i].Ref = readRef(c)
		copy(req.Coins[i].Current[:], c[refSize:refSize+coin.AuthValueSize])
		copy(req.Coins[i].Proposed[:], c[refSize+coin.AuthValueSize:classifyCandidateSize])
	}
	return req, nil
}

func marshalRecoverRequest(req *RecoverRequest) []byte {
	body := make([]byte, 0, len(req.Coins)*refSize+groupSecretSize+4*len(req.Tickets))
	for _, ref := range req.Coins {
		body = appendRef(body, ref)
	}
	body = append(body, req.Group[:]...)
	for _, id := range req.Tickets {
		body = binary.BigEndian.AppendUint32(body, id)
	}
	return body
}

// unmarshalRecoverRequest decodes a recovery request. The ticket list length
// is fixed by the network size, so the decoder needs the peer count to tell
// where the coin list ends.
func unmarshalRecoverRequest(body []byte, peerCount int) (*RecoverRequest, error) {
	ticketBytes := 4 * peerCount
	if len(body) < refSize+groupSecretSize+ticketBytes {
		return nil, fmt.Errorf("recover body too short: %d bytes", len(body))
	}

	coinBytes := len(body) - groupSecretSize - ticketBytes

	refs, err := unmarshalRefs(body[:coinBytes])
	if err != nil {
		return nil, err
	}

	req := &RecoverRequest{
		Coins:   refs,
		Tickets: make([]uint32, peerCount),
	}
	copy(req.Group[:], body[coinBytes:coinBytes+groupSecretSize])

	for i := range req.Tickets {
		req.Tickets[i] = binary.BigEndian.Uint32(body[coinBytes+groupSecretSize+4*i:])
	}

	return req, nil
}

/*******************************************************************************
Responses
*******************************************************************************/

func marshalIssueResponse(resp *IssueResponse) []byte {
	body := binary.BigEndian.AppendUint32(nil, resp.Ticket)
	return append(body, packBits(resp.Results)...)
}

func unmarshalIssueResponse(status uint8, body []byte, coins int) (*IssueResponse, error) {
	resp := &IssueResponse{Status: status}

	if !statusHasBody(status) {
		return resp, nil
	}

	if len(body) < 4 {
		return nil, fmt.Errorf("issue response too short: %d bytes", len(body))
	}

	resp.Ticket = binary.BigEndian.Uint32(body[:4])

	results, err := unpackBits(body[4:], coins)
	if err != nil {
		return nil, err
	}
	resp.Results = results

	return resp, nil
}

func marshalValidateResponse(resp *ValidateResponse) []byte {
	body := make([]byte, 0, len(resp.Coins)*refSize)
	for _, ref := range resp.Coins {
		body = appendRef(body, ref)
	}
	return body
}

func unmarshalValidateResponse(status uint8, body []byte) (*ValidateResponse, error) {
	resp := &ValidateResponse{Status: status}

	if !statusHasBody(status) {
		return resp, nil
	}

	refs, err := unmarshalRefs(body)
	if err != nil {
		return nil, err
	}
	resp.Coins = refs

	return resp, nil
}

// Classification bytes, one per coin in a mixed Classify response.
const (
	classNeither  uint8 = 0x00
	classCurrent  uint8 = 0x01
	classProposed uint8 = 0x02
)

func marshalClassifyResponse(resp *ClassifyResponse) []byte {
	body := make([]byte, len(resp.Current))
	for i := range body {
		switch {
		case resp.Current[i]:
			body[i] = classCurrent
		case resp.Proposed[i]:
			body[i] = classProposed
		}
	}
	return body
}

func unmarshalClassifyResponse(status uint8, body []byte, coins int) (*ClassifyResponse, error) {
	resp := &ClassifyResponse{Status: status}

	if !statusHasBody(status) {
		return resp, nil
	}

	if len(body) != coins {
		return nil, fmt.Errorf("classify response should be %d bytes for %d coins, not %d", coins, coins, len(body))
	}

	resp.Current = make([]bool, coins)
	resp.Proposed = make([]bool, coins)

	for i, class := range body {
		switch class {
		case classNeither:
		case classCurrent:
			resp.Current[i] = true
		case classProposed:
			resp.Proposed[i] = true
		default:
			return nil, fmt.Errorf("unknown classification byte %#x for coin %d", class, i)
		}
	}

	return resp, nil
}

func marshalRecoverResponse(resp *RecoverResponse) []byte {
	return packBits(resp.Recovered)
}

func unmarshalRecoverResponse(status uint8, body []byte, coins int) (*RecoverResponse, error) {
	resp := &RecoverResponse{Status: status}

	if !statusHasBody(status) {
		return resp, nil
	}

	recovered, err := unpackBits(body, coins)
	if err != nil {
		return nil, err
	}
	resp.Recovered = recovered

	return resp, nil
}

// marshalResponse frames any of the response types.
func marshalResponse(resp interface{}) (uint8, []byte, error) {
	switch t := resp.(type) {
	case *EchoResponse:
		return t.Status, nil, nil
	case *IssueResponse:
		if !statusHasBody(t.Status) {
			return t.Status, nil, nil
		}
		return t.Status, marshalIssueResponse(t), nil
	case *ValidateResponse:
		if !statusHasBody(t.Status) {
			return t.Status, nil, nil
		}
		return t.Status, marshalValidateResponse(t), nil
	case *ClassifyResponse:
		if !statusHasBody(t.Status) {
			return t.Status, nil, nil
		}
		return t.Status, marshalClassifyResponse(t), nil
	case *RecoverResponse:
		if !statusHasBody(t.Status) {
			return t.Status, nil, nil
		}
		return t.Status, marshalRecoverResponse(t), nil
	default:
		return 0, nil, fmt.Errorf("unknown response type %T", resp)
	}
}
