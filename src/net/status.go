package net

// Response status bytes. A request never fails as a whole because one coin
// failed; the status summarizes the per-coin results so clients can skip the
// bitmaps in the common all-or-nothing cases.
const (
	// StatusAllPass means every coin passed, a ticket was served, or an
	// echo was answered.
	StatusAllPass uint8 = 0x01
	// StatusAllFail means no coin passed.
	StatusAllFail uint8 = 0x02
	// StatusMixed means the results differ coin by coin.
	StatusMixed uint8 = 0x03

	// StatusAllCurrent means every coin matched its current value.
	StatusAllCurrent uint8 = 0x10
	// StatusAllProposed means every coin matched its proposed value.
	StatusAllProposed uint8 = 0x11
	// StatusAllNeither means no coin matched either value.
	StatusAllNeither uint8 = 0x12

	// StatusNotFound means the requested ticket is unknown or expired.
	StatusNotFound uint8 = 0x20
	// StatusAlreadyClaimed means the peer has already claimed the ticket.
	StatusAlreadyClaimed uint8 = 0x21
	// StatusBusy means the node could not allocate a ticket.
	StatusBusy uint8 = 0x22

	// StatusMalformed means the request could not be decoded.
	StatusMalformed uint8 = 0x30
	// StatusError means the node failed internally.
	StatusError uint8 = 0x31
)

// statusHasBody reports whether a response status carries a payload. Failure
// statuses travel as a bare status byte.
func statusHasBody(status uint8) bool {
	switch status {
	case StatusNotFound, StatusAlreadyClaimed, StatusBusy, StatusMalformed, StatusError:
		return false
	}
	return true
}
