package common

import "fmt"

// StoreErrType classifies vault access failures.
type StoreErrType uint32

const (
	// KeyNotFound means the coin is not part of the vault.
	KeyNotFound StoreErrType = iota
	// KeyAlreadyExists means a record is already held for the coin.
	KeyAlreadyExists
	// Empty means the vault contains no records at all.
	Empty
	// RecordBusy means the record is checked out by another request.
	RecordBusy
)

// StoreErr is the error type returned by vault implementations. It carries
// the kind of data, the failure class, and the key involved.
type StoreErr struct {
	dataType string
	errType  StoreErrType
	key      string
}

// NewStoreErr creates a StoreErr.
func NewStoreErr(dataType string, errType StoreErrType, key string) StoreErr {
	return StoreErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error implements the error interface.
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Not Found"
	case KeyAlreadyExists:
		m = "Key Already Exists"
	case Empty:
		m = "Empty"
	case RecordBusy:
		m = "Record Busy"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.key, m)
}

// IsStore checks that an error is of type StoreErr and that its code matches
// the provided StoreErr code.
func IsStore(err error, t StoreErrType) bool {
	storeErr, ok := err.(StoreErr)
	return ok && storeErr.errType == t
}
