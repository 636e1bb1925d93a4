package domain

import "errors"

var (
	// ErrSlotAlreadyLocked is thrown when trying to lock a slot that is
	// already guarded by a pending lock.
	ErrSlotAlreadyLocked = errors.New("slot is already locked")
	// ErrSlotNotLocked is thrown when an operation expects a lock row that
	// does not exist.
	ErrSlotNotLocked = errors.New("slot is not locked")
	// ErrInvalidBtcTxid ...
	ErrInvalidBtcTxid = errors.New("invalid bitcoin txid")
)
