// Package api defines the JSON wire types served by the sentinel HTTP API
// and consumed by the client package.
package api

import "github.com/ethereum/go-ethereum/common"

// Slot status values reported by status and lock endpoints.
const (
	StatusUnlocked      = "unlocked"
	StatusLocked        = "locked"
	StatusReverted      = "reverted"
	StatusAlreadyLocked = "already_locked"
)

// SlotRef identifies one storage slot of a contract.
type SlotRef struct {
	// ContractAddress is the 20-byte address owning the slot.
	ContractAddress common.Address `json:"contract_address"`
	// SlotIndex is the 32-byte storage slot index.
	SlotIndex common.Hash `json:"slot_index"`
}

// SlotData carries the values recorded when locking a slot.
type SlotData struct {
	SlotRef
	// RevertValue is restored if the Bitcoin transaction fails to confirm.
	RevertValue common.Hash `json:"revert_value"`
	// CurrentValue is the pending post-write value awaiting confirmation.
	CurrentValue common.Hash `json:"current_value"`
	// BtcTxid is the Bitcoin transaction the lock is conditioned on.
	BtcTxid string `json:"btc_txid"`
}

// LockSlotRequest models POST /v1/slot/lock.
type LockSlotRequest struct {
	// LockedAtBlock is the host chain height at which the lock takes effect.
	LockedAtBlock uint64 `json:"locked_at_block"`
	// BtcBlock is the Bitcoin chain height observed at lock creation.
	BtcBlock uint64 `json:"btc_block"`
	Slot     SlotData `json:"slot"`
}

// LockSlotResponse reports the lock outcome: "locked" or "already_locked".
type LockSlotResponse struct {
	Status string `json:"status"`
}

// GetSlotStatusRequest models POST /v1/slot/status.
type GetSlotStatusRequest struct {
	// CurrentBlock is the host chain height the caller observes.
	CurrentBlock uint64  `json:"current_block"`
	Slot         SlotRef `json:"slot"`
}

// SlotStatus is the evaluated state of one slot.
type SlotStatus struct {
	SlotRef
	// Status is one of "unlocked", "locked" or "reverted".
	Status string `json:"status"`
	// Value is set for unlocked and reverted slots: the written value on
	// confirmation, the rollback value on revert.
	Value *common.Hash `json:"value,omitempty"`
	// CurrentValue and RevertValue are set while the slot is locked.
	CurrentValue *common.Hash `json:"current_value,omitempty"`
	RevertValue  *common.Hash `json:"revert_value,omitempty"`
	// ConfirmationDepth is the depth observed for the lock's transaction.
	ConfirmationDepth uint64 `json:"confirmation_depth,omitempty"`
	// Error is set when this slot could not be evaluated.
	Error string `json:"error,omitempty"`
}

// GetSlotStatusResponse models the POST /v1/slot/status reply.
type GetSlotStatusResponse struct {
	SlotStatus
}

// BatchLockSlotRequest models POST /v1/slots/lock. All slots are locked in a
// single transaction or none are.
type BatchLockSlotRequest struct {
	LockedAtBlock uint64     `json:"locked_at_block"`
	BtcBlock      uint64     `json:"btc_block"`
	Slots         []SlotData `json:"slots"`
}

// BatchLockSlotResponse reports the all-or-nothing batch outcome.
type BatchLockSlotResponse struct {
	Status string `json:"status"`
	// Error details an "already_locked" rejection.
	Error string `json:"error,omitempty"`
}

// BatchGetSlotStatusRequest models POST /v1/slots/status.
type BatchGetSlotStatusRequest struct {
	CurrentBlock uint64    `json:"current_block"`
	BtcBlock     uint64    `json:"btc_block"`
	Slots        []SlotRef `json:"slots"`
}

// BatchGetSlotStatusResponse carries one result per requested slot, in
// request order.
type BatchGetSlotStatusResponse struct {
	Statuses []SlotStatus `json:"statuses"`
}

// BatchUnlockSlotRequest models POST /v1/slots/unlock, a development-only
// forced unlock. The server rejects it unless explicitly enabled.
type BatchUnlockSlotRequest struct {
	CurrentBlock uint64    `json:"current_block"`
	BtcBlock     uint64    `json:"btc_block"`
	Slots        []SlotRef `json:"slots"`
}

// UnlockResult is the per-slot outcome of a forced unlock.
type UnlockResult struct {
	SlotRef
	Unlocked bool   `json:"unlocked"`
	Error    string `json:"error,omitempty"`
}

// BatchUnlockSlotResponse models the POST /v1/slots/unlock reply.
type BatchUnlockSlotResponse struct {
	Results []UnlockResult `json:"results"`
}

// ErrorResponse is the JSON body of any non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
