package application

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/sova-network/sova-sentinel/internal/core/domain"
)

// LockEntry is the caller-provided payload for locking a single slot.
type LockEntry struct {
	Identifier   domain.SlotIdentifier
	RevertValue  common.Hash
	CurrentValue common.Hash
	BtcTxid      string
}

// SlotStatusView is the outcome of evaluating one slot. Value is set only
// when the evaluation released the lock: the written value on confirmation,
// the rollback value on revert. For locked slots both CurrentValue and
// RevertValue are exposed along with the confirmation depth observed at
// evaluation time.
type SlotStatusView struct {
	Identifier        domain.SlotIdentifier
	Status            domain.SlotStatus
	Value             *common.Hash
	CurrentValue      common.Hash
	RevertValue       common.Hash
	ConfirmationDepth uint64
	Err               error
}

// UnlockResult reports the per-slot outcome of a forced unlock.
type UnlockResult struct {
	Identifier domain.SlotIdentifier
	Unlocked   bool
	Err        error
}
