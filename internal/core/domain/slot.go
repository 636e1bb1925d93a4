package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// SlotStatus is the externally visible state of a storage slot.
type SlotStatus int

const (
	// StatusUnlocked means no lock row exists for the slot.
	StatusUnlocked SlotStatus = iota
	// StatusLocked means the slot is guarded by a pending Bitcoin transaction.
	StatusLocked
	// StatusReverted means the lock just expired without confirmation and the
	// slot value rolled back. It is reported only in the evaluation that
	// produced it, never persisted.
	StatusReverted
)

func (s SlotStatus) String() string {
	switch s {
	case StatusUnlocked:
		return "unlocked"
	case StatusLocked:
		return "locked"
	case StatusReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// SlotIdentifier addresses a single 32-byte storage cell in a contract's
// key/value space. It is a pure lookup key, compared by byte equality.
type SlotIdentifier struct {
	ContractAddress common.Address
	SlotIndex       common.Hash
}

// Key returns the storage key under which the lock row for this slot is kept.
func (i SlotIdentifier) Key() string {
	return i.ContractAddress.Hex() + ":" + i.SlotIndex.Hex()
}

func (i SlotIdentifier) String() string {
	return fmt.Sprintf("contract=%s slot=%s", i.ContractAddress.Hex(), i.SlotIndex.Hex())
}

// SlotLock is the persisted record guarding one storage slot while the
// outcome of a Bitcoin transaction is unknown. All fields are written once at
// lock creation; a lock is released only by deleting the whole row.
type SlotLock struct {
	Identifier SlotIdentifier
	// CurrentValue is the post-write value pending confirmation.
	CurrentValue common.Hash
	// RevertValue is restored if the transaction fails to confirm in time.
	RevertValue common.Hash
	// BtcTxid is the Bitcoin transaction the lock is conditioned on.
	BtcTxid string
	// BtcBlock is the Bitcoin chain height observed at lock creation.
	BtcBlock uint64
	// LockedAtBlock is the host chain height at which the lock takes effect.
	LockedAtBlock uint64
}

// Outcome is the transition decided by evaluating a locked slot against the
// Bitcoin chain.
type Outcome int

const (
	// OutcomeKeepLocked keeps the lock in place, no transition.
	OutcomeKeepLocked Outcome = iota
	// OutcomeConfirm releases the lock with CurrentValue, the transaction
	// reached the confirmation threshold.
	OutcomeConfirm
	// OutcomeRevert releases the lock with RevertValue, the transaction aged
	// past the revert horizon without confirming.
	OutcomeRevert
)

// Evaluate decides the transition for this lock given the observed
// confirmation depth of its transaction and the current Bitcoin chain height.
// Both thresholds are inclusive. Confirmation is checked first, so it wins
// when both thresholds are crossed in the same evaluation.
func (l *SlotLock) Evaluate(
	confirmationDepth, btcHeight, confirmationThreshold, revertThreshold uint64,
) Outcome {
	if confirmationDepth >= confirmationThreshold {
		return OutcomeConfirm
	}
	if btcHeight >= l.BtcBlock && btcHeight-l.BtcBlock >= revertThreshold {
		return OutcomeRevert
	}
	return OutcomeKeepLocked
}

// IsVisibleAt reports whether the lock has taken effect at the given host
// chain height. A lock created for a future block is not observable before
// that block.
func (l *SlotLock) IsVisibleAt(hostHeight uint64) bool {
	return l.LockedAtBlock <= hostHeight
}
