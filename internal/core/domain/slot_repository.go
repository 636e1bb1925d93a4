package domain

import "context"

// SlotLockRepository is the persistence contract for lock rows. At most one
// row exists per identifier; absence of a row is the canonical unlocked
// state. Methods observe the transaction carried by the context when one is
// present, so that multi-slot operations commit or fail as a unit.
type SlotLockRepository interface {
	// GetSlot returns the lock row for the given slot, or nil if the slot is
	// unlocked. It never mutates.
	GetSlot(ctx context.Context, id SlotIdentifier) (*SlotLock, error)
	// GetSlots returns one entry per requested identifier, in request order,
	// with nil for unlocked slots.
	GetSlots(ctx context.Context, ids []SlotIdentifier) ([]*SlotLock, error)
	// InsertSlot atomically creates the lock row, failing with
	// ErrSlotAlreadyLocked if a row already exists.
	InsertSlot(ctx context.Context, lock SlotLock) error
	// InsertSlots inserts all given rows; the first conflict aborts with
	// ErrSlotAlreadyLocked.
	InsertSlots(ctx context.Context, locks []SlotLock) error
	// DeleteSlot releases the slot, failing with ErrSlotNotLocked if no row
	// exists.
	DeleteSlot(ctx context.Context, id SlotIdentifier) error
	// DeleteSlots releases all given slots; missing rows are skipped.
	DeleteSlots(ctx context.Context, ids []SlotIdentifier) error
}
