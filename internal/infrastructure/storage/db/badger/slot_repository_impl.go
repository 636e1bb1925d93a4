package dbbadger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/sova-network/sova-sentinel/internal/core/domain"
)

type slotLockRepositoryImpl struct {
	db *repoManager
}

func newSlotLockRepositoryImpl(db *repoManager) domain.SlotLockRepository {
	return slotLockRepositoryImpl{db: db}
}

func (s slotLockRepositoryImpl) GetSlot(
	ctx context.Context, id domain.SlotIdentifier,
) (*domain.SlotLock, error) {
	var lock domain.SlotLock
	var err error
	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		err = s.db.store.TxGet(tx, id.Key(), &lock)
	} else {
		err = s.db.store.Get(id.Key(), &lock)
	}
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting slot lock %s: %w", id, err)
	}
	return &lock, nil
}

func (s slotLockRepositoryImpl) GetSlots(
	ctx context.Context, ids []domain.SlotIdentifier,
) ([]*domain.SlotLock, error) {
	locks := make([]*domain.SlotLock, 0, len(ids))
	for _, id := range ids {
		lock, err := s.GetSlot(ctx, id)
		if err != nil {
			return nil, err
		}
		locks = append(locks, lock)
	}
	return locks, nil
}

func (s slotLockRepositoryImpl) InsertSlot(
	ctx context.Context, lock domain.SlotLock,
) error {
	var err error
	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		err = s.db.store.TxInsert(tx, lock.Identifier.Key(), lock)
	} else {
		err = s.db.store.Insert(lock.Identifier.Key(), lock)
	}
	if err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrSlotAlreadyLocked
		}
		return fmt.Errorf("inserting slot lock %s: %w", lock.Identifier, err)
	}
	return nil
}

func (s slotLockRepositoryImpl) InsertSlots(
	ctx context.Context, locks []domain.SlotLock,
) error {
	for _, lock := range locks {
		if err := s.InsertSlot(ctx, lock); err != nil {
			return err
		}
	}
	return nil
}

func (s slotLockRepositoryImpl) DeleteSlot(
	ctx context.Context, id domain.SlotIdentifier,
) error {
	var err error
	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		err = s.db.store.TxDelete(tx, id.Key(), domain.SlotLock{})
	} else {
		err = s.db.store.Delete(id.Key(), domain.SlotLock{})
	}
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.ErrSlotNotLocked
		}
		return fmt.Errorf("deleting slot lock %s: %w", id, err)
	}
	return nil
}

func (s slotLockRepositoryImpl) DeleteSlots(
	ctx context.Context, ids []domain.SlotIdentifier,
) error {
	for _, id := range ids {
		if err := s.DeleteSlot(ctx, id); err != nil &&
			!errors.Is(err, domain.ErrSlotNotLocked) {
			return err
		}
	}
	return nil
}
