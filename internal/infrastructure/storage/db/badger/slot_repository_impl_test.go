package dbbadger

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sova-network/sova-sentinel/internal/core/domain"
	"github.com/sova-network/sova-sentinel/internal/core/ports"
)

var ctx = context.Background()

func newTestManager(t *testing.T) ports.RepoManager {
	t.Helper()
	manager, err := NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(manager.Close)
	return manager
}

func newTestSlotLock(slot byte) domain.SlotLock {
	return domain.SlotLock{
		Identifier: domain.SlotIdentifier{
			ContractAddress: common.HexToAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b"),
			SlotIndex:       common.BytesToHash([]byte{slot}),
		},
		CurrentValue:  common.HexToHash("0x0a"),
		RevertValue:   common.HexToHash("0x0b"),
		BtcTxid:       "73bd2184f6e78e7ca5cf9d5405e039b9bd9a876d7996b0261e5e9c2ffe5f51e5",
		BtcBlock:      100,
		LockedAtBlock: 1000,
	}
}

func TestInsertAndGetSlot(t *testing.T) {
	manager := newTestManager(t)
	repo := manager.SlotLockRepository()
	lock := newTestSlotLock(1)

	found, err := repo.GetSlot(ctx, lock.Identifier)
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, repo.InsertSlot(ctx, lock))

	found, err = repo.GetSlot(ctx, lock.Identifier)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, lock, *found)

	err = repo.InsertSlot(ctx, lock)
	assert.ErrorIs(t, err, domain.ErrSlotAlreadyLocked)
}

func TestDeleteSlot(t *testing.T) {
	manager := newTestManager(t)
	repo := manager.SlotLockRepository()
	lock := newTestSlotLock(1)

	err := repo.DeleteSlot(ctx, lock.Identifier)
	assert.ErrorIs(t, err, domain.ErrSlotNotLocked)

	require.NoError(t, repo.InsertSlot(ctx, lock))
	require.NoError(t, repo.DeleteSlot(ctx, lock.Identifier))

	found, err := repo.GetSlot(ctx, lock.Identifier)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGetSlotsPreservesOrder(t *testing.T) {
	manager := newTestManager(t)
	repo := manager.SlotLockRepository()

	first := newTestSlotLock(1)
	third := newTestSlotLock(3)
	require.NoError(t, repo.InsertSlot(ctx, first))
	require.NoError(t, repo.InsertSlot(ctx, third))

	locks, err := repo.GetSlots(ctx, []domain.SlotIdentifier{
		first.Identifier,
		newTestSlotLock(2).Identifier,
		third.Identifier,
	})
	require.NoError(t, err)
	require.Len(t, locks, 3)
	assert.Equal(t, first, *locks[0])
	assert.Nil(t, locks[1])
	assert.Equal(t, third, *locks[2])
}

func TestTransactionRollsBackOnError(t *testing.T) {
	manager := newTestManager(t)
	repo := manager.SlotLockRepository()

	first := newTestSlotLock(1)
	second := newTestSlotLock(2)
	require.NoError(t, repo.InsertSlot(ctx, second))

	err := manager.RunTransaction(ctx, false, func(ctx context.Context) error {
		if err := repo.InsertSlot(ctx, first); err != nil {
			return err
		}
		return repo.InsertSlot(ctx, second)
	})
	require.ErrorIs(t, err, domain.ErrSlotAlreadyLocked)

	// The first insert must not have leaked out of the failed transaction.
	found, err := repo.GetSlot(ctx, first.Identifier)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestTransactionCommitsAllOrNothing(t *testing.T) {
	manager := newTestManager(t)
	repo := manager.SlotLockRepository()

	locks := []domain.SlotLock{newTestSlotLock(1), newTestSlotLock(2), newTestSlotLock(3)}
	err := manager.RunTransaction(ctx, false, func(ctx context.Context) error {
		return repo.InsertSlots(ctx, locks)
	})
	require.NoError(t, err)

	for _, lock := range locks {
		found, err := repo.GetSlot(ctx, lock.Identifier)
		require.NoError(t, err)
		require.NotNil(t, found)
	}
}

func TestConcurrentLockSingleWinner(t *testing.T) {
	manager := newTestManager(t)
	repo := manager.SlotLockRepository()
	lock := newTestSlotLock(1)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = manager.RunTransaction(ctx, false, func(ctx context.Context) error {
				existing, err := repo.GetSlot(ctx, lock.Identifier)
				if err != nil {
					return err
				}
				if existing != nil {
					return domain.ErrSlotAlreadyLocked
				}
				return repo.InsertSlot(ctx, lock)
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrSlotAlreadyLocked)
		}
	}
	assert.Equal(t, 1, winners)
}
