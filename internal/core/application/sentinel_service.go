package application

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sova-network/sova-sentinel/internal/core/domain"
	"github.com/sova-network/sova-sentinel/internal/core/ports"
	"github.com/sova-network/sova-sentinel/pkg/bitcoin"
)

// maxConcurrentDepthLookups bounds the fan-out of confirmation-depth RPCs
// issued while serving a single batch status request.
const maxConcurrentDepthLookups = 8

// SentinelService exposes the slot-lock operations served to callers. All
// state transitions are evaluated lazily at read time; no background job
// mutates the store.
type SentinelService interface {
	LockSlot(
		ctx context.Context,
		lockedAtBlock, btcBlock uint64,
		entry LockEntry,
	) (*domain.SlotLock, error)
	GetSlotStatus(
		ctx context.Context,
		currentBlock uint64,
		id domain.SlotIdentifier,
	) (*SlotStatusView, error)
	BatchLockSlot(
		ctx context.Context,
		lockedAtBlock, btcBlock uint64,
		entries []LockEntry,
	) ([]domain.SlotLock, error)
	BatchGetSlotStatus(
		ctx context.Context,
		currentBlock, btcBlock uint64,
		ids []domain.SlotIdentifier,
	) ([]SlotStatusView, error)
	BatchUnlockSlot(
		ctx context.Context,
		ids []domain.SlotIdentifier,
	) ([]UnlockResult, error)
}

type sentinelService struct {
	repoManager ports.RepoManager
	btcService  bitcoin.Service

	confirmationThreshold uint64
	revertThreshold       uint64
	devUnlockEnabled      bool
}

// NewSentinelService returns a SentinelService backed by the given store and
// Bitcoin client. Thresholds are fixed at construction so concurrent requests
// always evaluate against the same policy.
func NewSentinelService(
	repoManager ports.RepoManager,
	btcService bitcoin.Service,
	confirmationThreshold, revertThreshold uint64,
	devUnlockEnabled bool,
) SentinelService {
	return &sentinelService{
		repoManager:           repoManager,
		btcService:            btcService,
		confirmationThreshold: confirmationThreshold,
		revertThreshold:       revertThreshold,
		devUnlockEnabled:      devUnlockEnabled,
	}
}

func (s *sentinelService) LockSlot(
	ctx context.Context,
	lockedAtBlock, btcBlock uint64,
	entry LockEntry,
) (*domain.SlotLock, error) {
	lock, err := newSlotLock(entry, btcBlock, lockedAtBlock)
	if err != nil {
		return nil, err
	}

	if err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) error {
			return s.repoManager.SlotLockRepository().InsertSlot(ctx, *lock)
		},
	); err != nil {
		return nil, err
	}

	log.Debugf(
		"locked slot %s for txid %s at host block %d",
		lock.Identifier, lock.BtcTxid, lockedAtBlock,
	)
	return lock, nil
}

func (s *sentinelService) GetSlotStatus(
	ctx context.Context,
	currentBlock uint64,
	id domain.SlotIdentifier,
) (*SlotStatusView, error) {
	lock, err := s.repoManager.SlotLockRepository().GetSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	if lock == nil || !lock.IsVisibleAt(currentBlock) {
		return unlockedView(id), nil
	}

	depth, err := s.btcService.ConfirmationDepth(ctx, lock.BtcTxid)
	if err != nil {
		return nil, err
	}
	btcHeight, err := s.btcService.ChainHeight(ctx)
	if err != nil {
		return nil, err
	}

	view := s.resolveLock(ctx, lock, depth, btcHeight)
	if view.Err != nil {
		return nil, view.Err
	}
	return &view, nil
}

func (s *sentinelService) BatchLockSlot(
	ctx context.Context,
	lockedAtBlock, btcBlock uint64,
	entries []LockEntry,
) ([]domain.SlotLock, error) {
	if len(entries) <= 0 {
		return nil, ErrMissingEntries
	}

	locks := make([]domain.SlotLock, 0, len(entries))
	for _, entry := range entries {
		lock, err := newSlotLock(entry, btcBlock, lockedAtBlock)
		if err != nil {
			return nil, err
		}
		locks = append(locks, *lock)
	}

	// All entries commit in one store transaction. A single conflicting slot
	// aborts the whole batch and leaves every slot untouched.
	if err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) error {
			return s.repoManager.SlotLockRepository().InsertSlots(ctx, locks)
		},
	); err != nil {
		return nil, err
	}

	log.Debugf("locked batch of %d slots at host block %d", len(locks), lockedAtBlock)
	return locks, nil
}

func (s *sentinelService) BatchGetSlotStatus(
	ctx context.Context,
	currentBlock, btcBlock uint64,
	ids []domain.SlotIdentifier,
) ([]SlotStatusView, error) {
	if len(ids) <= 0 {
		return nil, ErrMissingEntries
	}

	locks, err := s.repoManager.SlotLockRepository().GetSlots(ctx, ids)
	if err != nil {
		return nil, err
	}

	depths := s.fetchDepths(ctx, distinctTxids(locks, currentBlock))

	views := make([]SlotStatusView, 0, len(ids))
	for i, id := range ids {
		lock := locks[i]
		if lock == nil || !lock.IsVisibleAt(currentBlock) {
			views = append(views, *unlockedView(id))
			continue
		}
		res := depths[lock.BtcTxid]
		if res.err != nil {
			views = append(views, SlotStatusView{Identifier: id, Err: res.err})
			continue
		}
		views = append(views, s.resolveLock(ctx, lock, res.depth, btcBlock))
	}
	return views, nil
}

func (s *sentinelService) BatchUnlockSlot(
	ctx context.Context,
	ids []domain.SlotIdentifier,
) ([]UnlockResult, error) {
	if !s.devUnlockEnabled {
		return nil, ErrDevUnlockDisabled
	}
	if len(ids) <= 0 {
		return nil, ErrMissingEntries
	}

	log.Warnf("forced unlock requested for %d slots", len(ids))

	results := make([]UnlockResult, 0, len(ids))
	for _, id := range ids {
		err := s.repoManager.RunTransaction(
			ctx, false, func(ctx context.Context) error {
				return s.repoManager.SlotLockRepository().DeleteSlot(ctx, id)
			},
		)
		results = append(results, UnlockResult{
			Identifier: id,
			Unlocked:   err == nil,
			Err:        err,
		})
	}
	return results, nil
}

// resolveLock applies the threshold evaluation to a locked slot and, when a
// threshold is crossed, commits the release inside a write transaction. The
// stored row is re-read under the transaction so a concurrent evaluation that
// already released (or re-locked) the slot is never double-applied.
func (s *sentinelService) resolveLock(
	ctx context.Context,
	lock *domain.SlotLock,
	depth, btcHeight uint64,
) SlotStatusView {
	outcome := lock.Evaluate(
		depth, btcHeight, s.confirmationThreshold, s.revertThreshold,
	)
	if outcome == domain.OutcomeKeepLocked {
		return SlotStatusView{
			Identifier:        lock.Identifier,
			Status:            domain.StatusLocked,
			CurrentValue:      lock.CurrentValue,
			RevertValue:       lock.RevertValue,
			ConfirmationDepth: depth,
		}
	}

	if err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) error {
			repo := s.repoManager.SlotLockRepository()
			stored, err := repo.GetSlot(ctx, lock.Identifier)
			if err != nil {
				return err
			}
			if stored == nil || *stored != *lock {
				// Released by a concurrent evaluation, possibly re-locked
				// for a fresh episode since (even with the same txid). The
				// fresh row must survive; nothing left to commit here.
				return nil
			}
			return repo.DeleteSlot(ctx, lock.Identifier)
		},
	); err != nil {
		return SlotStatusView{Identifier: lock.Identifier, Err: err}
	}

	if outcome == domain.OutcomeRevert {
		log.Infof(
			"slot %s reverted, txid %s aged %d blocks without confirming",
			lock.Identifier, lock.BtcTxid, btcHeight-lock.BtcBlock,
		)
		value := lock.RevertValue
		return SlotStatusView{
			Identifier: lock.Identifier,
			Status:     domain.StatusReverted,
			Value:      &value,
		}
	}

	log.Infof(
		"slot %s unlocked, txid %s confirmed at depth %d",
		lock.Identifier, lock.BtcTxid, depth,
	)
	value := lock.CurrentValue
	return SlotStatusView{
		Identifier: lock.Identifier,
		Status:     domain.StatusUnlocked,
		Value:      &value,
	}
}

type depthResult struct {
	depth uint64
	err   error
}

// fetchDepths resolves confirmation depths for the given txids, one RPC per
// distinct txid regardless of how many slots in the batch reference it. A
// failed lookup taints only the slots bound to that txid.
func (s *sentinelService) fetchDepths(
	ctx context.Context, txids []string,
) map[string]depthResult {
	results := make(map[string]depthResult, len(txids))
	if len(txids) <= 0 {
		return results
	}

	mtx := &sync.Mutex{}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentDepthLookups)
	for _, txid := range txids {
		txid := txid
		eg.Go(func() error {
			depth, err := s.btcService.ConfirmationDepth(ctx, txid)
			mtx.Lock()
			results[txid] = depthResult{depth: depth, err: err}
			mtx.Unlock()
			return nil
		})
	}
	//nolint:errcheck
	eg.Wait()
	return results
}

func distinctTxids(locks []*domain.SlotLock, currentBlock uint64) []string {
	seen := make(map[string]struct{})
	txids := make([]string, 0, len(locks))
	for _, lock := range locks {
		if lock == nil || !lock.IsVisibleAt(currentBlock) {
			continue
		}
		if _, ok := seen[lock.BtcTxid]; ok {
			continue
		}
		seen[lock.BtcTxid] = struct{}{}
		txids = append(txids, lock.BtcTxid)
	}
	return txids
}

func newSlotLock(
	entry LockEntry, btcBlock, lockedAtBlock uint64,
) (*domain.SlotLock, error) {
	if _, err := chainhash.NewHashFromStr(entry.BtcTxid); err != nil {
		return nil, domain.ErrInvalidBtcTxid
	}
	return &domain.SlotLock{
		Identifier:    entry.Identifier,
		CurrentValue:  entry.CurrentValue,
		RevertValue:   entry.RevertValue,
		BtcTxid:       entry.BtcTxid,
		BtcBlock:      btcBlock,
		LockedAtBlock: lockedAtBlock,
	}, nil
}

func unlockedView(id domain.SlotIdentifier) *SlotStatusView {
	return &SlotStatusView{
		Identifier: id,
		Status:     domain.StatusUnlocked,
	}
}
