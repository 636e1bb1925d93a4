package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/sova-network/sova-sentinel/internal/core/domain"
	"github.com/sova-network/sova-sentinel/internal/core/ports"
)

// repoManager holds the badgerhold store backing the slot lock repository and
// enforces the single-writer discipline: one write transaction at a time,
// reads served from the last committed snapshot.
type repoManager struct {
	store              *badgerhold.Store
	slotLockRepository domain.SlotLockRepository

	writeMtx sync.Mutex
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// An empty baseDbDir opens an in-memory store, used by tests.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var opts badger.Options
	if baseDbDir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(baseDbDir, "slotlocks"))
	}
	opts.Logger = logger

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, fmt.Errorf("opening slot locks db: %w", err)
	}

	manager := &repoManager{store: store}
	manager.slotLockRepository = newSlotLockRepositoryImpl(manager)
	return manager, nil
}

func (d *repoManager) SlotLockRepository() domain.SlotLockRepository {
	return d.slotLockRepository
}

// RunTransaction runs handler within a single badger transaction, injected in
// the context so that repository calls join it. Write transactions take the
// writer lock for their whole lifetime, which linearizes writes to the same
// key and makes multi-slot batches all-or-nothing.
func (d *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) error,
) error {
	if !readOnly {
		d.writeMtx.Lock()
		defer d.writeMtx.Unlock()
	}

	tx := d.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	if err := handler(context.WithValue(ctx, "tx", tx)); err != nil {
		return err
	}

	if readOnly {
		return nil
	}
	return tx.Commit()
}

func (d *repoManager) Close() {
	d.store.Close()
}
