package domain_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/sova-network/sova-sentinel/internal/core/domain"
)

func newTestLock() *domain.SlotLock {
	return &domain.SlotLock{
		Identifier: domain.SlotIdentifier{
			ContractAddress: common.HexToAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b"),
			SlotIndex:       common.HexToHash("0x01"),
		},
		CurrentValue:  common.HexToHash("0x0a"),
		RevertValue:   common.HexToHash("0x0b"),
		BtcTxid:       "73bd2184f6e78e7ca5cf9d5405e039b9bd9a876d7996b0261e5e9c2ffe5f51e5",
		BtcBlock:      100,
		LockedAtBlock: 1000,
	}
}

func TestEvaluate(t *testing.T) {
	lock := newTestLock()

	tests := []struct {
		name     string
		depth    uint64
		height   uint64
		expected domain.Outcome
	}{
		{"pending", 0, 105, domain.OutcomeKeepLocked},
		{"almost confirmed", 5, 105, domain.OutcomeKeepLocked},
		{"confirmed at threshold", 6, 106, domain.OutcomeConfirm},
		{"confirmed above threshold", 9, 110, domain.OutcomeConfirm},
		{"just before revert horizon", 0, 117, domain.OutcomeKeepLocked},
		{"reverted at threshold", 0, 118, domain.OutcomeRevert},
		{"reverted above threshold", 0, 140, domain.OutcomeRevert},
		{"confirmation wins over revert", 6, 140, domain.OutcomeConfirm},
		{"height behind lock block", 0, 99, domain.OutcomeKeepLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lock.Evaluate(tt.depth, tt.height, 6, 18))
		})
	}
}

func TestIsVisibleAt(t *testing.T) {
	lock := newTestLock()

	assert.False(t, lock.IsVisibleAt(999))
	assert.True(t, lock.IsVisibleAt(1000))
	assert.True(t, lock.IsVisibleAt(1001))
}

func TestIdentifierKey(t *testing.T) {
	a := domain.SlotIdentifier{
		ContractAddress: common.HexToAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b"),
		SlotIndex:       common.HexToHash("0x01"),
	}
	b := domain.SlotIdentifier{
		ContractAddress: common.HexToAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b"),
		SlotIndex:       common.HexToHash("0x02"),
	}

	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), domain.SlotIdentifier{
		ContractAddress: a.ContractAddress,
		SlotIndex:       a.SlotIndex,
	}.Key())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "unlocked", domain.StatusUnlocked.String())
	assert.Equal(t, "locked", domain.StatusLocked.String())
	assert.Equal(t, "reverted", domain.StatusReverted.String())
}
