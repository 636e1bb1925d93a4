package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, 50051, GetInt(ListeningPortKey))
	assert.Equal(t, uint64(6), GetUint64(ConfirmationThresholdKey))
	assert.Equal(t, uint64(18), GetUint64(RevertThresholdKey))
	assert.Equal(t, 5, GetInt(RPCMaxRetriesKey))
	assert.Equal(t, 100*time.Millisecond, GetRPCBaseDelay())
	assert.False(t, GetBool(EnableDevUnlockKey))
	assert.NotEmpty(t, GetDatadir())
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	defer func() {
		Set(ConfirmationThresholdKey, 6)
		Set(RevertThresholdKey, 18)
	}()

	Set(ConfirmationThresholdKey, 18)
	Set(RevertThresholdKey, 6)
	err := validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revert threshold")
}
