package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// ListeningPortKey is the port where the HTTP interface will listen on
	ListeningPortKey = "LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of the sentinel
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// BitcoinRPCURLKey is the url of the Bitcoin node RPC interface in the form protocol://host:port
	BitcoinRPCURLKey = "BITCOIN_RPC_URL"
	// BitcoinRPCUserKey is the username for the Bitcoin node RPC interface
	BitcoinRPCUserKey = "BITCOIN_RPC_USER"
	// BitcoinRPCPassKey is the password for the Bitcoin node RPC interface
	BitcoinRPCPassKey = "BITCOIN_RPC_PASS"
	// ConfirmationThresholdKey is the confirmation depth at which a locked slot unlocks successfully
	ConfirmationThresholdKey = "BITCOIN_CONFIRMATION_THRESHOLD"
	// RevertThresholdKey is the age in Bitcoin blocks after which an unconfirmed lock reverts
	RevertThresholdKey = "BITCOIN_REVERT_THRESHOLD"
	// RPCMaxRetriesKey is the number of retries for Bitcoin RPC connectivity failures
	RPCMaxRetriesKey = "BITCOIN_RPC_MAX_RETRIES"
	// RPCBaseDelayKey is the base backoff delay in milliseconds between Bitcoin RPC retries
	RPCBaseDelayKey = "BITCOIN_RPC_BASE_DELAY"
	// RPCRateLimitKey caps Bitcoin RPC requests per second, 0 disables the cap
	RPCRateLimitKey = "BITCOIN_RPC_RATE_LIMIT"
	// EnableDevUnlockKey enables the forced-unlock endpoint. Unsafe outside development
	EnableDevUnlockKey = "ENABLE_DEV_UNLOCK"
	// StatsIntervalKey defines the interval in seconds for printing basic runtime statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("sova-sentinel", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("SOVA")
	vip.AutomaticEnv()

	vip.SetDefault(ListeningPortKey, 50051)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(BitcoinRPCURLKey, "http://localhost:8332")
	vip.SetDefault(ConfirmationThresholdKey, 6)
	vip.SetDefault(RevertThresholdKey, 18)
	vip.SetDefault(RPCMaxRetriesKey, 5)
	vip.SetDefault(RPCBaseDelayKey, 100)
	vip.SetDefault(RPCRateLimitKey, 0)
	vip.SetDefault(EnableDevUnlockKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetUint64 ...
func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

//GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetRPCBaseDelay returns the configured base backoff delay.
func GetRPCBaseDelay() time.Duration {
	return time.Duration(GetInt(RPCBaseDelayKey)) * time.Millisecond
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	if len(GetString(BitcoinRPCURLKey)) <= 0 {
		return fmt.Errorf("bitcoin rpc url must not be null")
	}

	confirmation := GetUint64(ConfirmationThresholdKey)
	revert := GetUint64(RevertThresholdKey)
	if confirmation <= 0 {
		return fmt.Errorf("confirmation threshold must be a positive number")
	}
	if revert <= confirmation {
		return fmt.Errorf(
			"revert threshold (%d) must exceed confirmation threshold (%d)",
			revert, confirmation,
		)
	}

	if GetInt(RPCMaxRetriesKey) < 0 {
		return fmt.Errorf("rpc max retries must not be negative")
	}
	if GetInt(RPCBaseDelayKey) <= 0 {
		return fmt.Errorf("rpc base delay must be a positive number")
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
