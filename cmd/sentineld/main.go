package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sova-network/sova-sentinel/config"
	"github.com/sova-network/sova-sentinel/internal/core/application"
	dbbadger "github.com/sova-network/sova-sentinel/internal/infrastructure/storage/db/badger"
	httpinterface "github.com/sova-network/sova-sentinel/internal/interfaces/http"
	"github.com/sova-network/sova-sentinel/pkg/bitcoin"
	"github.com/sova-network/sova-sentinel/pkg/stats"
)

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	repoManager, err := dbbadger.NewRepoManager(dbDir, log.New())
	if err != nil {
		log.WithError(err).Panic("error while opening db")
	}
	defer repoManager.Close()

	rpcClient, err := bitcoin.NewCoreClient(
		config.GetString(config.BitcoinRPCURLKey),
		config.GetString(config.BitcoinRPCUserKey),
		config.GetString(config.BitcoinRPCPassKey),
	)
	if err != nil {
		log.WithError(err).Panic("error while setting up bitcoin rpc client")
	}
	btcService := bitcoin.NewService(rpcClient, bitcoin.ServiceOpts{
		MaxRetries:        config.GetInt(config.RPCMaxRetriesKey),
		BaseDelay:         config.GetRPCBaseDelay(),
		RequestsPerSecond: config.GetInt(config.RPCRateLimitKey),
	})

	devUnlock := config.GetBool(config.EnableDevUnlockKey)
	if devUnlock {
		log.Warn(
			"forced unlock endpoint is enabled, do not use this in production",
		)
	}

	sentinelSvc := application.NewSentinelService(
		repoManager,
		btcService,
		config.GetUint64(config.ConfirmationThresholdKey),
		config.GetUint64(config.RevertThresholdKey),
		devUnlock,
	)

	httpSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:         fmt.Sprintf(":%d", config.GetInt(config.ListeningPortKey)),
		SentinelService: sentinelSvc,
	})
	if err != nil {
		log.WithError(err).Panic("error while setting up http interface")
	}

	statsCtx, stopStats := context.WithCancel(context.Background())
	defer stopStats()
	statsInterval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
	stats.EnableMemoryStatistics(
		statsCtx, statsInterval, filepath.Join(config.GetDatadir(), "stats"),
	)

	log.Info("starting sentinel")
	go func() {
		if err := httpSvc.Start(); err != nil {
			log.WithError(err).Panic("error while serving http interface")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	httpSvc.Stop(shutdownCtx)
	stopStats()
}
