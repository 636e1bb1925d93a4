// Package stats periodically reports process-level runtime statistics.
package stats

import (
	"bufio"
	"context"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1 << 20

// EnableMemoryStatistics spawns a goroutine that logs memory usage and
// goroutine count at every interval until ctx is done. On shutdown the
// gathered Prometheus metrics are dumped to dumpFile.
func EnableMemoryStatistics(
	ctx context.Context, interval time.Duration, dumpFile string,
) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
				PrintNumOfRoutines()
			case <-ctx.Done():
				if err := DumpPrometheusDefaults(dumpFile); err != nil {
					log.WithError(err).Warn("failed to dump metrics")
				}
				return
			}
		}
	}()
}

func toMegabytes(bytes uint64) float64 {
	return float64(bytes) / megabyte
}

// PrintMemoryStatistics logs allocation counters from the go runtime.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Infof(
		"total allocated: %.1fMB, heap allocated: %.1fMB, "+
			"allocated objects: %v, freed objects: %v",
		toMegabytes(memStats.TotalAlloc),
		toMegabytes(memStats.HeapAlloc),
		memStats.Mallocs,
		memStats.Frees,
	)
}

// PrintNumOfRoutines logs the number of goroutines currently running.
func PrintNumOfRoutines() {
	log.Infof("num of go routines: %v", runtime.NumGoroutine())
}

// DumpPrometheusDefaults appends the current Prometheus metrics to the given
// file.
func DumpPrometheusDefaults(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	metricFamily, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, v := range metricFamily {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}
