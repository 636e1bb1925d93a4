// Package httpinterface serves the sentinel operations over a JSON HTTP API.
package httpinterface

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/sova-network/sova-sentinel/internal/core/application"
)

// ServiceOpts configures the HTTP service.
type ServiceOpts struct {
	// Address is the listen address, e.g. ":50051".
	Address         string
	SentinelService application.SentinelService
}

func (o ServiceOpts) validate() error {
	if len(o.Address) <= 0 {
		return fmt.Errorf("listen address must not be empty")
	}
	if o.SentinelService == nil {
		return fmt.Errorf("sentinel service must not be null")
	}
	return nil
}

// Service is the HTTP front of the sentinel.
type Service struct {
	opts   ServiceOpts
	server *http.Server
}

// NewService returns a Service ready to be started.
func NewService(opts ServiceOpts) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid service opts: %s", err)
	}

	s := &Service{opts: opts}
	s.server = &http.Server{
		Addr:         opts.Address,
		Handler:      s.router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	return s, nil
}

func (s *Service) router() http.Handler {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, loggingMiddleware, metricsMiddleware)

	router.HandleFunc("/v1/slot/lock", s.lockSlot).Methods(http.MethodPost)
	router.HandleFunc("/v1/slot/status", s.getSlotStatus).Methods(http.MethodPost)
	router.HandleFunc("/v1/slots/lock", s.batchLockSlot).Methods(http.MethodPost)
	router.HandleFunc("/v1/slots/status", s.batchGetSlotStatus).
		Methods(http.MethodPost)
	router.HandleFunc("/v1/slots/unlock", s.batchUnlockSlot).
		Methods(http.MethodPost)

	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return router
}

// Start serves the API until Stop is called. It blocks.
func (s *Service) Start() error {
	log.Infof("http interface listening on %s", s.opts.Address)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Service) Stop(ctx context.Context) {
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http interface did not shut down cleanly")
	}
	log.Debug("http interface stopped")
}

func (s *Service) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write([]byte("ok"))
}
