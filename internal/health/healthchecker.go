package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthPinger is the probe contract shared by pingable dependencies. The
// relational store, the search index and the embeddings provider each expose
// it; HealthPing returns nil while the dependency can serve requests.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// HealthChecker is implemented by component-level checkers (store, search index, embedder).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker aggregates component checkers into a single service health flag.
type ServiceHealthChecker struct {
	healthy atomic.Int32
	deps    []HealthChecker
	log     zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	h := &ServiceHealthChecker{deps: deps, log: log}
	h.healthy.Store(0)
	return h
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Start periodically evaluates dependency health and updates the service flag.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(0)
	eval := func() {
		all := true
		for _, c := range h.deps {
			if !c.IsHealthy() {
				all = false
			}
		}
		if all {
			h.healthy.Store(1)
		} else {
			h.healthy.Store(0)
		}
		cur := h.healthy.Load()
		if cur != prev {
			if cur == 1 {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Error().Stack().Msg("service health: DOWN")
			}
			prev = cur
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}

// StoreHealthChecker probes the relational store through its HealthPinger.
type StoreHealthChecker struct {
	pinger       HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewStoreHealthChecker(p HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *StoreHealthChecker {
	hc := &StoreHealthChecker{pinger: p, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0)
	return hc
}

func (hc *StoreHealthChecker) Name() string    { return "store" }
func (hc *StoreHealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

func (hc *StoreHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()
		if err := hc.pinger.HealthPing(checkCtx); err != nil {
			hc.healthy.Store(0)
			hc.log.Error().Stack().Str("checker", hc.Name()).Err(err).Msg("store health check failed")
			return
		}
		hc.healthy.Store(1)
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
