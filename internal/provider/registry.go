package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-erp/settlement-engine/internal/domain"
)

const defaultProbeTimeout = 2 * time.Second

// Registry holds an ordered, fixed list of provider candidates. Priority is
// declaration order; the manual fallback closes the list so selection is
// total.
type Registry struct {
	candidates   []Provider
	fallback     Provider
	probeTimeout time.Duration
	logger       *zap.Logger

	onUnavailable func(provider string)
}

func NewRegistry(fallback Provider, probeTimeout time.Duration, logger *zap.Logger, candidates ...Provider) *Registry {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		candidates:   candidates,
		fallback:     fallback,
		probeTimeout: probeTimeout,
		logger:       logger,
	}
}

// OnUnavailable registers a callback invoked once per failed availability
// probe, typically for metrics.
func (r *Registry) OnUnavailable(fn func(provider string)) {
	r.onUnavailable = fn
}

// Select probes candidates in order and returns the first available one,
// degrading to the fallback. Each probe is time-bounded so a hung
// availability check cannot block selection.
func (r *Registry) Select(ctx context.Context) Provider {
	for _, candidate := range r.candidates {
		if r.probe(ctx, candidate) {
			return candidate
		}
		r.logger.Debug("provider unavailable, trying next",
			zap.String("provider", candidate.Name().String()),
		)
		if r.onUnavailable != nil {
			r.onUnavailable(candidate.Name().String())
		}
	}
	return r.fallback
}

// ByName resolves the provider a callback route addresses.
func (r *Registry) ByName(name domain.ProviderName) (Provider, bool) {
	for _, candidate := range r.candidates {
		if candidate.Name() == name {
			return candidate, true
		}
	}
	if r.fallback != nil && r.fallback.Name() == name {
		return r.fallback, true
	}
	return nil, false
}

func (r *Registry) probe(ctx context.Context, p Provider) bool {
	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		done <- p.IsAvailable(probeCtx)
	}()

	select {
	case available := <-done:
		return available
	case <-probeCtx.Done():
		// A probe that ignores its context counts as unavailable.
		return false
	}
}
