package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/pkg/observability"
)

var (
	// ErrUnavailable is returned while the circuit breaker is open
	ErrUnavailable = errors.New("language model temporarily unavailable")
	// ErrDisabled is returned when no language model is configured
	ErrDisabled = errors.New("language model features are disabled")
)

// ResilienceConfig holds the limits applied around every model call
type ResilienceConfig struct {
	Timeout          time.Duration
	RequestsPerSec   float64
	Burst            int
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultResilienceConfig returns the default limits
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		Timeout:          60 * time.Second,
		RequestsPerSec:   2,
		Burst:            4,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// Resilient wraps a Completer with a rate limiter, a per-call timeout and a
// circuit breaker, and records metrics for each call
type Resilient struct {
	next     ports.Completer
	provider string
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	metrics  *observability.Collector
	logger   *zap.Logger
}

var _ ports.Completer = (*Resilient)(nil)

// NewResilient wraps next. provider labels metrics and the breaker.
func NewResilient(next ports.Completer, provider string, cfg ResilienceConfig, metrics *observability.Collector, logger *zap.Logger) *Resilient {
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	r := &Resilient{
		next:     next,
		provider: provider,
		timeout:  cfg.Timeout,
		limiter:  rate.NewLimiter(limit, burst),
		metrics:  metrics,
		logger:   logger,
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + provider,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// the caller giving up is not a model failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return r
}

func (r *Resilient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit wait: %w", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.next.Complete(ctx, system, prompt)
	})
	r.metrics.ObserveLLM(r.provider, err, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		r.logger.Warn("Language model call failed", zap.String("provider", r.provider), zap.Error(err))
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state, for readiness checks
func (r *Resilient) State() gobreaker.State {
	return r.breaker.State()
}
