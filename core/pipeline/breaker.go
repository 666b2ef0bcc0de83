package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the provider circuit is open.
var ErrCircuitOpen = errors.New("embedding provider circuit is open")

// BreakerConfig configures WithCircuitBreaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before trying again.
	Timeout time.Duration
	// HalfOpenMaxRequests is the number of trial requests allowed while half open.
	HalfOpenMaxRequests uint32
}

// DefaultBreakerConfig returns 3 failures, 30 seconds and 1 trial request.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:         3,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

// WithCircuitBreaker stops calling a failing provider. Once MaxFailures calls
// in a row failed every call fails fast with ErrCircuitOpen until Timeout passed.
func WithCircuitBreaker(embed EmbedFunc, config BreakerConfig, logger *slog.Logger) EmbedFunc {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding-provider",
		MaxRequests: config.HalfOpenMaxRequests,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Embedding circuit changed state", slog.String("name", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		result, err := breaker.Execute(func() (interface{}, error) {
			return embed(ctx, texts)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		if err != nil {
			return nil, err
		}
		return result.([][]float32), nil
	}
}
