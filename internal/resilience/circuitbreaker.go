package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"shopsense/internal/telemetry"
)

// ErrRejected is returned when the breaker refuses to run the action.
var ErrRejected = errors.New("circuit breaker rejected request")

// ErrAbandoned marks an action whose caller went away before it finished.
// Such results count neither as success nor as failure.
var ErrAbandoned = errors.New("caller abandoned request")

// CircuitBreaker guards a single downstream dependency. It never retries;
// it only stops calling a dependency that keeps failing.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewCircuitBreaker opens after threshold consecutive failures and lets a
// single trial request through once timeout has elapsed. Cancellations are
// not failures of the dependency, deadlines are.
func NewCircuitBreaker[T any](name string, threshold uint32, timeout time.Duration) *CircuitBreaker[T] {
	telemetry.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, ErrAbandoned) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				slog.Warn("Circuit Breaker OPENED", "name", name, "from", from.String())
			case gobreaker.StateClosed:
				slog.Info("Circuit Breaker RECOVERED", "name", name)
			default:
				slog.Info("Circuit Breaker HALF-OPEN", "name", name)
			}
			telemetry.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &CircuitBreaker[T]{cb: cb}
}

// Execute runs action unless the breaker is open. A rejection is reported
// as ErrRejected wrapping the gobreaker cause.
func (c *CircuitBreaker[T]) Execute(action func() (T, error)) (T, error) {
	result, err := c.cb.Execute(action)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return result, errors.Join(ErrRejected, err)
	}
	return result, err
}

func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
