package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the position of a CircuitBreaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{"closed", "open", "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrCircuitOpen is returned without calling the protected function.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig tunes a CircuitBreaker. Zero values get defaults.
type CircuitBreakerConfig struct {
	Name    string `mapstructure:"-"`
	Enabled bool   `mapstructure:"enabled"`
	// MaxFailures in a row open the circuit.
	MaxFailures int `mapstructure:"max_failures"`
	// OpenTimeout passes before an open circuit lets a probe through.
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
	HalfOpenMaxCalls int           `mapstructure:"half_open_max_calls"`
	// IsFailure filters errors. Unset, everything but context.Canceled counts.
	IsFailure     func(err error) bool              `mapstructure:"-"`
	OnStateChange func(name string, from, to State) `mapstructure:"-"`
}

func (c *CircuitBreakerConfig) ApplyDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
}

// CircuitBreaker stops calling a backend that keeps failing and probes it
// again after OpenTimeout. A disabled breaker only forwards calls.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	// probes admitted and probes succeeded while half-open
	probes, passed int
	openedAt       time.Time
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	config.ApplyDefaults()
	return &CircuitBreaker{config: config, now: time.Now}
}

// Execute calls fn unless the circuit is open and feeds the result back.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.config.Enabled {
		return fn()
	}
	if !cb.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	if err != nil && cb.config.IsFailure(err) {
		cb.failed()
	} else {
		cb.succeeded()
	}
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.current()
}

// Reset forces the circuit closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.moveTo(StateClosed)
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.current() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxCalls {
			return false
		}
		cb.probes++
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) failed() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	switch cb.current() {
	case StateHalfOpen:
		cb.moveTo(StateOpen)
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			cb.moveTo(StateOpen)
		}
	}
}

func (cb *CircuitBreaker) succeeded() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.current() {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		if cb.passed++; cb.passed >= cb.config.HalfOpenMaxCalls {
			cb.moveTo(StateClosed)
		}
	}
}

// current turns an open circuit half-open once OpenTimeout has passed.
// Callers hold mu.
func (cb *CircuitBreaker) current() State {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.OpenTimeout {
		cb.moveTo(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state, cb.probes, cb.passed = to, 0, 0
	switch to {
	case StateClosed:
		cb.failures = 0
	case StateOpen:
		cb.openedAt = cb.now()
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
