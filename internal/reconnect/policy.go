// Package reconnect implements the client-side reconnection state machine for
// the live event channel.
package reconnect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// State of the policy.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateBackoff
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	case StateOffline:
		return "offline"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrOffline is returned by Run once the attempt bound is exhausted. The
// client surfaces an offline UI state; it is not a fatal process error.
var ErrOffline = errors.New("reconnect attempts exhausted")

// DialFunc establishes one connection and blocks until it ends. It must call
// connected once the link is up. A nil return means the link was closed
// deliberately (normal closure); an error means abnormal loss.
type DialFunc func(ctx context.Context, connected func()) error

// Policy drives reconnection with a fixed inter-attempt delay and a bounded
// attempt count. Timers go through a clockwork.Clock so tests advance a fake
// clock instead of sleeping.
type Policy struct {
	clock       clockwork.Clock
	delay       time.Duration
	maxAttempts int

	mu       sync.Mutex
	state    State
	attempts int
}

// New returns an idle policy. delay is the fixed spacing between attempts and
// maxAttempts bounds consecutive failures before the policy goes offline.
func New(clock clockwork.Clock, delay time.Duration, maxAttempts int) *Policy {
	return &Policy{
		clock:       clock,
		delay:       delay,
		maxAttempts: maxAttempts,
		state:       StateIdle,
	}
}

// State returns the current state.
func (p *Policy) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Attempts returns the number of consecutive failed attempts since the last
// successful connection.
func (p *Policy) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func (p *Policy) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run dials until the link is closed normally, the context is cancelled, or
// the attempt bound is exhausted. A successful connection resets the attempt
// counter, so a long-lived link followed by a drop restarts the full budget.
func (p *Policy) Run(ctx context.Context, dial DialFunc) error {
	defer func() {
		// Leave Offline visible; everything else settles back to Idle.
		p.mu.Lock()
		if p.state != StateOffline {
			p.state = StateIdle
		}
		p.mu.Unlock()
	}()

	for {
		p.setState(StateConnecting)

		err := dial(ctx, func() {
			p.mu.Lock()
			p.state = StateConnected
			p.attempts = 0
			p.mu.Unlock()
		})
		if err == nil {
			// Normal closure: no further attempts.
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p.mu.Lock()
		p.attempts++
		exhausted := p.attempts >= p.maxAttempts
		p.mu.Unlock()

		if exhausted {
			p.setState(StateOffline)
			return fmt.Errorf("%w after %d attempts: %w", ErrOffline, p.maxAttempts, err)
		}

		p.setState(StateBackoff)
		select {
		case <-p.clock.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
