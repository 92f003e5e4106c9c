package reconnect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestRunNormalClosure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(clock, time.Second, 3)

	dials := 0
	err := p.Run(context.Background(), func(ctx context.Context, connected func()) error {
		dials++
		connected()
		return nil // deliberate close
	})
	if err != nil {
		t.Fatalf("Run returned %v, want nil", err)
	}
	if dials != 1 {
		t.Errorf("dials = %d, want 1", dials)
	}
	if got := p.State(); got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
}

// An abnormally closed connection is retried up to the configured maximum,
// spaced by the configured delay, and the policy then goes offline.
func TestRunExhaustsAttempts(t *testing.T) {
	const maxAttempts = 3
	clock := clockwork.NewFakeClock()
	p := New(clock, 5*time.Second, maxAttempts)

	dialed := make(chan struct{}, maxAttempts+1)
	done := make(chan error, 1)

	go func() {
		done <- p.Run(context.Background(), func(ctx context.Context, connected func()) error {
			dialed <- struct{}{}
			return errors.New("connection refused")
		})
	}()

	for i := 0; i < maxAttempts-1; i++ {
		<-dialed
		// Run is now parked in backoff; release it.
		clock.BlockUntil(1)
		clock.Advance(5 * time.Second)
	}
	<-dialed

	err := <-done
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("Run returned %v, want ErrOffline", err)
	}
	if got := p.State(); got != StateOffline {
		t.Errorf("state = %v, want offline", got)
	}
	if got := p.Attempts(); got != maxAttempts {
		t.Errorf("attempts = %d, want %d", got, maxAttempts)
	}

	select {
	case <-dialed:
		t.Error("dialed again after going offline")
	default:
	}
}

func TestRunSuccessResetsAttempts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(clock, time.Second, 3)

	// Fail once, connect, drop abnormally, fail once more, then close
	// normally. Without the reset on the successful connection the third
	// failure would exhaust maxAttempts=3 and Run would go offline.
	script := []struct {
		connect bool
		err     error
	}{
		{false, errors.New("refused")},
		{true, errors.New("dropped")},
		{false, errors.New("refused")},
		{true, nil},
	}
	step := 0

	done := make(chan error, 1)
	go func() {
		done <- p.Run(context.Background(), func(ctx context.Context, connected func()) error {
			s := script[step]
			step++
			if s.connect {
				connected()
			}
			return s.err
		})
	}()

	for i := 0; i < len(script)-1; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
	}

	if err := <-done; err != nil {
		t.Fatalf("Run returned %v, want nil", err)
	}
	if got := p.State(); got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
	if got := p.Attempts(); got != 0 {
		t.Errorf("attempts = %d, want 0", got)
	}
}

func TestRunBackoffUsesConfiguredDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(clock, 10*time.Second, 5)

	dialed := make(chan struct{}, 2)
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		done <- p.Run(ctx, func(ctx context.Context, connected func()) error {
			dialed <- struct{}{}
			return errors.New("refused")
		})
	}()

	<-dialed
	clock.BlockUntil(1)
	if got := p.State(); got != StateBackoff {
		t.Errorf("state during wait = %v, want backoff", got)
	}

	// Advancing just short of the delay must not trigger a redial.
	clock.Advance(9 * time.Second)
	select {
	case <-dialed:
		t.Fatal("redialed before the configured delay elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(time.Second)
	<-dialed

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}

func TestRunContextCancelledDuringBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := New(clock, time.Minute, 5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(ctx context.Context, connected func()) error {
			return errors.New("refused")
		})
	}()

	clock.BlockUntil(1)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	if got := p.State(); got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateBackoff, "backoff"},
		{StateOffline, "offline"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
