package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLimiter(t *testing.T, cfg Config) *Limiter {
	t.Helper()

	l, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return l
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			name:        "defaults",
			cfg:         Config{},
			expectError: false,
		},
		{
			name:        "explicit valid config",
			cfg:         Config{BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second},
			expectError: false,
		},
		{
			name:        "negative base delay",
			cfg:         Config{BaseDelay: -time.Second, MaxDelay: time.Second},
			expectError: true,
		},
		{
			name:        "max below base",
			cfg:         Config{BaseDelay: time.Second, MaxDelay: 100 * time.Millisecond},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg, zerolog.Nop())
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if l.CurrentDelay() != l.BaseDelay() {
				t.Errorf("CurrentDelay() = %v, want base delay %v", l.CurrentDelay(), l.BaseDelay())
			}
		})
	}
}

func TestLimiter_RecordFailure_TightensDelay(t *testing.T) {
	l := newTestLimiter(t, Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second})

	l.RecordFailure()
	if got, want := l.CurrentDelay(), 150*time.Millisecond; got != want {
		t.Errorf("CurrentDelay() after one failure = %v, want %v", got, want)
	}

	l.RecordFailure()
	if got, want := l.CurrentDelay(), 225*time.Millisecond; got != want {
		t.Errorf("CurrentDelay() after two failures = %v, want %v", got, want)
	}
}

func TestLimiter_RecordFailure_CappedAtMax(t *testing.T) {
	l := newTestLimiter(t, Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second})

	for i := 0; i < 20; i++ {
		l.RecordFailure()
	}

	if got := l.CurrentDelay(); got != l.MaxDelay() {
		t.Errorf("CurrentDelay() after many failures = %v, want max %v", got, l.MaxDelay())
	}
}

func TestLimiter_RecordSuccess_RelaxesAfterFourSuccesses(t *testing.T) {
	l := newTestLimiter(t, Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second})

	// Push the delay above base first.
	l.RecordFailure()
	l.RecordFailure()
	elevated := l.CurrentDelay() // 225ms

	// Three successes must not change the delay.
	for i := 0; i < 3; i++ {
		l.RecordSuccess()
	}
	if got := l.CurrentDelay(); got != elevated {
		t.Errorf("CurrentDelay() after 3 successes = %v, want unchanged %v", got, elevated)
	}

	// The fourth success triggers the reduction.
	l.RecordSuccess()
	want := time.Duration(float64(elevated) * 0.8)
	if got := l.CurrentDelay(); got != want {
		t.Errorf("CurrentDelay() after 4 successes = %v, want %v", got, want)
	}

	// The counter reset with the reduction, so three more successes do nothing.
	reduced := l.CurrentDelay()
	for i := 0; i < 3; i++ {
		l.RecordSuccess()
	}
	if got := l.CurrentDelay(); got != reduced {
		t.Errorf("CurrentDelay() = %v, want %v (success run must restart after relaxation)", got, reduced)
	}
}

func TestLimiter_RecordSuccess_FlooredAtBase(t *testing.T) {
	l := newTestLimiter(t, Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second})

	l.RecordFailure() // 150ms

	for i := 0; i < 40; i++ {
		l.RecordSuccess()
	}

	if got := l.CurrentDelay(); got < l.BaseDelay() {
		t.Errorf("CurrentDelay() = %v, fell below base %v", got, l.BaseDelay())
	}
}

func TestLimiter_FailureResetsSuccessRun(t *testing.T) {
	l := newTestLimiter(t, Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second})

	l.RecordFailure()
	l.RecordFailure()
	elevated := l.CurrentDelay()

	// Three successes, then a failure: the run restarts and the delay grows.
	for i := 0; i < 3; i++ {
		l.RecordSuccess()
	}
	l.RecordFailure()

	// Three more successes must not relax (run length is 3, not 6).
	for i := 0; i < 3; i++ {
		l.RecordSuccess()
	}
	want := time.Duration(float64(elevated) * 1.5)
	if want > l.MaxDelay() {
		want = l.MaxDelay()
	}
	if got := l.CurrentDelay(); got != want {
		t.Errorf("CurrentDelay() = %v, want %v", got, want)
	}
}

func TestLimiter_DelayNeverLeavesBounds(t *testing.T) {
	l := newTestLimiter(t, Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second})

	// Arbitrary interleaving of successes and failures.
	ops := []bool{true, false, true, true, true, true, false, false, false,
		false, false, false, false, true, true, true, true, true, true, true,
		true, true, false, true}

	for i, success := range ops {
		if success {
			l.RecordSuccess()
		} else {
			l.RecordFailure()
		}

		d := l.CurrentDelay()
		if d < l.BaseDelay() || d > l.MaxDelay() {
			t.Fatalf("op %d: CurrentDelay() = %v, outside [%v, %v]", i, d, l.BaseDelay(), l.MaxDelay())
		}
	}
}

func TestLimiter_Wait_EnforcesSpacing(t *testing.T) {
	l := newTestLimiter(t, Config{BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second})

	ctx := context.Background()

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("second Wait() failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 45*time.Millisecond {
		t.Errorf("second Wait() returned after %v, want at least ~50ms spacing", elapsed)
	}
}

func TestLimiter_Wait_ContextCancellation(t *testing.T) {
	l := newTestLimiter(t, Config{BaseDelay: 5 * time.Second, MaxDelay: 10 * time.Second})

	// Claim the first slot so the next Wait has to sleep.
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("Wait() = nil, want context error")
	}
	if err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
