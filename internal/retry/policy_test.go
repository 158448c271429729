package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != ModeLinear {
		t.Fatalf("expected linear default mode got %s", p.Mode)
	}
	if p.Initial != time.Second || p.Max != 30*time.Second || p.MaxRetries != 2 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestNewPolicyClampsInitial(t *testing.T) {
	p := NewPolicy(ModeFixed, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != ModeFixed || p.MaxRetries != 5 {
		t.Fatalf("unexpected policy: %+v", p)
	}
	if NewPolicy("bogus", 0, 0, -1).Mode != ModeLinear {
		t.Fatal("unknown mode should fall back to linear")
	}
}

func TestDelayModes(t *testing.T) {
	cases := []struct {
		p       Policy
		attempt int
		want    time.Duration
	}{
		{NewPolicy(ModeFixed, 100*time.Millisecond, 500*time.Millisecond, 3), 3, 100 * time.Millisecond},
		{NewPolicy(ModeLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 2, 200 * time.Millisecond},
		{NewPolicy(ModeLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 3, 250 * time.Millisecond},
		{NewPolicy(ModeExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 2, 100 * time.Millisecond},
		{NewPolicy(ModeExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 3, 160 * time.Millisecond},
		{DefaultPolicy(), 0, 0},
	}
	for _, c := range cases {
		if got := c.p.Delay(c.attempt); got != c.want {
			t.Errorf("%s attempt %d: expected %v got %v", c.p.Mode, c.attempt, c.want, got)
		}
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 5)
	calls := 0
	permanent := ferrors.ConfigError("bad url").WithRetry(ferrors.RetryNever).Build()
	err := p.Do(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected one call with permanent error, got %d calls, err %v", calls, err)
	}
}

func TestDoGivesUp(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("down")
	})
	if err == nil || calls != 3 {
		t.Fatalf("expected 3 calls and an error, got %d calls, err %v", calls, err)
	}
}
