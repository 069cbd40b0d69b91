package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{
		Attempts:     attempts,
		InitialDelay: time.Millisecond,
		Factor:       2,
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	c := New("test", fastConfig(5))

	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	c := New("test", fastConfig(3))

	want := errors.New("permanent")
	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("Do error = %v, want the last fn error", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoRespectsContext(t *testing.T) {
	c := New("test", Config{Attempts: 5, InitialDelay: time.Hour, Factor: 2})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := c.Do(ctx, func(ctx context.Context) error {
		return errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do error = %v, want context.Canceled", err)
	}
}

func TestDoClampsAttempts(t *testing.T) {
	c := New("test", Config{Attempts: 0})

	calls := 0
	c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	c := New("test", fastConfig(1))

	fail := func(ctx context.Context) error { return errors.New("down") }
	for i := 0; i < 8; i++ {
		c.Do(context.Background(), fail)
	}

	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("Do succeeded through an open breaker")
	}
	if calls != 0 {
		t.Errorf("fn called %d times through an open breaker", calls)
	}
}

func TestGenericDo(t *testing.T) {
	c := New("test", fastConfig(3))

	calls := 0
	got, err := Do(context.Background(), c, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != 42 {
		t.Errorf("Do = %d, want 42", got)
	}
}
