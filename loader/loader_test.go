package loader

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wippyai/argon2-engine/backend"
	"github.com/wippyai/argon2-engine/engine"
	"github.com/wippyai/argon2-engine/enginetest"
	"github.com/wippyai/argon2-engine/errors"
)

func testLocators() backend.Locators {
	return backend.Locators{
		FallbackBinary: backend.Locator{Bytes: []byte{0x00, 0x61, 0x73, 0x6d}},
	}
}

func noProbe() backend.Capabilities { return backend.Capabilities{} }

func TestEnsureReady_ConcurrentCallersShareOneLoad(t *testing.T) {
	const callers = 16

	var fetchCalls atomic.Int64
	fake := enginetest.New()

	l := New(Config{
		Locators: testLocators(),
		Probe:    noProbe,
		Fetch: func(ctx context.Context, loc backend.Locator) ([]byte, error) {
			fetchCalls.Add(1)
			// Hold the acquire phase open long enough for every
			// caller to arrive while loading.
			time.Sleep(20 * time.Millisecond)
			return loc.Bytes, nil
		},
		Link: func(ctx context.Context, assets backend.Assets, cfg engine.Config) (engine.Surface, error) {
			return fake, nil
		},
	})

	var wg sync.WaitGroup
	surfaces := make([]engine.Surface, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			surfaces[i], errs[i] = l.EnsureReady(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if surfaces[i] != engine.Surface(fake) {
			t.Fatalf("caller %d observed a different surface", i)
		}
	}
	if got := fetchCalls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
	if got := l.Fetches(); got != 1 {
		t.Errorf("fetch cycles = %d, want 1", got)
	}
	if got := l.Links(); got != 1 {
		t.Errorf("link cycles = %d, want 1", got)
	}
	if l.State() != StateReady {
		t.Errorf("state = %v, want ready", l.State())
	}
}

func TestEnsureReady_ReadyIsImmediate(t *testing.T) {
	fake := enginetest.New()
	l := New(Config{
		Locators: testLocators(),
		Probe:    noProbe,
		Fetch: func(ctx context.Context, loc backend.Locator) ([]byte, error) {
			return loc.Bytes, nil
		},
		Link: func(ctx context.Context, assets backend.Assets, cfg engine.Config) (engine.Surface, error) {
			return fake, nil
		},
	})

	if _, err := l.EnsureReady(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// A ready loader resolves even under an already-canceled context:
	// no I/O, no waiting.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	surf, err := l.EnsureReady(ctx)
	if err != nil {
		t.Fatalf("ready call with canceled context: %v", err)
	}
	if surf != engine.Surface(fake) {
		t.Fatal("ready call returned a different surface")
	}
	if got := l.Fetches(); got != 1 {
		t.Errorf("fetch cycles = %d, want 1", got)
	}
}

func TestEnsureReady_FailureFansOutAndSticks(t *testing.T) {
	const callers = 8
	linkErr := stderrors.New("unlinkable")

	var fetchCalls atomic.Int64
	l := New(Config{
		Locators: testLocators(),
		Probe:    noProbe,
		Fetch: func(ctx context.Context, loc backend.Locator) ([]byte, error) {
			fetchCalls.Add(1)
			time.Sleep(10 * time.Millisecond)
			return loc.Bytes, nil
		},
		Link: func(ctx context.Context, assets backend.Assets, cfg engine.Config) (engine.Surface, error) {
			return nil, linkErr
		},
	})

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.EnsureReady(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] == nil {
			t.Fatalf("caller %d succeeded unexpectedly", i)
		}
		if !stderrors.Is(errs[i], linkErr) {
			t.Fatalf("caller %d got %v, want the link error", i, errs[i])
		}
		if errs[i] != errs[0] {
			t.Fatalf("caller %d observed a different error value", i)
		}
	}
	if l.State() != StateFailed {
		t.Fatalf("state = %v, want failed", l.State())
	}

	// Failed is absorbing without retry: no new fetch on later calls.
	if _, err := l.EnsureReady(context.Background()); !stderrors.Is(err, linkErr) {
		t.Fatalf("post-failure call: %v", err)
	}
	if got := fetchCalls.Load(); got != 1 {
		t.Errorf("fetch calls after failure = %d, want 1", got)
	}
}

func TestEnsureReady_FetchFailureCarriesPhase(t *testing.T) {
	l := New(Config{
		Locators: testLocators(),
		Probe:    noProbe,
		Fetch: func(ctx context.Context, loc backend.Locator) ([]byte, error) {
			return nil, stderrors.New("connection refused")
		},
	})

	_, err := l.EnsureReady(context.Background())
	if err == nil {
		t.Fatal("expected fetch failure")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseFetch, Kind: errors.KindIO}) {
		t.Errorf("error %v does not identify the fetch phase", err)
	}
}

func TestEnsureReady_RetryAfterFailure(t *testing.T) {
	var attempts atomic.Int64
	fake := enginetest.New()

	l := New(Config{
		Locators: testLocators(),
		Probe:    noProbe,
		Retry:    true,
		Fetch: func(ctx context.Context, loc backend.Locator) ([]byte, error) {
			return loc.Bytes, nil
		},
		Link: func(ctx context.Context, assets backend.Assets, cfg engine.Config) (engine.Surface, error) {
			if attempts.Add(1) == 1 {
				return nil, stderrors.New("transient")
			}
			return fake, nil
		},
	})

	if _, err := l.EnsureReady(context.Background()); err == nil {
		t.Fatal("first attempt should fail")
	}
	if l.State() != StateFailed {
		t.Fatalf("state = %v, want failed", l.State())
	}

	surf, err := l.EnsureReady(context.Background())
	if err != nil {
		t.Fatalf("retry attempt: %v", err)
	}
	if surf != engine.Surface(fake) {
		t.Fatal("retry returned a different surface")
	}
	if l.State() != StateReady {
		t.Errorf("state = %v, want ready", l.State())
	}
}

func TestEnsureReady_SelectsFallbackWhenPrimaryAbsent(t *testing.T) {
	var linked engine.Config
	fake := enginetest.New()

	l := New(Config{
		Locators: testLocators(), // no primary locators
		Probe: func() backend.Capabilities {
			return backend.Capabilities{Compiler: true, SIMD: true, Threads: true}
		},
		Fetch: func(ctx context.Context, loc backend.Locator) ([]byte, error) {
			return loc.Bytes, nil
		},
		Link: func(ctx context.Context, assets backend.Assets, cfg engine.Config) (engine.Surface, error) {
			linked = cfg
			return fake, nil
		},
	})

	if _, err := l.EnsureReady(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if linked.Kind != backend.Fallback {
		t.Errorf("linked kind = %v, want fallback", linked.Kind)
	}
}

func TestEnsureReady_AbandonedCallerDoesNotCancelLoad(t *testing.T) {
	release := make(chan struct{})
	fake := enginetest.New()

	l := New(Config{
		Locators: testLocators(),
		Probe:    noProbe,
		Fetch: func(ctx context.Context, loc backend.Locator) ([]byte, error) {
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return loc.Bytes, nil
		},
		Link: func(ctx context.Context, assets backend.Assets, cfg engine.Config) (engine.Surface, error) {
			return fake, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.EnsureReady(ctx)
		done <- err
	}()

	cancel()
	if err := <-done; err == nil {
		t.Fatal("abandoned caller should observe cancellation")
	}

	// The in-flight load keeps running and later callers get the engine.
	close(release)
	surf, err := l.EnsureReady(context.Background())
	if err != nil {
		t.Fatalf("second caller: %v", err)
	}
	if surf != engine.Surface(fake) {
		t.Fatal("second caller got a different surface")
	}
}
