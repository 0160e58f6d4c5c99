package hasher

import (
	"context"

	"github.com/wippyai/argon2-engine/backend"
	"github.com/wippyai/argon2-engine/engine"
	"github.com/wippyai/argon2-engine/loader"
)

type options struct {
	locators      backend.Locators
	memoryCostKiB uint32
	enableThreads bool
	retry         bool
	probe         func() backend.Capabilities
	fetch         backend.Fetcher
	link          loader.LinkFunc
}

func defaultOptions() options {
	return options{
		memoryCostKiB: 0, // platform maximum unless told otherwise
		enableThreads: true,
	}
}

func (o options) loaderConfig() loader.Config {
	return loader.Config{
		Locators:      o.locators,
		MemoryCostKiB: o.memoryCostKiB,
		EnableThreads: o.enableThreads,
		Retry:         o.retry,
		Probe:         o.probe,
		Fetch:         o.fetch,
		Link:          o.link,
	}
}

// Option configures a Hasher at construction time.
type Option func(*options)

// WithLocators sets where the backend assets live. Omitting either primary
// locator forces the portable fallback backend.
func WithLocators(loc backend.Locators) Option {
	return func(o *options) {
		o.locators = loc
	}
}

// WithMemoryCostKiB sizes the engine's linear-memory ceiling from the
// largest working set calls are expected to request. Requests near the
// platform ceiling are clamped, not rejected.
func WithMemoryCostKiB(kib uint32) Option {
	return func(o *options) {
		o.memoryCostKiB = kib
	}
}

// WithThreads toggles the threads feature for the primary backend. It is
// on by default and ignored when the capability probe lacks support.
func WithThreads(enabled bool) Option {
	return func(o *options) {
		o.enableThreads = enabled
	}
}

// WithRetry allows a failed engine load to be attempted again on a later
// call. Off by default: a failed load is permanent for the process.
func WithRetry(enabled bool) Option {
	return func(o *options) {
		o.retry = enabled
	}
}

// WithSurface short-circuits loading with an already-linked engine
// surface. Intended for tests and embedders that manage linking
// themselves; no asset is fetched.
func WithSurface(s engine.Surface) Option {
	return func(o *options) {
		o.probe = func() backend.Capabilities { return backend.Capabilities{} }
		o.fetch = func(ctx context.Context, loc backend.Locator) ([]byte, error) {
			return nil, nil
		}
		o.link = func(ctx context.Context, assets backend.Assets, cfg engine.Config) (engine.Surface, error) {
			return s, nil
		}
	}
}
