package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/wippyai/argon2-engine/errors"
)

// Locator identifies one backend asset. It is either a filesystem path or
// an http(s) URL; already-resolved bytes are carried separately so embedded
// assets skip the fetch entirely.
type Locator struct {
	// Source is a path or http(s) URL. Ignored when Bytes is set.
	Source string
	// Bytes holds preloaded asset content (go:embed or prior download).
	Bytes []byte
}

// Present reports whether the locator points at anything.
func (l Locator) Present() bool {
	return l.Source != "" || len(l.Bytes) > 0
}

// Locators configures where the backend assets live. The primary backend
// needs both its binary and its shim; the fallback needs only its binary.
type Locators struct {
	// PrimaryBinary is the SIMD/threads build of the engine.
	PrimaryBinary Locator
	// PrimaryShim is the glue module instantiated before the primary
	// binary to satisfy its env imports.
	PrimaryShim Locator
	// FallbackBinary is the portable build, self-contained above WASI.
	FallbackBinary Locator
}

// HasPrimary reports whether both primary asset locators were supplied.
func (l Locators) HasPrimary() bool {
	return l.PrimaryBinary.Present() && l.PrimaryShim.Present()
}

// Assets holds the fetched bytes for one backend.
type Assets struct {
	Binary []byte
	Shim   []byte // nil for the fallback backend
}

// Fetcher resolves a single locator to bytes. The loader takes one of
// these so tests can count and stub fetches.
type Fetcher func(ctx context.Context, loc Locator) ([]byte, error)

// Fetch resolves a locator: preloaded bytes win, then http(s) URLs, then
// the filesystem.
func Fetch(ctx context.Context, loc Locator) ([]byte, error) {
	if len(loc.Bytes) > 0 {
		return loc.Bytes, nil
	}
	if loc.Source == "" {
		return nil, errors.Fetch("empty asset locator", nil)
	}

	if strings.HasPrefix(loc.Source, "http://") || strings.HasPrefix(loc.Source, "https://") {
		return fetchHTTP(ctx, loc.Source)
	}

	data, err := os.ReadFile(loc.Source)
	if err != nil {
		return nil, errors.Fetch(fmt.Sprintf("read %s", loc.Source), err)
	}
	return data, nil
}

func fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Fetch(fmt.Sprintf("build request for %s", url), err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Fetch(fmt.Sprintf("fetch %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Fetch(fmt.Sprintf("fetch %s: unexpected status %s", url, resp.Status), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Fetch(fmt.Sprintf("read body of %s", url), err)
	}
	return data, nil
}

// FetchAssets resolves every locator the selected backend needs.
func FetchAssets(ctx context.Context, kind Kind, loc Locators, fetch Fetcher) (Assets, error) {
	if fetch == nil {
		fetch = Fetch
	}

	var a Assets
	switch kind {
	case Primary:
		binary, err := fetch(ctx, loc.PrimaryBinary)
		if err != nil {
			return a, errors.Fetch("primary binary", err)
		}
		shim, err := fetch(ctx, loc.PrimaryShim)
		if err != nil {
			return a, errors.Fetch("primary shim", err)
		}
		a.Binary, a.Shim = binary, shim
	case Fallback:
		binary, err := fetch(ctx, loc.FallbackBinary)
		if err != nil {
			return a, errors.Fetch("fallback binary", err)
		}
		a.Binary = binary
	default:
		return a, errors.Fetch(fmt.Sprintf("unknown backend kind %d", kind), nil)
	}
	return a, nil
}
