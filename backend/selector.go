package backend

import "sync"

// Select is the pure selection rule: the fallback backend is chosen when
// the capability probe is negative or either primary asset locator is
// absent; otherwise the primary backend wins.
func Select(caps Capabilities, loc Locators) Kind {
	if !caps.Usable() || !loc.HasPrimary() {
		return Fallback
	}
	return Primary
}

// Selector memoizes the selection decision. Mixing backends mid-process
// would corrupt the singleton engine's memory assumptions, so the first
// answer is the only answer.
type Selector struct {
	once sync.Once
	kind Kind
}

// Select returns the memoized backend choice, computing it on first use.
func (s *Selector) Select(caps Capabilities, loc Locators) Kind {
	s.once.Do(func() {
		s.kind = Select(caps, loc)
	})
	return s.kind
}
