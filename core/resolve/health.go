package resolve

import "sync/atomic"

// ProviderHealth tracks whether the remote scripture provider is currently
// degraded. Once an unauthorized or forbidden response is seen, the flag is
// set for the remainder of the process so subsequent resolutions skip the
// doomed remote tiers. Constructed once per process; tests inject isolated
// instances.
type ProviderHealth struct {
	degraded atomic.Bool
}

// NewProviderHealth returns a healthy ProviderHealth.
func NewProviderHealth() *ProviderHealth {
	return &ProviderHealth{}
}

// Degraded reports whether remote tiers should be skipped.
func (h *ProviderHealth) Degraded() bool {
	if h == nil {
		return false
	}
	return h.degraded.Load()
}

// MarkDegraded flips the flag. There is no self-healing within a process
// lifetime; only Reset (or restart) clears it.
func (h *ProviderHealth) MarkDegraded() {
	if h == nil {
		return
	}
	h.degraded.Store(true)
}

// Reset clears the flag. Exposed for process lifecycle management and tests.
func (h *ProviderHealth) Reset() {
	if h == nil {
		return
	}
	h.degraded.Store(false)
}
