// Package platform abstracts process-wide system primitives (wall clock time,
// unique ID generation) behind swappable providers. Code that must stay
// deterministic under replay — for example a run hosted inside a durable
// workflow — substitutes providers backed by the orchestration engine, while
// everything else keeps the real defaults.
package platform

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimeProvider returns the current time.
type TimeProvider func() time.Time

// IDProvider returns a new unique identifier string.
type IDProvider func() string

var (
	mu           sync.RWMutex
	timeProvider TimeProvider = time.Now
	idProvider   IDProvider   = uuid.NewString
)

// SetTimeProvider replaces the process-wide time source.
func SetTimeProvider(p TimeProvider) {
	mu.Lock()
	defer mu.Unlock()
	timeProvider = p
}

// ResetTimeProvider restores the default wall clock time source.
func ResetTimeProvider() {
	mu.Lock()
	defer mu.Unlock()
	timeProvider = time.Now
}

// SetIDProvider replaces the process-wide unique ID source.
func SetIDProvider(p IDProvider) {
	mu.Lock()
	defer mu.Unlock()
	idProvider = p
}

// ResetIDProvider restores the default UUID-based ID source.
func ResetIDProvider() {
	mu.Lock()
	defer mu.Unlock()
	idProvider = uuid.NewString
}

// Now returns the current time from the configured provider.
func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return timeProvider()
}

// NewID returns a new unique identifier from the configured provider.
func NewID() string {
	mu.RLock()
	defer mu.RUnlock()
	return idProvider()
}
