package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultProviders(t *testing.T) {
	id := NewID()
	assert.NotEmpty(t, id)
	assert.Len(t, id, 36) // UUID length

	now := Now()
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestSetTimeProvider(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	SetTimeProvider(func() time.Time { return fixed })
	defer ResetTimeProvider()

	assert.Equal(t, fixed, Now())
	assert.Equal(t, fixed, Now()) // stable across calls
}

func TestSetIDProvider(t *testing.T) {
	n := 0
	SetIDProvider(func() string {
		n++
		return "id-" + string(rune('0'+n))
	})
	defer ResetIDProvider()

	assert.Equal(t, "id-1", NewID())
	assert.Equal(t, "id-2", NewID())
}

func TestResetRestoresDefaults(t *testing.T) {
	SetIDProvider(func() string { return "fixed" })
	ResetIDProvider()
	assert.NotEqual(t, "fixed", NewID())

	fixed := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	SetTimeProvider(func() time.Time { return fixed })
	ResetTimeProvider()
	assert.WithinDuration(t, time.Now(), Now(), time.Second)
}
