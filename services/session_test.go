package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeExists struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeExists) check(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func TestSessionValidator_ValidContext(t *testing.T) {
	exists := &fakeExists{}
	invalidations := 0

	sv := NewSessionValidator(exists.check, "act-1", func() { invalidations++ })

	assert.Equal(t, SessionValid, sv.Validate(context.Background()))
	assert.Equal(t, SessionValid, sv.State())
	assert.Equal(t, 0, invalidations)
}

func TestSessionValidator_AnyFailureSignalsRedirectOncePerCycle(t *testing.T) {
	exists := &fakeExists{err: errors.New("404 not found")}
	invalidations := 0

	sv := NewSessionValidator(exists.check, "act-1", func() { invalidations++ })

	// Exactly one redirect signal per validation cycle, no immediate retry.
	assert.Equal(t, SessionInvalid, sv.Validate(context.Background()))
	assert.Equal(t, 1, invalidations)
	assert.Equal(t, 1, exists.calls)

	assert.Equal(t, SessionInvalid, sv.Validate(context.Background()))
	assert.Equal(t, 2, invalidations)
}

func TestSessionValidator_StartValidatesImmediately(t *testing.T) {
	exists := &fakeExists{err: errors.New("gone")}

	sv := NewSessionValidator(exists.check, "room-1", nil)
	sv.Interval = time.Hour
	sv.Start(context.Background())
	defer sv.Stop()

	assert.Equal(t, SessionInvalid, sv.State())
	assert.Equal(t, 1, exists.calls)
}
