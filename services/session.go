package services

import (
	"context"
	"sync"
	"time"

	"github.com/larsjuhl/kantine-kiosk/utils"
)

// SessionState is the outcome of one validation cycle. Invalidity is a
// control signal, not an error: the station reacts by sending the customer
// back to context selection, nothing is surfaced as a failure.
type SessionState string

const (
	SessionValid   SessionState = "valid"
	SessionInvalid SessionState = "invalid"
)

// SessionValidator periodically confirms that the activity or room this
// station is bound to still exists on the backend. It is advisory: it never
// blocks cart mutation or submission, it only fires the onInvalid callback
// so the UI can redirect proactively.
type SessionValidator struct {
	exists    ExistsFunc
	contextID string
	onInvalid func()
	Interval  time.Duration

	mu    sync.RWMutex
	state SessionState

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSessionValidator creates a validator for the given context id.
// onInvalid is invoked once per failed cycle and may be nil.
func NewSessionValidator(exists ExistsFunc, contextID string, onInvalid func()) *SessionValidator {
	return &SessionValidator{
		exists:    exists,
		contextID: contextID,
		onInvalid: onInvalid,
		Interval:  time.Hour,
		state:     SessionValid,
		stopChan:  make(chan struct{}),
	}
}

// Validate runs one existence check. Every failure cause (not-found,
// network, server error) is treated the same: the session is invalid and
// the redirect signal fires. There is no early retry; the next check waits
// for the regular interval.
func (sv *SessionValidator) Validate(ctx context.Context) SessionState {
	state := SessionValid
	if err := sv.exists(ctx, sv.contextID); err != nil {
		utils.InfoLogger.Printf("Session context %s no longer valid, signalling redirect: %v", sv.contextID, err)
		state = SessionInvalid
	}

	sv.mu.Lock()
	sv.state = state
	sv.mu.Unlock()

	if state == SessionInvalid && sv.onInvalid != nil {
		sv.onInvalid()
	}
	return state
}

// State returns the result of the most recent validation cycle.
func (sv *SessionValidator) State() SessionState {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	return sv.state
}

// Start validates immediately and then on every interval until Stop.
func (sv *SessionValidator) Start(ctx context.Context) {
	sv.Validate(ctx)
	go func() {
		ticker := time.NewTicker(sv.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sv.Validate(ctx)
			case <-sv.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts periodic validation.
func (sv *SessionValidator) Stop() {
	sv.stopOnce.Do(func() {
		close(sv.stopChan)
	})
}
