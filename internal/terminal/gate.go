package terminal

import (
	"context"
	"sync"
	"time"

	"github.com/hostflow-stack/hostflow/internal/errors"
)

// KeyboardGate models "the host keyboard is locked until it says otherwise".
//
// It is a level-triggered gate, not a mutex: an Unlock releases every
// waiter currently blocked in Acquire, because the host unlocking its
// keyboard makes input possible for all parties at once. Lock and Unlock
// are driven by external session events; Acquire only observes state and
// never changes it.
type KeyboardGate struct {
	mu     sync.Mutex
	locked bool

	// unlockCh is open while locked and closed on the transition to
	// unlocked; lockCh is the mirror image. Closing a channel is the
	// broadcast that wakes every waiter.
	unlockCh chan struct{}
	lockCh   chan struct{}
}

// NewKeyboardGate creates a gate in the given initial state. Sessions
// typically start locked until the host's first unlock.
func NewKeyboardGate(locked bool) *KeyboardGate {
	g := &KeyboardGate{
		locked:   locked,
		unlockCh: make(chan struct{}),
		lockCh:   make(chan struct{}),
	}
	if locked {
		close(g.lockCh)
	} else {
		close(g.unlockCh)
	}
	return g
}

// Locked reports the current gate state.
func (g *KeyboardGate) Locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked
}

// Lock marks the keyboard as locked.
func (g *KeyboardGate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.locked {
		return
	}
	g.locked = true
	g.unlockCh = make(chan struct{})
	close(g.lockCh)
}

// Unlock marks the keyboard as unlocked and wakes all current waiters.
func (g *KeyboardGate) Unlock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.locked {
		return
	}
	g.locked = false
	g.lockCh = make(chan struct{})
	close(g.unlockCh)
}

// Release is equivalent to Unlock. Calling it with no Acquire outstanding
// is accepted without error.
func (g *KeyboardGate) Release() {
	g.Unlock()
}

// Acquire blocks while the gate is locked, up to timeout. It returns nil
// as soon as the gate is observed unlocked, a Timeout error carrying the
// elapsed duration if the deadline passes first, or ctx.Err() if the
// caller is cancelled. State is re-checked after every wake.
func (g *KeyboardGate) Acquire(ctx context.Context, timeout time.Duration) error {
	start := time.Now()
	deadline := start.Add(timeout)

	for {
		g.mu.Lock()
		if !g.locked {
			g.mu.Unlock()
			return nil
		}
		unlocked := g.unlockCh
		g.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errors.Timeout("Keyboard locked", time.Since(start))
		}

		timer := time.NewTimer(remaining)
		select {
		case <-unlocked:
			timer.Stop()
			// Loop to re-check; the host may have locked again already.
		case <-timer.C:
			return errors.Timeout("Keyboard locked", time.Since(start))
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// AwaitLockCycle waits for a submit's full lock/unlock cycle: the host
// locking the keyboard to process input, then unlocking it once the
// screen has refreshed. If no lock appears within grace the submission is
// treated as having completed instantly.
func (g *KeyboardGate) AwaitLockCycle(ctx context.Context, grace, timeout time.Duration) error {
	g.mu.Lock()
	lockedNow := g.locked
	locked := g.lockCh
	g.mu.Unlock()

	if !lockedNow {
		timer := time.NewTimer(grace)
		select {
		case <-locked:
			timer.Stop()
		case <-timer.C:
			return nil // Completed instantly or no lock needed
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return g.Acquire(ctx, timeout)
}
