package testutil

import (
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/hostflow-stack/hostflow/internal/terminal"
)

// MockSession simulates a host terminal session for testing.
// It records every keystroke, serves scriptable screen content, and
// drives its keyboard gate the way a real host would.
type MockSession struct {
	mu sync.RWMutex

	gate *terminal.KeyboardGate

	// Behavior configuration
	FailConnect    bool // If true, Connect() will fail
	FailDisconnect bool // If true, Disconnect() will fail
	FailSendKeys   bool // If true, SendKeys() will fail
	FailScreenRead bool // If true, ScreenText() will fail
	CustomError    error

	// LockOnSend makes every SendKeys lock the gate, with an automatic
	// unlock after UnlockAfter (immediately when zero). This mimics the
	// host processing each keystroke.
	LockOnSend  bool
	UnlockAfter time.Duration

	screen    string
	screens   map[string]string // keys sent -> resulting screen
	sent      []string
	connected bool
}

// NewMockSession creates a mock session whose gate starts unlocked.
func NewMockSession() *MockSession {
	return &MockSession{
		gate:    terminal.NewKeyboardGate(false),
		screens: make(map[string]string),
	}
}

// Gate returns the session's keyboard gate.
func (m *MockSession) Gate() *terminal.KeyboardGate {
	return m.gate
}

// Connect simulates opening the host connection.
func (m *MockSession) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailConnect {
		return m.errOr("mock connect failure")
	}
	m.connected = true
	return nil
}

// Disconnect simulates closing the host connection.
func (m *MockSession) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDisconnect {
		return m.errOr("mock disconnect failure")
	}
	m.connected = false
	return nil
}

// SendKeys records the keystroke and switches screens when a script
// entry matches.
func (m *MockSession) SendKeys(mnemonic string) error {
	m.mu.Lock()

	if m.FailSendKeys {
		m.mu.Unlock()
		return m.errOr("mock send-keys failure")
	}

	m.sent = append(m.sent, mnemonic)
	if next, ok := m.screens[mnemonic]; ok {
		m.screen = next
	}
	lock := m.LockOnSend
	unlockAfter := m.UnlockAfter
	m.mu.Unlock()

	if lock {
		m.gate.Lock()
		if unlockAfter <= 0 {
			m.gate.Unlock()
		} else {
			time.AfterFunc(unlockAfter, m.gate.Unlock)
		}
	}
	return nil
}

// ScreenText returns the current screen content.
func (m *MockSession) ScreenText() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailScreenRead {
		return "", m.errOr("mock screen read failure")
	}
	return m.screen, nil
}

// KeyboardLocked reports the gate state.
func (m *MockSession) KeyboardLocked() bool {
	return m.gate.Locked()
}

// SetScreen replaces the current screen content.
func (m *MockSession) SetScreen(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screen = text
}

// ScreenAfter scripts the screen content shown after a given keystroke.
func (m *MockSession) ScreenAfter(keys, screen string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screens[keys] = screen
}

// Sent returns a copy of all keystrokes sent so far.
func (m *MockSession) Sent() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, len(m.sent))
	copy(result, m.sent)
	return result
}

// Connected reports whether Connect succeeded and Disconnect has not
// been called since.
func (m *MockSession) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SentContains reports whether a keystroke was sent.
func (m *MockSession) SentContains(mnemonic string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.sent {
		if s == mnemonic {
			return true
		}
	}
	return false
}

// SentJoined returns all keystrokes joined with "|", convenient for
// order assertions.
func (m *MockSession) SentJoined() string {
	return strings.Join(m.Sent(), "|")
}

func (m *MockSession) errOr(msg string) error {
	if m.CustomError != nil {
		return m.CustomError
	}
	return fmt.Errorf("%s", msg)
}

// MockImageSession is a MockSession that also renders screens as
// images, exercising the PNG capture path.
type MockImageSession struct {
	*MockSession

	FailRender bool
}

// NewMockImageSession creates a mock session with graphics support.
func NewMockImageSession() *MockImageSession {
	return &MockImageSession{MockSession: NewMockSession()}
}

// RenderScreen returns a small fixed-size image.
func (m *MockImageSession) RenderScreen() (image.Image, error) {
	if m.FailRender {
		return nil, m.errOr("mock render failure")
	}
	return image.NewRGBA(image.Rect(0, 0, 80, 24)), nil
}

// MockFactory builds one MockSession per call and remembers every
// session it produced, so batch tests can inspect per-row state.
type MockFactory struct {
	mu       sync.Mutex
	sessions []*MockSession

	// Configure, when set, runs on each new session before it is
	// returned. Use it to script screens or inject failures.
	Configure func(s *MockSession, host, user, password string)
}

// NewMockFactory creates an empty factory.
func NewMockFactory() *MockFactory {
	return &MockFactory{}
}

// New is a terminal.Factory.
func (f *MockFactory) New(host, user, password string) (terminal.Session, *terminal.KeyboardGate, error) {
	s := NewMockSession()
	if f.Configure != nil {
		f.Configure(s, host, user, password)
	}

	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()

	return s, s.Gate(), nil
}

// Sessions returns every session the factory has produced.
func (f *MockFactory) Sessions() []*MockSession {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]*MockSession, len(f.sessions))
	copy(result, f.sessions)
	return result
}
