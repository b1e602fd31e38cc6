// Package terminal defines the narrow host-terminal session surface the
// workflow engine drives, and the keyboard-lock gate used to coordinate
// with the host's input processing.
package terminal

import (
	"image"
	"strings"
)

// Session is the narrow interface to one host terminal session. The wire
// protocol and screen buffer behind it are external to this engine.
type Session interface {
	Connect() error
	Disconnect() error

	// SendKeys sends literal text or a bracketed key mnemonic like "[enter]".
	SendKeys(mnemonic string) error

	// ScreenText returns the current screen contents as text.
	ScreenText() (string, error)

	// KeyboardLocked reports whether the host is still processing input.
	KeyboardLocked() bool
}

// ScreenImager is implemented by sessions with graphics support. Capture
// steps fall back to text artifacts when the session does not implement it.
type ScreenImager interface {
	RenderScreen() (image.Image, error)
}

// Factory creates one session and its keyboard gate. The batch executor
// calls it once per workflow instance so no session state is shared
// across rows.
type Factory func(host, user, password string) (Session, *KeyboardGate, error)

// MapKey translates a logical key name ("enter", "F3") to the session's
// bracketed mnemonic form ("[enter]", "[f3]").
func MapKey(key string) string {
	return "[" + strings.ToLower(strings.TrimSpace(key)) + "]"
}

// Common key mnemonics used by the runner.
const (
	KeyHome = "[home]"
	KeyTab  = "[tab]"
)
