package reactive

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Mode selects how contract violations and invariant breaches are handled.
//
// In Development mode they panic with a descriptive CellError. In Release
// mode the offending operation is skipped and an error is logged.
type Mode uint8

const (
	Release Mode = iota
	Development
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Development {
		return "development"
	}
	return "release"
}

// ParseMode parses "development"/"dev" and "release"/"production"/"prod".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return Development, nil
	case "release", "production", "prod", "":
		return Release, nil
	default:
		return Release, fmt.Errorf("reactive: unknown mode %q", s)
	}
}

// ModeFromEnv reads CELLUI_MODE. Unset or unknown values select Release.
func ModeFromEnv() Mode {
	m, err := ParseMode(os.Getenv("CELLUI_MODE"))
	if err != nil {
		return Release
	}
	return m
}

// DefaultInboxSize is the capacity of the cross-goroutine request channel.
const DefaultInboxSize = 64

// maxSettlePasses bounds the delivery/flush loop at the end of a turn.
const maxSettlePasses = 256

type options struct {
	mode      Mode
	logger    *slog.Logger
	observer  Observer
	onPanic   func(message string)
	inboxSize int
}

func defaultOptions() options {
	return options{
		mode:      ModeFromEnv(),
		logger:    slog.Default(),
		observer:  NopObserver{},
		inboxSize: DefaultInboxSize,
	}
}

// Option configures a Runtime.
type Option func(*options)

// WithMode sets the violation policy. The default comes from CELLUI_MODE.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver installs an observer for turns, flushes and messages.
// Use Observers to combine several.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithOnPanic sets the callback that receives the user-facing message after
// a panic froze the runtime. It runs on the goroutine that panicked.
func WithOnPanic(fn func(message string)) Option {
	return func(o *options) {
		o.onPanic = fn
	}
}

// WithInboxSize sets the capacity of the channel used by Dispatch and
// Deferred.Update.
func WithInboxSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.inboxSize = n
		}
	}
}
