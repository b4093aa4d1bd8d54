// Package notify delivers user-facing notifications. Page handlers emit
// exactly one notification per failed or completed action.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Sink receives notifications. Calls are fire-and-forget.
type Sink interface {
	Success(msg string)
	Error(msg string)
	Warning(msg string)
	Info(msg string)
}

// Notification is one queued message.
type Notification struct {
	ID      uint64
	Level   Level
	Message string
	At      time.Time
}

// Center is a Sink that keeps the most recent notifications for the TUI to
// render as toasts.
type Center struct {
	mu      sync.Mutex
	items   []Notification
	nextID  uint64
	limit   int
	ttl     time.Duration
	now     func() time.Time
	changed chan struct{}
}

// NewCenter keeps at most limit notifications, each visible for ttl.
func NewCenter(limit int, ttl time.Duration) *Center {
	if limit <= 0 {
		limit = 5
	}
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return &Center{limit: limit, ttl: ttl, now: time.Now, changed: make(chan struct{}, 1)}
}

func (c *Center) Success(msg string) { c.push(LevelSuccess, msg) }
func (c *Center) Error(msg string)   { c.push(LevelError, msg) }
func (c *Center) Warning(msg string) { c.push(LevelWarning, msg) }
func (c *Center) Info(msg string)    { c.push(LevelInfo, msg) }

func (c *Center) push(level Level, msg string) {
	if msg == "" {
		return
	}
	c.mu.Lock()
	c.nextID++
	c.items = append(c.items, Notification{ID: c.nextID, Level: level, Message: msg, At: c.now()})
	if len(c.items) > c.limit {
		c.items = c.items[len(c.items)-c.limit:]
	}
	c.mu.Unlock()

	select {
	case c.changed <- struct{}{}:
	default:
	}
}

// Changed signals after a notification is pushed. Signals coalesce.
func (c *Center) Changed() <-chan struct{} {
	return c.changed
}

// Active returns unexpired notifications, oldest first, and prunes the rest.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.ttl)
	kept := c.items[:0]
	for _, n := range c.items {
		if n.At.After(cutoff) {
			kept = append(kept, n)
		}
	}
	c.items = kept
	out := make([]Notification, len(kept))
	copy(out, kept)
	return out
}

// Dismiss removes a notification.
func (c *Center) Dismiss(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Log is a Sink that writes notifications to a zap logger.
type Log struct {
	logger *zap.Logger
}

// NewLog wraps logger.
func NewLog(logger *zap.Logger) Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Log{logger: logger.Named("notify")}
}

func (l Log) Success(msg string) { l.logger.Info(msg, zap.String("level", LevelSuccess.String())) }
func (l Log) Error(msg string)   { l.logger.Error(msg) }
func (l Log) Warning(msg string) { l.logger.Warn(msg) }
func (l Log) Info(msg string)    { l.logger.Info(msg) }

// Writer is a Sink that prints one line per notification, for the CLI.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter prints notifications to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Success(msg string) { w.print("✓", msg) }
func (w *Writer) Error(msg string)   { w.print("✗", msg) }
func (w *Writer) Warning(msg string) { w.print("!", msg) }
func (w *Writer) Info(msg string)    { w.print("•", msg) }

func (w *Writer) print(icon, msg string) {
	if msg == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.w, "%s %s\n", icon, msg)
}

// Multi fans every notification out to each sink.
type Multi []Sink

func (m Multi) Success(msg string) {
	for _, s := range m {
		s.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, s := range m {
		s.Error(msg)
	}
}

func (m Multi) Warning(msg string) {
	for _, s := range m {
		s.Warning(msg)
	}
}

func (m Multi) Info(msg string) {
	for _, s := range m {
		s.Info(msg)
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}
func (Discard) Warning(string) {}
func (Discard) Info(string)    {}
