// Package notify delivers user-facing notices (the toasts of the annotator
// UI) to whoever is watching a session.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier is fire-and-forget: implementations must not block the caller on
// slow consumers and have no failure to report.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n Notice) {
	fields := []zap.Field{zap.String("session_id", n.SessionID), zap.String("level", string(n.Level))}
	if n.Level == LevelError {
		l.log.Warn(n.Message, fields...)
		return
	}
	l.log.Info(n.Message, fields...)
}

// Multi fans a notice out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, x := range m {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}
