// Package notifier delivers alert messages to outward channels.
package notifier

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Severity classifies an alert for channel-specific rendering.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notifier is the single outward alert channel abstraction. Implementations
// must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, title, body string, severity Severity) error
	Name() string
}

// SendWithRetry sends a message with exponential backoff retry.
func SendWithRetry(ctx context.Context, n Notifier, title, body string, severity Severity, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := n.Send(ctx, title, body, severity); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] %s send failed (attempt %d/%d): %v, retrying in %v", n.Name(), i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// Multi fans an alert out to several channels; every channel is attempted
// and the first failure is reported.
type Multi struct {
	Notifiers []Notifier
}

// NewMulti creates a fan-out notifier.
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{Notifiers: notifiers}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Send(ctx context.Context, title, body string, severity Severity) error {
	var firstErr error
	for _, n := range m.Notifiers {
		if err := n.Send(ctx, title, body, severity); err != nil {
			log.Printf("[ERROR] notifier %s failed: %v", n.Name(), err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", n.Name(), err)
			}
		}
	}
	return firstErr
}
