package notifier

import (
	"context"
	"log"
)

// LogNotifier writes alerts to the process log. It is the fallback channel
// when no outward channel is configured, and handy in tests.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Send(ctx context.Context, title, body string, severity Severity) error {
	log.Printf("[INFO] notify (%s): %s\n%s", severity, title, body)
	return nil
}
