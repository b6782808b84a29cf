// Package reporting forwards pipeline failures to Sentry.
package reporting

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/config"
)

// Init configures the global Sentry client. It is a no-op when Sentry is
// disabled, in which case captures are dropped by the SDK.
func Init(cfg *config.SentryConfig, release string) error {
	if !cfg.Enabled {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     release,
	})
}

// Flush buffered events before the program terminates.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// Sentry captures errors on a hub, tagging each event.
type Sentry struct {
	hub *sentry.Hub
}

func NewSentry(hub *sentry.Hub) *Sentry {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &Sentry{hub: hub}
}

func (s *Sentry) Capture(err error, tags map[string]string) {
	hub := s.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}
