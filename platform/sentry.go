package platform

import (
	"time"

	"github.com/getsentry/sentry-go"
)

var sentryEnabled bool

// InitSentry is a no-op when dsn is empty.
func InitSentry(dsn string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
		return err
	}
	sentryEnabled = true
	return nil
}

func SentryEnabled() bool {
	return sentryEnabled
}

// ReportError forwards err to sentry when it is configured.
func ReportError(err error) {
	if !sentryEnabled || err == nil {
		return
	}
	sentry.CaptureException(err)
}

func FlushSentry() {
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}
