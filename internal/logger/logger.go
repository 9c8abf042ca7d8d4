// Package logger provides the configured zerolog logger for the service.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a service-tagged structured logger writing to stdout.
func New(serviceName string) zerolog.Logger {
	return zerolog.New(os.Stdout).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
