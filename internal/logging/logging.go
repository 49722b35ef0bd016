// Package logging builds the process-wide *zap.Logger from the
// configured log_level, constructed once at startup and passed down to
// every component by constructor injection (spec.md §10 ambient stack).
package logging

import "go.uber.org/zap"

// New builds a logger for the given level string ("debug" or anything
// else, defaulting to production settings for "info" and above).
func New(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
