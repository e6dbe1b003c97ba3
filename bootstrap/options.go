package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/whisper-srt/logger"
)

// Option adjusts how NewApp builds the App. It does not depend on the
// config type.
type Option func(*settings)

type settings struct {
	log     *logger.Logger
	grace   time.Duration
	summary io.Writer
	quiet   bool
}

func newSettings(opts []Option) settings {
	s := settings{grace: defaultGracefulTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger replaces the logger NewApp would build from the logging config.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithGracefulTimeout bounds shutdown, hooks and component stops together.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) { s.grace = d }
}

// WithSummaryWriter prints the startup summary to w instead of stdout.
func WithSummaryWriter(w io.Writer) Option {
	return func(s *settings) { s.summary = w }
}

func WithoutSummary() Option {
	return func(s *settings) { s.quiet = true }
}
