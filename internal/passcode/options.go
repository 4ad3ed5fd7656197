package passcode

import (
	"time"

	"github.com/okian/bizboard/pkg/logger"
)

// Default settings.
const (
	defaultLength      = 6
	defaultTTL         = 10 * time.Minute
	defaultMaxAttempts = 5
	defaultFrom        = "noreply@bizboard.local"
	defaultTemplateID  = "passcode"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLength sets the number of characters in a passcode.
func WithLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.length = n
		}
	}
}

// WithTTL sets how long a passcode stays valid.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMaxAttempts sets how many wrong guesses revoke a passcode.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithSender sets the From address and template id of the passcode mail.
func WithSender(from, templateID string) Option {
	return func(s *Service) {
		if from != "" {
			s.from = from
		}
		if templateID != "" {
			s.templateID = templateID
		}
	}
}

// WithMailer replaces the mailer.
func WithMailer(m Mailer) Option {
	return func(s *Service) {
		if m != nil {
			s.mailer = m
		}
	}
}

// WithTokenMinter replaces the token minter.
func WithTokenMinter(m TokenMinter) Option {
	return func(s *Service) {
		if m != nil {
			s.minter = m
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
