// Package passcode issues one-time passcodes to approved users and exchanges them for session tokens.
package passcode

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/logger"
	"github.com/okian/bizboard/pkg/metrics"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// timestampLayout renders the issue time shown in the mail.
const timestampLayout = "Mon Jan 02 2006 at 15:04:05 MST"

// Verification document fields.
const (
	fieldPasscode  = "passcode"
	fieldExpiresAt = "expiresAt"
	fieldAttempts  = "attempts"
)

// Service issues and verifies passcodes.
type Service struct {
	store       repository.Store
	mailer      Mailer
	minter      TokenMinter
	length      int
	ttl         time.Duration
	maxAttempts int
	from        string
	templateID  string
	now         func() time.Time
	logger      logger.Logger

	// mu serializes read-modify-write of verification documents.
	mu sync.Mutex
}

// New creates a Service backed by store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		length:      defaultLength,
		ttl:         defaultTTL,
		maxAttempts: defaultMaxAttempts,
		from:        defaultFrom,
		templateID:  defaultTemplateID,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("passcode")
	}
	if s.mailer == nil {
		s.mailer = NewLogMailer(s.logger)
	}
	if s.minter == nil {
		s.minter = NewStoreMinter(store)
	}
	return s
}

// Issue sends a fresh passcode to an approved e-mail, replacing any earlier one.
func (s *Service) Issue(ctx context.Context, email string) error {
	email, err := normalize(email)
	if err != nil {
		metrics.RecordPasscodeIssued("invalid")
		return err
	}

	approved, err := s.approved(ctx, email)
	if err != nil {
		metrics.RecordPasscodeIssued("error")
		return err
	}
	if !approved {
		metrics.RecordPasscodeIssued("not_approved")
		s.logger.Warn(ctx, "passcode requested by unapproved user", logger.String("email", email))
		return fmt.Errorf("%w: %s", ErrNotApproved, email)
	}

	code, err := generate(s.length)
	if err != nil {
		metrics.RecordPasscodeIssued("error")
		return err
	}
	now := s.now().UTC()

	s.mu.Lock()
	err = s.store.Set(ctx, model.CollectionVerifications, email, model.Document{
		fieldPasscode:  code,
		fieldExpiresAt: now.Add(s.ttl).Format(time.RFC3339Nano),
		fieldAttempts:  0,
	})
	s.mu.Unlock()
	if err != nil {
		metrics.RecordPasscodeIssued("error")
		return err
	}

	err = s.mailer.Send(ctx, Message{
		To:         email,
		From:       s.from,
		TemplateID: s.templateID,
		Data: map[string]string{
			"timestamp": now.Format(timestampLayout),
			"passcode":  code,
		},
	})
	if err != nil {
		metrics.RecordPasscodeIssued("error")
		return fmt.Errorf("%w: %w", ErrSend, err)
	}

	metrics.RecordPasscodeIssued("sent")
	s.logger.Info(ctx, "passcode issued", logger.String("email", email))
	return nil
}

// Verify checks code against the passcode issued to email. A wrong code returns an empty
// token and a nil error; the passcode is revoked once the attempt budget is spent.
func (s *Service) Verify(ctx context.Context, email, code string) (string, error) {
	email, err := normalize(email)
	if err != nil {
		metrics.RecordPasscodeVerified("invalid")
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok, err := s.store.Get(ctx, model.CollectionVerifications, email)
	if err != nil {
		metrics.RecordPasscodeVerified("error")
		return "", err
	}
	if !ok {
		metrics.RecordPasscodeVerified("missing")
		return "", fmt.Errorf("%w: %s", ErrNoPasscode, email)
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, fmt.Sprint(doc[fieldExpiresAt]))
	if err != nil || !s.now().Before(expiresAt) {
		_ = s.store.Delete(ctx, model.CollectionVerifications, email)
		metrics.RecordPasscodeVerified("expired")
		return "", fmt.Errorf("%w: %s", ErrExpired, email)
	}

	stored, _ := doc[fieldPasscode].(string)
	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		return "", s.miss(ctx, email, doc)
	}

	token, err := s.minter.Mint(ctx, email)
	if err != nil {
		metrics.RecordPasscodeVerified("error")
		return "", err
	}
	if err := s.store.Delete(ctx, model.CollectionVerifications, email); err != nil {
		s.logger.Warn(ctx, "verification not deleted", logger.String("email", email), logger.Error(err))
	}
	metrics.RecordPasscodeVerified("ok")
	return token, nil
}

func (s *Service) miss(ctx context.Context, email string, doc model.Document) error {
	attempts := 1
	if n, ok := doc[fieldAttempts].(float64); ok {
		attempts += int(n)
	}
	if attempts >= s.maxAttempts {
		metrics.RecordPasscodeVerified("revoked")
		s.logger.Warn(ctx, "passcode revoked after too many attempts", logger.String("email", email))
		return s.store.Delete(ctx, model.CollectionVerifications, email)
	}
	doc[fieldAttempts] = attempts
	metrics.RecordPasscodeVerified("mismatch")
	return s.store.Set(ctx, model.CollectionVerifications, email, doc)
}

// approved reports whether email is listed in Constants/users.userEmails.
func (s *Service) approved(ctx context.Context, email string) (bool, error) {
	doc, ok, err := s.store.Get(ctx, model.CollectionConstants, model.ConstantsUsers)
	if err != nil || !ok {
		return false, err
	}
	list, _ := doc[model.FieldUserEmails].([]any)
	for _, v := range list {
		if e, ok := v.(string); ok && strings.EqualFold(strings.TrimSpace(e), email) {
			return true, nil
		}
	}
	return false, nil
}

func normalize(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.IndexByte(email, '@')
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " /") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}

func generate(n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate passcode: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
