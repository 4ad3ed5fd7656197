package passcode

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/logger"
)

// Message is a templated e-mail.
type Message struct {
	To         string
	From       string
	TemplateID string
	Data       map[string]string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger logger.Logger
}

// NewLogMailer creates a LogMailer. A nil logger uses the global one.
func NewLogMailer(l logger.Logger) *LogMailer {
	if l == nil {
		l = logger.Get().Named("mailer")
	}
	return &LogMailer{logger: l}
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "passcode mail",
		logger.String("to", msg.To),
		logger.String("from", msg.From),
		logger.String("template", msg.TemplateID),
		logger.Any("data", msg.Data),
	)
	return nil
}

// TokenMinter exchanges a verified e-mail for a session token.
type TokenMinter interface {
	Mint(ctx context.Context, email string) (string, error)
}

// StoreMinter issues random session tokens recorded in the Sessions collection.
type StoreMinter struct {
	store repository.Store
	now   func() time.Time
}

// NewStoreMinter creates a StoreMinter.
func NewStoreMinter(store repository.Store) *StoreMinter {
	return &StoreMinter{store: store, now: time.Now}
}

// Mint implements TokenMinter.
func (m *StoreMinter) Mint(ctx context.Context, email string) (string, error) {
	token := uuid.NewString()
	doc := model.Document{
		"email":    email,
		"issuedAt": m.now().UTC().Format(time.RFC3339Nano),
	}
	if err := m.store.Set(ctx, model.CollectionSessions, token, doc); err != nil {
		return "", err
	}
	return token, nil
}
