package service

import (
	"context"
	"io"
	"time"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/mailer"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/repository"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, time.Time, error)
}

type UnreadCache interface {
	UnreadCount(ctx context.Context, userID uuid.UUID) (count int, gen int64, ok bool)
	SetUnreadCount(ctx context.Context, userID uuid.UUID, gen int64, count int)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type EventPublisher interface {
	Publish(e kafka.Event) error
}

type CoverStorage interface {
	PutCover(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type Mailer interface {
	SendNotification(ctx context.Context, mail mailer.NotificationMail) error
}

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	tokens TokenIssuer

	cache     UnreadCache
	publisher EventPublisher
	storage   CoverStorage
	mailer    Mailer
	now       func() time.Time
}

type Option func(s *Service)

func WithUnreadCache(c UnreadCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithCoverStorage(st CoverStorage) Option {
	return func(s *Service) { s.storage = st }
}

func WithMailer(m Mailer) Option {
	return func(s *Service) { s.mailer = m }
}

func NewService(repo repository.Repository, tokens TokenIssuer, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:    log.Named("service"),
		repo:   repo,
		tokens: tokens,
		cache:  noopCache{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) publish(userID uuid.UUID, eventType kafka.EventType, bookID, notificationID *uuid.UUID) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(kafka.Event{
		Timestamp:      s.now().UTC(),
		UserID:         userID,
		EventType:      eventType,
		BookID:         bookID,
		NotificationID: notificationID,
	})
	if err != nil {
		s.log.Warn("publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

type noopCache struct{}

func (noopCache) UnreadCount(context.Context, uuid.UUID) (int, int64, bool) { return 0, 0, false }
func (noopCache) SetUnreadCount(context.Context, uuid.UUID, int64, int)     {}
func (noopCache) Invalidate(context.Context, uuid.UUID)                     {}
