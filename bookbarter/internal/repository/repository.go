package repository

import (
	"context"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	ListAvailableBooks(ctx context.Context) ([]model.Book, error)
	ListBooksByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (model.Book, error)
	GetBookTitles(ctx context.Context, ids []uuid.UUID) ([]string, error)
	CreateBook(ctx context.Context, id uuid.UUID, in model.BookInput) (model.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, in model.BookInput) (model.Book, error)
	SetBookCover(ctx context.Context, id uuid.UUID, url string) (model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error

	CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	GetNotification(ctx context.Context, id uuid.UUID) (model.Notification, error)
	ListNotifications(ctx context.Context, recipientID uuid.UUID) ([]model.Notification, error)
	SetNotificationStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus) error
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	DeleteNotification(ctx context.Context, id uuid.UUID) error

	InsertEvent(ctx context.Context, event kafka.Event) error
	UserStats(ctx context.Context, userID uuid.UUID) (model.UserStats, error)
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	usersTableName         = `users`
	booksTableName         = `books`
	notificationsTableName = `notifications`
	eventsTableName        = `events`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
