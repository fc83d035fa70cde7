package handler

import (
	"context"
	"io"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/service"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/google/uuid"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type UserService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error)
}

type BookService interface {
	ListAvailable(ctx context.Context) ([]model.Book, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error)
	CreateBook(ctx context.Context, callerID uuid.UUID, in model.BookInput) (model.Book, error)
	UpdateBook(ctx context.Context, callerID, bookID uuid.UUID, in model.BookInput) (model.Book, error)
	DeleteBook(ctx context.Context, callerID, bookID uuid.UUID) error
	UploadCover(ctx context.Context, callerID, bookID uuid.UUID, cover model.Cover, r io.Reader) (model.Book, error)
}

type NotificationService interface {
	Contact(ctx context.Context, callerID uuid.UUID, req model.ContactRequest) (model.Notification, error)
	BuyRequest(ctx context.Context, callerID uuid.UUID, req model.BuyRequest) (model.Notification, error)
	ExchangeRequest(ctx context.Context, callerID uuid.UUID, req model.ExchangeRequest) (model.Notification, error)
	ListNotifications(ctx context.Context, callerID, userID uuid.UUID) ([]model.Notification, error)
	MarkRead(ctx context.Context, callerID, id uuid.UUID) error
	SetStatus(ctx context.Context, callerID, id uuid.UUID, status model.NotificationStatus) error
	UnreadCount(ctx context.Context, callerID, userID uuid.UUID) (int, error)
	DeleteNotification(ctx context.Context, callerID, id uuid.UUID) error
}

type StatsService interface {
	Track(ctx context.Context, event kafka.Event) error
	UserStats(ctx context.Context, userID uuid.UUID) (model.UserStats, error)
}

type Service interface {
	UserService
	BookService
	NotificationService
	StatsService
}

var _ Service = (*service.Service)(nil)
