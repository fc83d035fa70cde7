package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/errs"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/repository"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/google/uuid"
)

// memRepo is an in-memory repository.Repository for scenario tests.
type memRepo struct {
	mu            sync.Mutex
	clock         time.Time
	users         map[uuid.UUID]model.User
	books         map[uuid.UUID]model.Book
	notifications map[uuid.UUID]model.Notification
	events        []kafka.Event
}

var _ repository.Repository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:         make(map[uuid.UUID]model.User),
		books:         make(map[uuid.UUID]model.Book),
		notifications: make(map[uuid.UUID]model.Notification),
	}
}

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memRepo) ref(id uuid.UUID) model.UserRef {
	u := r.users[id]
	return model.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (r *memRepo) CreateUser(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return model.User{}, errs.ErrDuplicate
		}
	}
	user.CreatedAt = r.tick()
	r.users[user.ID] = user
	return user, nil
}

func (r *memRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, errs.ErrNotFound
}

func (r *memRepo) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	return u, nil
}

func (r *memRepo) listBooks(keep func(model.Book) bool) []model.Book {
	books := make([]model.Book, 0)
	for _, b := range r.books {
		if keep(b) {
			b.Owner = r.ref(b.Owner.ID)
			books = append(books, b)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].CreatedAt.After(books[j].CreatedAt) })
	return books
}

func (r *memRepo) ListAvailableBooks(context.Context) ([]model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listBooks(func(b model.Book) bool { return b.Availability != model.AvailabilitySold }), nil
}

func (r *memRepo) ListBooksByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listBooks(func(b model.Book) bool { return b.Owner.ID == ownerID }), nil
}

func (r *memRepo) GetBook(_ context.Context, id uuid.UUID) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	b.Owner = r.ref(b.Owner.ID)
	return b, nil
}

func (r *memRepo) GetBookTitles(_ context.Context, ids []uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.books[id]; ok {
			titles = append(titles, b.Title)
		}
	}
	return titles, nil
}

func bookFromInput(b model.Book, in model.BookInput) model.Book {
	b.Title = in.Title
	b.Author = in.Author
	b.Description = in.Description
	b.Price = in.Price
	b.Availability = in.Availability
	b.Condition = in.Condition
	b.ExchangePreferences = in.ExchangePreferences
	return b
}

func (r *memRepo) CreateBook(ctx context.Context, id uuid.UUID, in model.BookInput) (model.Book, error) {
	r.mu.Lock()
	r.books[id] = bookFromInput(model.Book{ID: id, Owner: model.UserRef{ID: in.Owner}, CreatedAt: r.tick()}, in)
	r.mu.Unlock()
	return r.GetBook(ctx, id)
}

func (r *memRepo) UpdateBook(ctx context.Context, id uuid.UUID, in model.BookInput) (model.Book, error) {
	r.mu.Lock()
	b, ok := r.books[id]
	if !ok {
		r.mu.Unlock()
		return model.Book{}, errs.ErrNotFound
	}
	r.books[id] = bookFromInput(b, in)
	r.mu.Unlock()
	return r.GetBook(ctx, id)
}

func (r *memRepo) SetBookCover(ctx context.Context, id uuid.UUID, url string) (model.Book, error) {
	r.mu.Lock()
	b, ok := r.books[id]
	if !ok {
		r.mu.Unlock()
		return model.Book{}, errs.ErrNotFound
	}
	b.CoverURL = url
	r.books[id] = b
	r.mu.Unlock()
	return r.GetBook(ctx, id)
}

func (r *memRepo) DeleteBook(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *memRepo) joinNotification(n model.Notification) model.Notification {
	n.Sender = r.ref(n.Sender.ID)
	if b, ok := r.books[n.Book.ID]; ok {
		n.Book.Title, n.Book.Author = b.Title, b.Author
	}
	return n
}

func (r *memRepo) CreateNotification(_ context.Context, n model.Notification) (model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.CreatedAt = r.tick()
	r.notifications[n.ID] = n
	return r.joinNotification(n), nil
}

func (r *memRepo) GetNotification(_ context.Context, id uuid.UUID) (model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return model.Notification{}, errs.ErrNotFound
	}
	return r.joinNotification(n), nil
}

func (r *memRepo) ListNotifications(_ context.Context, recipientID uuid.UUID) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]model.Notification, 0)
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			list = append(list, r.joinNotification(n))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *memRepo) SetNotificationStatus(_ context.Context, id uuid.UUID, status model.NotificationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return errs.ErrNotFound
	}
	n.Status = status
	r.notifications[id] = n
	return nil
}

func (r *memRepo) CountUnread(_ context.Context, recipientID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && n.Status == model.StatusUnread {
			count++
		}
	}
	return count, nil
}

func (r *memRepo) DeleteNotification(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notifications[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.notifications, id)
	return nil
}

func (r *memRepo) InsertEvent(_ context.Context, event kafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memRepo) UserStats(_ context.Context, userID uuid.UUID) (model.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := model.UserStats{UserID: userID}
	for _, e := range r.events {
		if e.UserID != userID {
			continue
		}
		ts := e.Timestamp
		stats.LastActivity = &ts
		switch e.EventType {
		case kafka.EventBookCreated:
			stats.BooksListed++
		case kafka.EventBookDeleted:
			stats.BooksRemoved++
		case kafka.EventNotificationCreated:
			stats.OffersSent++
		case kafka.EventNotificationRead:
			stats.NotificationsRead++
		case kafka.EventNotificationDeleted:
			stats.NotificationsDeleted++
		}
	}
	return stats, nil
}
