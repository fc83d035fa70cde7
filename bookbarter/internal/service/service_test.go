package service_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/errs"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/mailer"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/repository"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/service"
	"github.com/Astemirdum/bookbarter/pkg/auth"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cacheKey struct {
	userID uuid.UUID
	gen    int64
}

type mapCache struct {
	mu          sync.Mutex
	gens        map[uuid.UUID]int64
	counts      map[cacheKey]int
	invalidated []uuid.UUID
}

func newMapCache() *mapCache {
	return &mapCache{gens: make(map[uuid.UUID]int64), counts: make(map[cacheKey]int)}
}

func (c *mapCache) UnreadCount(_ context.Context, userID uuid.UUID) (int, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[userID]
	count, ok := c.counts[cacheKey{userID, gen}]
	return count, gen, ok
}

func (c *mapCache) SetUnreadCount(_ context.Context, userID uuid.UUID, gen int64, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[cacheKey{userID, gen}] = count
}

func (c *mapCache) Invalidate(_ context.Context, userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	c.invalidated = append(c.invalidated, userID)
}

type recordPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *recordPublisher) Publish(e kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordPublisher) types() []kafka.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]kafka.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType)
	}
	return types
}

type recordMailer struct {
	sent []mailer.NotificationMail
}

func (m *recordMailer) SendNotification(_ context.Context, mail mailer.NotificationMail) error {
	m.sent = append(m.sent, mail)
	return nil
}

func newTestService(repo repository.Repository, opts ...service.Option) *service.Service {
	tokens := auth.NewTokens(auth.Config{Secret: "test-secret", TTL: time.Hour})
	return service.NewService(repo, tokens, zap.NewNop(), opts...)
}

func register(t *testing.T, svc *service.Service, name, email string) model.User {
	t.Helper()
	u, err := svc.Register(context.Background(), model.RegisterRequest{Name: name, Email: email, Password: "secret1"})
	require.NoError(t, err)
	return u
}

func price(v float64) *float64 { return &v }

func TestService_AvaBuysDune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := newMapCache()
	pub := &recordPublisher{}
	svc := newTestService(newMemRepo(), service.WithUnreadCache(cache), service.WithPublisher(pub))

	ava := register(t, svc, "Ava", "ava@x.com")
	ben := register(t, svc, "Ben", "ben@x.com")

	login, err := svc.Login(ctx, model.LoginRequest{Email: "ava@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, ava.ID, login.UserID)
	require.NotEmpty(t, login.Token)

	dune, err := svc.CreateBook(ctx, ava.ID, model.BookInput{
		Title:        "Dune",
		Author:       "Herbert",
		Owner:        ava.ID,
		Availability: model.AvailabilityForBoth,
		Price:        price(500),
	})
	require.NoError(t, err)
	require.Equal(t, 500.0, *dune.Price)
	require.Equal(t, "Ava", dune.Owner.Name)

	n, err := svc.BuyRequest(ctx, ben.ID, model.BuyRequest{
		OfferRequest: model.OfferRequest{BookID: dune.ID, OwnerID: ava.ID, Message: "interested"},
		OfferPrice:   400,
	})
	require.NoError(t, err)
	require.Equal(t, ava.ID, n.RecipientID)
	require.Equal(t, ben.ID, n.Sender.ID)
	require.Equal(t, model.NotificationBuyRequest, n.Type)
	require.Equal(t, "Buy offer (₹400): interested", n.Message)
	require.Equal(t, model.StatusUnread, n.Status)

	count, err := svc.UnreadCount(ctx, ava.ID, ava.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, svc.MarkRead(ctx, ava.ID, n.ID))
	count, err = svc.UnreadCount(ctx, ava.ID, ava.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	list, err := svc.ListNotifications(ctx, ava.ID, ava.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, model.StatusRead, list[0].Status)
	require.Equal(t, "Dune", list[0].Book.Title)

	require.Equal(t, []kafka.EventType{
		kafka.EventUserRegistered,
		kafka.EventUserRegistered,
		kafka.EventBookCreated,
		kafka.EventNotificationCreated,
		kafka.EventNotificationRead,
	}, pub.types())
}

func TestService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(newMemRepo())
	register(t, svc, "Ava", "ava@x.com")

	_, err := svc.Register(ctx, model.RegisterRequest{Name: "Ava", Email: "AVA@x.com", Password: "secret1"})
	require.ErrorIs(t, err, errs.ErrDuplicate)

	for i := 0; i < 3; i++ {
		_, err = svc.Login(ctx, model.LoginRequest{Email: "ava@x.com", Password: "wrong"})
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	}
	_, err = svc.Login(ctx, model.LoginRequest{Email: "nobody@x.com", Password: "secret1"})
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.Register(ctx, model.RegisterRequest{Name: " ", Email: "x@x.com", Password: "secret1"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_Books(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(newMemRepo())
	ava := register(t, svc, "Ava", "ava@x.com")
	ben := register(t, svc, "Ben", "ben@x.com")

	swap, err := svc.CreateBook(ctx, ava.ID, model.BookInput{
		Title: "Emma", Author: "Austen", Availability: model.AvailabilityForExchange, Price: price(120),
	})
	require.NoError(t, err)
	require.Nil(t, swap.Price)
	require.Equal(t, model.ConditionGood, swap.Condition)
	require.Equal(t, ava.ID, swap.Owner.ID)

	sold, err := svc.CreateBook(ctx, ava.ID, model.BookInput{
		Title: "Ulysses", Author: "Joyce", Availability: model.AvailabilitySold,
	})
	require.NoError(t, err)

	books, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, swap.ID, books[0].ID)

	owned, err := svc.ListByOwner(ctx, ava.ID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	require.Equal(t, sold.ID, owned[0].ID)

	_, err = svc.CreateBook(ctx, ben.ID, model.BookInput{Title: "Emma", Author: "Austen", Owner: ava.ID})
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.CreateBook(ctx, ava.ID, model.BookInput{Title: "Emma"})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.CreateBook(ctx, ava.ID, model.BookInput{Title: "Emma", Author: "Austen", Condition: "mint"})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.UpdateBook(ctx, ben.ID, swap.ID, model.BookInput{Title: "Mine", Author: "Ben"})
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.ErrorIs(t, svc.DeleteBook(ctx, ben.ID, swap.ID), errs.ErrForbidden)

	updated, err := svc.UpdateBook(ctx, ava.ID, swap.ID, model.BookInput{
		Title: "Emma", Author: "Jane Austen", Availability: model.AvailabilityForSale, Price: price(90),
	})
	require.NoError(t, err)
	require.Equal(t, "Jane Austen", updated.Author)
	require.Equal(t, 90.0, *updated.Price)

	require.NoError(t, svc.DeleteBook(ctx, ava.ID, swap.ID))
	require.ErrorIs(t, svc.DeleteBook(ctx, ava.ID, swap.ID), errs.ErrNotFound)
	_, err = svc.UpdateBook(ctx, ava.ID, swap.ID, model.BookInput{Title: "Emma", Author: "Austen"})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_UploadCoverDisabled(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemRepo())
	_, err := svc.UploadCover(context.Background(), uuid.New(), uuid.New(),
		model.Cover{ContentType: "image/png"}, strings.NewReader("png"))
	require.ErrorIs(t, err, errs.ErrStorageDisabled)
}

type memStorage struct {
	keys  []string
	types []string
}

func (s *memStorage) PutCover(_ context.Context, key string, _ io.Reader, _ int64, contentType string) (string, error) {
	s.keys = append(s.keys, key)
	s.types = append(s.types, contentType)
	return "http://covers.local/" + key, nil
}

func TestService_UploadCover(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := &memStorage{}
	svc := newTestService(newMemRepo(), service.WithCoverStorage(storage))
	ava := register(t, svc, "Ava", "ava@x.com")
	ben := register(t, svc, "Ben", "ben@x.com")
	dune, err := svc.CreateBook(ctx, ava.ID, model.BookInput{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)

	_, err = svc.UploadCover(ctx, ben.ID, dune.ID, model.Cover{ContentType: "image/png", Size: 3}, strings.NewReader("png"))
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.UploadCover(ctx, ava.ID, dune.ID, model.Cover{ContentType: "text/plain", Size: 3}, strings.NewReader("txt"))
	require.ErrorIs(t, err, errs.ErrValidation)

	book, err := svc.UploadCover(ctx, ava.ID, dune.ID, model.Cover{ContentType: "image/png", Size: 3}, strings.NewReader("png"))
	require.NoError(t, err)
	require.Equal(t, "http://covers.local/covers/"+dune.ID.String()+".png", book.CoverURL)
	require.Equal(t, []string{"covers/" + dune.ID.String() + ".png"}, storage.keys)

	book, err = svc.UploadCover(ctx, ava.ID, dune.ID,
		model.Cover{FileName: "Dune.JPEG", ContentType: "application/octet-stream", Size: 3}, strings.NewReader("jpg"))
	require.NoError(t, err)
	require.Equal(t, "http://covers.local/covers/"+dune.ID.String()+".jpg", book.CoverURL)
	require.Equal(t, []string{"image/png", "image/jpeg"}, storage.types)

	_, err = svc.UploadCover(ctx, ava.ID, dune.ID,
		model.Cover{FileName: "dune.gif", ContentType: "application/octet-stream", Size: 3}, strings.NewReader("gif"))
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_Exchange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(newMemRepo())
	ava := register(t, svc, "Ava", "ava@x.com")
	ben := register(t, svc, "Ben", "ben@x.com")

	dune, err := svc.CreateBook(ctx, ava.ID, model.BookInput{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)
	emma, err := svc.CreateBook(ctx, ben.ID, model.BookInput{Title: "Emma", Author: "Austen"})
	require.NoError(t, err)
	ulysses, err := svc.CreateBook(ctx, ben.ID, model.BookInput{Title: "Ulysses", Author: "Joyce"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		offered []uuid.UUID
		want    string
	}{
		{name: "fallback", offered: nil, want: "Exchange offer (Available books): swap?"},
		{name: "titles", offered: []uuid.UUID{emma.ID, ulysses.ID}, want: "Exchange offer (Emma, Ulysses): swap?"},
		{name: "unknown ids skipped", offered: []uuid.UUID{uuid.New(), emma.ID}, want: "Exchange offer (Emma): swap?"},
		{name: "none resolve", offered: []uuid.UUID{uuid.New()}, want: "Exchange offer (Available books): swap?"},
	}
	for _, tt := range tests {
		n, err := svc.ExchangeRequest(ctx, ben.ID, model.ExchangeRequest{
			OfferRequest:   model.OfferRequest{BookID: dune.ID, OwnerID: ava.ID, Message: "swap?"},
			OfferedBookIDs: tt.offered,
		})
		require.NoError(t, err, tt.name)
		require.Equal(t, tt.want, n.Message, tt.name)
		require.Equal(t, model.NotificationExchangeRequest, n.Type, tt.name)
	}

	_, err = svc.ExchangeRequest(ctx, ben.ID, model.ExchangeRequest{
		OfferRequest: model.OfferRequest{BookID: uuid.New(), OwnerID: ava.ID},
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_NotificationGuards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := newMapCache()
	svc := newTestService(newMemRepo(), service.WithUnreadCache(cache))
	ava := register(t, svc, "Ava", "ava@x.com")
	ben := register(t, svc, "Ben", "ben@x.com")
	cid := register(t, svc, "Cid", "cid@x.com")

	_, err := svc.Contact(ctx, ben.ID, model.ContactRequest{OfferRequest: model.OfferRequest{
		BookID: uuid.New(), OwnerID: ava.ID, SenderID: cid.ID, Message: "hi",
	}})
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.Contact(ctx, ben.ID, model.ContactRequest{OfferRequest: model.OfferRequest{OwnerID: ava.ID}})
	require.ErrorIs(t, err, errs.ErrValidation)

	// contact does not require the book to exist
	n, err := svc.Contact(ctx, ben.ID, model.ContactRequest{OfferRequest: model.OfferRequest{
		BookID: uuid.New(), OwnerID: ava.ID, SenderID: ben.ID, Message: "hi",
		ContactInfo: model.ContactInfo{Email: "ben@x.com", Phone: "555"},
	}})
	require.NoError(t, err)
	require.Equal(t, "hi", n.Message)
	require.Equal(t, "555", n.ContactInfo.Phone)
	require.Contains(t, cache.invalidated, ava.ID)

	_, err = svc.ListNotifications(ctx, ben.ID, ava.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.UnreadCount(ctx, ben.ID, ava.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.ErrorIs(t, svc.MarkRead(ctx, ben.ID, n.ID), errs.ErrForbidden)
	require.ErrorIs(t, svc.MarkRead(ctx, ava.ID, uuid.New()), errs.ErrNotFound)

	require.NoError(t, svc.MarkRead(ctx, ava.ID, n.ID))
	require.NoError(t, svc.MarkRead(ctx, ava.ID, n.ID))
	list, err := svc.ListNotifications(ctx, ava.ID, ava.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusRead, list[0].Status)

	require.ErrorIs(t, svc.SetStatus(ctx, ava.ID, n.ID, "archived"), errs.ErrValidation)
	require.NoError(t, svc.SetStatus(ctx, ava.ID, n.ID, model.StatusResponded))

	require.ErrorIs(t, svc.DeleteNotification(ctx, cid.ID, n.ID), errs.ErrForbidden)
	require.NoError(t, svc.DeleteNotification(ctx, ben.ID, n.ID))
	require.ErrorIs(t, svc.DeleteNotification(ctx, ava.ID, n.ID), errs.ErrNotFound)
}

func TestService_UnreadCountCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := newMapCache()
	svc := newTestService(newMemRepo(), service.WithUnreadCache(cache))
	ava := register(t, svc, "Ava", "ava@x.com")

	cache.SetUnreadCount(ctx, ava.ID, 0, 7)
	count, err := svc.UnreadCount(ctx, ava.ID, ava.ID)
	require.NoError(t, err)
	require.Equal(t, 7, count)

	cache.Invalidate(ctx, ava.ID)
	count, err = svc.UnreadCount(ctx, ava.ID, ava.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)
	cached, _, ok := cache.UnreadCount(ctx, ava.ID)
	require.True(t, ok)
	require.Equal(t, 0, cached)
}

// countThenRepo runs hook after counting and before the count reaches the cache.
type countThenRepo struct {
	*memRepo
	hook func()
}

func (r *countThenRepo) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	count, err := r.memRepo.CountUnread(ctx, recipientID)
	if r.hook != nil {
		hook := r.hook
		r.hook = nil
		hook()
	}
	return count, err
}

func TestService_UnreadCountConcurrentCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &countThenRepo{memRepo: newMemRepo()}
	svc := newTestService(repo, service.WithUnreadCache(newMapCache()))
	ava := register(t, svc, "Ava", "ava@x.com")
	ben := register(t, svc, "Ben", "ben@x.com")

	repo.hook = func() {
		_, err := svc.Contact(ctx, ben.ID, model.ContactRequest{
			OfferRequest: model.OfferRequest{BookID: uuid.New(), OwnerID: ava.ID, Message: "hi"},
		})
		require.NoError(t, err)
	}
	count, err := svc.UnreadCount(ctx, ava.ID, ava.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	count, err = svc.UnreadCount(ctx, ava.ID, ava.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestService_Track(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMemRepo()
	mail := &recordMailer{}
	pub := &recordPublisher{}
	svc := newTestService(repo, service.WithMailer(mail), service.WithPublisher(pub))
	ava := register(t, svc, "Ava", "ava@x.com")
	ben := register(t, svc, "Ben", "ben@x.com")

	dune, err := svc.CreateBook(ctx, ava.ID, model.BookInput{Title: "Dune", Author: "Herbert", Price: price(10)})
	require.NoError(t, err)
	_, err = svc.BuyRequest(ctx, ben.ID, model.BuyRequest{
		OfferRequest: model.OfferRequest{BookID: dune.ID, OwnerID: ava.ID, Message: "deal"},
		OfferPrice:   8.5,
	})
	require.NoError(t, err)

	for _, e := range pub.events {
		require.NoError(t, svc.Track(ctx, e))
	}
	require.Len(t, mail.sent, 1)
	require.Equal(t, "ava@x.com", mail.sent[0].To)
	require.Equal(t, "Ben", mail.sent[0].SenderName)
	require.Equal(t, "Dune", mail.sent[0].BookTitle)
	require.Equal(t, "Buy offer (₹8.5): deal", mail.sent[0].Message)

	stats, err := svc.UserStats(ctx, ben.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.OffersSent)
	require.NotNil(t, stats.LastActivity)
	stats, err = svc.UserStats(ctx, ava.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.BooksListed)
}
