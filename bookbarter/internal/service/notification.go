package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/errs"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const exchangeFallback = "Available books"

func buyMessage(offerPrice float64, message string) string {
	return fmt.Sprintf("Buy offer (₹%s): %s", strconv.FormatFloat(offerPrice, 'f', -1, 64), message)
}

func exchangeMessage(titles []string, message string) string {
	offered := exchangeFallback
	if len(titles) > 0 {
		offered = strings.Join(titles, ", ")
	}
	return fmt.Sprintf("Exchange offer (%s): %s", offered, message)
}

func (s *Service) checkOffer(callerID uuid.UUID, req model.OfferRequest) error {
	if req.SenderID != uuid.Nil && req.SenderID != callerID {
		return errors.Wrap(errs.ErrForbidden, "senderId does not match the authenticated user")
	}
	if req.BookID == uuid.Nil || req.OwnerID == uuid.Nil {
		return errors.Wrap(errs.ErrValidation, "bookId and ownerId are required")
	}
	return nil
}

func (s *Service) notify(ctx context.Context, callerID uuid.UUID, req model.OfferRequest, typ model.NotificationType, message string) (model.Notification, error) {
	n, err := s.repo.CreateNotification(ctx, model.Notification{
		ID:          uuid.New(),
		RecipientID: req.OwnerID,
		Sender:      model.UserRef{ID: callerID},
		Type:        typ,
		Book:        model.BookRef{ID: req.BookID},
		Message:     message,
		ContactInfo: req.ContactInfo,
		Status:      model.StatusUnread,
	})
	if err != nil {
		return model.Notification{}, err
	}
	s.cache.Invalidate(ctx, n.RecipientID)
	s.publish(callerID, kafka.EventNotificationCreated, &n.Book.ID, &n.ID)
	return n, nil
}

// Contact records a plain message to the owner; the book is not looked up.
func (s *Service) Contact(ctx context.Context, callerID uuid.UUID, req model.ContactRequest) (model.Notification, error) {
	if err := s.checkOffer(callerID, req.OfferRequest); err != nil {
		return model.Notification{}, err
	}
	return s.notify(ctx, callerID, req.OfferRequest, model.NotificationContact, req.Message)
}

func (s *Service) BuyRequest(ctx context.Context, callerID uuid.UUID, req model.BuyRequest) (model.Notification, error) {
	if err := s.checkOffer(callerID, req.OfferRequest); err != nil {
		return model.Notification{}, err
	}
	if _, err := s.repo.GetBook(ctx, req.BookID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Notification{}, errors.Wrap(errs.ErrNotFound, "book")
		}
		return model.Notification{}, err
	}
	return s.notify(ctx, callerID, req.OfferRequest, model.NotificationBuyRequest, buyMessage(req.OfferPrice, req.Message))
}

// ExchangeRequest resolves the target book and the titles of the offered books in parallel.
func (s *Service) ExchangeRequest(ctx context.Context, callerID uuid.UUID, req model.ExchangeRequest) (model.Notification, error) {
	if err := s.checkOffer(callerID, req.OfferRequest); err != nil {
		return model.Notification{}, err
	}
	var titles []string
	gg, gctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		if _, err := s.repo.GetBook(gctx, req.BookID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errors.Wrap(errs.ErrNotFound, "book")
			}
			return err
		}
		return nil
	})
	if len(req.OfferedBookIDs) > 0 {
		gg.Go(func() error {
			var err error
			titles, err = s.repo.GetBookTitles(gctx, req.OfferedBookIDs)
			return err
		})
	}
	if err := gg.Wait(); err != nil {
		return model.Notification{}, err
	}
	return s.notify(ctx, callerID, req.OfferRequest, model.NotificationExchangeRequest, exchangeMessage(titles, req.Message))
}

func (s *Service) ListNotifications(ctx context.Context, callerID, userID uuid.UUID) ([]model.Notification, error) {
	if callerID != userID {
		return nil, errors.Wrap(errs.ErrForbidden, "notifications of another user")
	}
	return s.repo.ListNotifications(ctx, userID)
}

func (s *Service) receivedNotification(ctx context.Context, callerID, id uuid.UUID) (model.Notification, error) {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Notification{}, errors.Wrap(errs.ErrNotFound, "notification")
		}
		return model.Notification{}, err
	}
	if n.RecipientID != callerID {
		return model.Notification{}, errors.Wrap(errs.ErrForbidden, "not the recipient of this notification")
	}
	return n, nil
}

// MarkRead is idempotent: a read notification stays read.
func (s *Service) MarkRead(ctx context.Context, callerID, id uuid.UUID) error {
	if err := s.SetStatus(ctx, callerID, id, model.StatusRead); err != nil {
		return err
	}
	s.publish(callerID, kafka.EventNotificationRead, nil, &id)
	return nil
}

// SetStatus is the only way a notification becomes "responded".
func (s *Service) SetStatus(ctx context.Context, callerID, id uuid.UUID, status model.NotificationStatus) error {
	if !status.Valid() {
		return errors.Wrapf(errs.ErrValidation, "unknown status %q", status)
	}
	n, err := s.receivedNotification(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err = s.repo.SetNotificationStatus(ctx, id, status); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, n.RecipientID)
	return nil
}

func (s *Service) UnreadCount(ctx context.Context, callerID, userID uuid.UUID) (int, error) {
	if callerID != userID {
		return 0, errors.Wrap(errs.ErrForbidden, "notifications of another user")
	}
	count, gen, ok := s.cache.UnreadCount(ctx, userID)
	if ok {
		return count, nil
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.SetUnreadCount(ctx, userID, gen, count)
	return count, nil
}

// DeleteNotification may be called by either the recipient or the sender.
func (s *Service) DeleteNotification(ctx context.Context, callerID, id uuid.UUID) error {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errors.Wrap(errs.ErrNotFound, "notification")
		}
		return err
	}
	if n.RecipientID != callerID && n.Sender.ID != callerID {
		return errors.Wrap(errs.ErrForbidden, "not a party of this notification")
	}
	if err = s.repo.DeleteNotification(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, n.RecipientID)
	s.publish(callerID, kafka.EventNotificationDeleted, nil, &id)
	return nil
}
