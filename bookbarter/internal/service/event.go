package service

import (
	"context"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/mailer"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var notificationKinds = map[model.NotificationType]string{
	model.NotificationContact:         "message",
	model.NotificationBuyRequest:      "buy request",
	model.NotificationSellRequest:     "sell request",
	model.NotificationExchangeRequest: "exchange request",
}

// Track is fed by the events consumer.
func (s *Service) Track(ctx context.Context, event kafka.Event) error {
	if err := s.repo.InsertEvent(ctx, event); err != nil {
		return err
	}
	if event.EventType == kafka.EventNotificationCreated && event.NotificationID != nil && s.mailer != nil {
		if err := s.mailRecipient(ctx, *event.NotificationID); err != nil {
			// the event is stored already; a lost email is not worth a redelivery
			s.log.Warn("mail recipient", zap.Stringer("notification", event.NotificationID), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) mailRecipient(ctx context.Context, notificationID uuid.UUID) error {
	n, err := s.repo.GetNotification(ctx, notificationID)
	if err != nil {
		return err
	}
	recipient, err := s.repo.GetUserByID(ctx, n.RecipientID)
	if err != nil {
		return err
	}
	return s.mailer.SendNotification(ctx, mailer.NotificationMail{
		To:            recipient.Email,
		RecipientName: recipient.Name,
		SenderName:    n.Sender.Name,
		Kind:          notificationKinds[n.Type],
		BookTitle:     n.Book.Title,
		Message:       n.Message,
	})
}

func (s *Service) UserStats(ctx context.Context, userID uuid.UUID) (model.UserStats, error) {
	return s.repo.UserStats(ctx, userID)
}
