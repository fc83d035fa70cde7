package repository

import (
	"context"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *repository) InsertEvent(ctx context.Context, event kafka.Event) error {
	q := `insert into events (timestamp, user_id, event_type, book_id, notification_id)
	values (@timestamp, @user_id, @event_type, @book_id, @notification_id)`
	args := pgx.NamedArgs{
		"timestamp":       event.Timestamp,
		"user_id":         event.UserID,
		"event_type":      string(event.EventType),
		"book_id":         event.BookID,
		"notification_id": event.NotificationID,
	}
	_, err := r.db.Exec(ctx, q, args)
	return err
}

func (r *repository) UserStats(ctx context.Context, userID uuid.UUID) (model.UserStats, error) {
	const q = `
	select max(timestamp) as last_activity,
	       count(*) filter (where event_type = 'book_created')          as books_listed,
	       count(*) filter (where event_type = 'book_deleted')          as books_removed,
	       count(*) filter (where event_type = 'notification_created')  as offers_sent,
	       count(*) filter (where event_type = 'notification_read')     as notifications_read,
	       count(*) filter (where event_type = 'notification_deleted')  as notifications_deleted
	from events
	where user_id = @user_id
`
	stats := model.UserStats{UserID: userID}
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}).Scan(
		&stats.LastActivity,
		&stats.BooksListed,
		&stats.BooksRemoved,
		&stats.OffersSent,
		&stats.NotificationsRead,
		&stats.NotificationsDeleted,
	)
	if err != nil {
		return model.UserStats{}, err
	}
	return stats, nil
}
