package repository

import (
	"context"
	"fmt"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/errs"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func selectNotifications() sq.SelectBuilder {
	return qb.Select(
		"n.id", "n.recipient_id", "n.type", "n.book_id", "n.message", "n.contact_email", "n.contact_phone",
		"n.status", "n.created_at", "s.id", "s.name", "s.email", "b.title", "b.author",
	).
		From(notificationsTableName + " n").
		Join(fmt.Sprintf("%s s on s.id = n.sender_id", usersTableName)).
		LeftJoin(fmt.Sprintf("%s b on b.id = n.book_id", booksTableName))
}

func scanNotification(row pgx.CollectableRow) (model.Notification, error) {
	var (
		n             model.Notification
		title, author *string
	)
	err := row.Scan(
		&n.ID, &n.RecipientID, &n.Type, &n.Book.ID, &n.Message, &n.ContactInfo.Email, &n.ContactInfo.Phone,
		&n.Status, &n.CreatedAt, &n.Sender.ID, &n.Sender.Name, &n.Sender.Email, &title, &author,
	)
	if title != nil {
		n.Book.Title = *title
	}
	if author != nil {
		n.Book.Author = *author
	}
	return n, err
}

func (r *repository) CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	query, args, err := qb.Insert(notificationsTableName).
		Columns("id", "recipient_id", "sender_id", "type", "book_id", "message", "contact_email", "contact_phone", "status").
		Values(n.ID, n.RecipientID, n.Sender.ID, n.Type, n.Book.ID, n.Message, n.ContactInfo.Email, n.ContactInfo.Phone, n.Status).
		ToSql()
	if err != nil {
		return model.Notification{}, err
	}
	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		r.log.Error("CreateNotification", zap.String("q", query), zap.Error(err))
		return model.Notification{}, err
	}
	return r.GetNotification(ctx, n.ID)
}

func (r *repository) GetNotification(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	query, args, err := selectNotifications().
		Where(sq.Eq{"n.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Notification{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Notification{}, err
	}
	n, err := pgx.CollectOneRow(rows, scanNotification)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Notification{}, errs.ErrNotFound
		}
		return model.Notification{}, err
	}
	return n, nil
}

func (r *repository) ListNotifications(ctx context.Context, recipientID uuid.UUID) ([]model.Notification, error) {
	query, args, err := selectNotifications().
		Where(sq.Eq{"n.recipient_id": recipientID}).
		OrderBy("n.created_at desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, scanNotification)
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return items, nil
}

func (r *repository) SetNotificationStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus) error {
	query, args, err := qb.Update(notificationsTableName).
		Set("status", status).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	query, args, err := qb.Select("count(*)").
		From(notificationsTableName).
		Where(sq.Eq{"recipient_id": recipientID, "status": model.StatusUnread}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err = r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	query, args, err := qb.Delete(notificationsTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
