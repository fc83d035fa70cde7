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

var bookColumns = []string{
	"b.id", "b.title", "b.author", "b.description", "b.price", "b.availability", "b.condition",
	"b.exchange_preferences", "b.cover_url", "b.created_at",
	"u.id", "u.name", "u.email",
}

func selectBooks() sq.SelectBuilder {
	return qb.Select(bookColumns...).
		From(booksTableName + " b").
		Join(fmt.Sprintf("%s u on u.id = b.owner_id", usersTableName))
}

func scanBook(row pgx.CollectableRow) (model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Description, &b.Price, &b.Availability, &b.Condition,
		&b.ExchangePreferences, &b.CoverURL, &b.CreatedAt,
		&b.Owner.ID, &b.Owner.Name, &b.Owner.Email,
	)
	return b, err
}

func (r *repository) listBooks(ctx context.Context, q sq.SelectBuilder) ([]model.Book, error) {
	query, args, err := q.OrderBy("b.created_at desc").ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("listBooks", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	books, err := pgx.CollectRows(rows, scanBook)
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return books, nil
}

func (r *repository) ListAvailableBooks(ctx context.Context) ([]model.Book, error) {
	return r.listBooks(ctx, selectBooks().Where(sq.NotEq{"b.availability": model.AvailabilitySold}))
}

func (r *repository) ListBooksByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error) {
	return r.listBooks(ctx, selectBooks().Where(sq.Eq{"b.owner_id": ownerID}))
}

func (r *repository) GetBook(ctx context.Context, id uuid.UUID) (model.Book, error) {
	query, args, err := selectBooks().
		Where(sq.Eq{"b.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	book, err := pgx.CollectOneRow(rows, scanBook)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

// GetBookTitles returns the titles in the order of ids; unknown ids are skipped.
func (r *repository) GetBookTitles(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := qb.Select("id", "title").
		From(booksTableName).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]string, len(ids))
	var (
		id    uuid.UUID
		title string
	)
	if _, err = pgx.ForEachRow(rows, []any{&id, &title}, func() error {
		byID[id] = title
		return nil
	}); err != nil {
		return nil, fmt.Errorf("pgx.ForEachRow: %w", err)
	}
	titles := make([]string, 0, len(byID))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

func (r *repository) CreateBook(ctx context.Context, id uuid.UUID, in model.BookInput) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("id", "title", "author", "description", "price", "owner_id", "availability", "condition", "exchange_preferences").
		Values(id, in.Title, in.Author, in.Description, in.Price, in.Owner, in.Availability, in.Condition, in.ExchangePreferences).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", query), zap.Error(err))
		return model.Book{}, err
	}
	return r.GetBook(ctx, id)
}

func (r *repository) UpdateBook(ctx context.Context, id uuid.UUID, in model.BookInput) (model.Book, error) {
	return r.updateBook(ctx, id, map[string]interface{}{
		"title":                in.Title,
		"author":               in.Author,
		"description":          in.Description,
		"price":                in.Price,
		"availability":         in.Availability,
		"condition":            in.Condition,
		"exchange_preferences": in.ExchangePreferences,
	})
}

func (r *repository) SetBookCover(ctx context.Context, id uuid.UUID, url string) (model.Book, error) {
	return r.updateBook(ctx, id, map[string]interface{}{"cover_url": url})
}

func (r *repository) updateBook(ctx context.Context, id uuid.UUID, set map[string]interface{}) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Book{}, errs.ErrNotFound
	}
	return r.GetBook(ctx, id)
}

func (r *repository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	query, args, err := qb.Delete(booksTableName).
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
