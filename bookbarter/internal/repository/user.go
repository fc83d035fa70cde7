package repository

import (
	"context"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/errs"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var userColumns = []string{"id", "name", "email", "password", "created_at"}

func (r *repository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	q, args, err := qb.Insert(usersTableName).
		Columns("id", "name", "email", "password").
		Values(user.ID, user.Name, user.Email, user.Password).
		Suffix("returning created_at").
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	if err = r.db.QueryRow(ctx, q, args...).Scan(&user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.User{}, errs.ErrDuplicate
		}
		r.log.Error("CreateUser", zap.String("q", q), zap.Error(err))
		return model.User{}, err
	}
	return user, nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUser(ctx, sq.Expr("lower(email) = lower(?)", email))
}

func (r *repository) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id})
}

func (r *repository) getUser(ctx context.Context, pred sq.Sqlizer) (model.User, error) {
	q, args, err := qb.Select(userColumns...).
		From(usersTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return model.User{}, err
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}
