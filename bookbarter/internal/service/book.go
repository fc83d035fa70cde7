package service

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/errs"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (s *Service) ListAvailable(ctx context.Context) ([]model.Book, error) {
	return s.repo.ListAvailableBooks(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error) {
	return s.repo.ListBooksByOwner(ctx, ownerID)
}

func validateBook(in model.BookInput) (model.BookInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if in.Title == "" || in.Author == "" {
		return in, errors.Wrap(errs.ErrValidation, "title and author are required")
	}
	in = in.Normalize()
	if !in.Availability.Valid() {
		return in, errors.Wrapf(errs.ErrValidation, "unknown availability %q", in.Availability)
	}
	if !in.Condition.Valid() {
		return in, errors.Wrapf(errs.ErrValidation, "unknown condition %q", in.Condition)
	}
	if in.Price != nil && *in.Price < 0 {
		return in, errors.Wrap(errs.ErrValidation, "price must not be negative")
	}
	return in, nil
}

// CreateBook lists a book for the caller. The owner field may be omitted; naming anybody else is forbidden.
func (s *Service) CreateBook(ctx context.Context, callerID uuid.UUID, in model.BookInput) (model.Book, error) {
	if in.Owner == uuid.Nil {
		in.Owner = callerID
	}
	if in.Owner != callerID {
		return model.Book{}, errors.Wrap(errs.ErrForbidden, "books can only be listed for yourself")
	}
	in, err := validateBook(in)
	if err != nil {
		return model.Book{}, err
	}
	book, err := s.repo.CreateBook(ctx, uuid.New(), in)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(callerID, kafka.EventBookCreated, &book.ID, nil)
	return book, nil
}

func (s *Service) ownBook(ctx context.Context, callerID, bookID uuid.UUID) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Book{}, errors.Wrap(errs.ErrNotFound, "book")
		}
		return model.Book{}, err
	}
	if book.Owner.ID != callerID {
		return model.Book{}, errors.Wrap(errs.ErrForbidden, "not the owner of this book")
	}
	return book, nil
}

// UpdateBook overwrites every writable field of the caller's book.
func (s *Service) UpdateBook(ctx context.Context, callerID, bookID uuid.UUID, in model.BookInput) (model.Book, error) {
	if _, err := s.ownBook(ctx, callerID, bookID); err != nil {
		return model.Book{}, err
	}
	in, err := validateBook(in)
	if err != nil {
		return model.Book{}, err
	}
	book, err := s.repo.UpdateBook(ctx, bookID, in)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(callerID, kafka.EventBookUpdated, &bookID, nil)
	return book, nil
}

func (s *Service) DeleteBook(ctx context.Context, callerID, bookID uuid.UUID) error {
	if _, err := s.ownBook(ctx, callerID, bookID); err != nil {
		return err
	}
	if err := s.repo.DeleteBook(ctx, bookID); err != nil {
		return err
	}
	s.publish(callerID, kafka.EventBookDeleted, &bookID, nil)
	return nil
}

var coverTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var coverExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// coverFormat picks the stored extension and content type. The declared content type wins;
// the file name extension is used when the client sent a generic or empty type.
func coverFormat(cover model.Cover) (ext, contentType string, ok bool) {
	if ext, ok = coverTypes[cover.ContentType]; ok {
		return ext, cover.ContentType, true
	}
	contentType, ok = coverExts[strings.ToLower(path.Ext(cover.FileName))]
	if !ok {
		return "", "", false
	}
	return coverTypes[contentType], contentType, true
}

func (s *Service) UploadCover(ctx context.Context, callerID, bookID uuid.UUID, cover model.Cover, r io.Reader) (model.Book, error) {
	if s.storage == nil {
		return model.Book{}, errs.ErrStorageDisabled
	}
	if _, err := s.ownBook(ctx, callerID, bookID); err != nil {
		return model.Book{}, err
	}
	ext, contentType, ok := coverFormat(cover)
	if !ok {
		return model.Book{}, errors.Wrapf(errs.ErrValidation, "unsupported cover type %q (%s)", cover.ContentType, cover.FileName)
	}
	key := path.Join("covers", bookID.String()+ext)
	url, err := s.storage.PutCover(ctx, key, r, cover.Size, contentType)
	if err != nil {
		return model.Book{}, err
	}
	book, err := s.repo.SetBookCover(ctx, bookID, url)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(callerID, kafka.EventBookUpdated, &bookID, nil)
	return book, nil
}
