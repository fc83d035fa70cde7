package handler

import (
	"net/http"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListBooks
// @Summary Books that are not sold, newest first
// @Tags books
// @Produce json
// @Success 200 {array} model.Book
// @Router /books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	books, err := h.svc.ListAvailable(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// ListUserBooks
// @Summary Books of one owner
// @Tags books
// @Produce json
// @Param userId path string true "owner id"
// @Success 200 {array} model.Book
// @Router /books/user/{userId} [get]
func (h *Handler) ListUserBooks(c echo.Context) error {
	ownerID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	books, err := h.svc.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// CreateBook
// @Summary List a book
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body model.BookInput true "book"
// @Success 201 {object} model.Book
// @Failure 400 {object} echo.HTTPError
// @Failure 403 {object} echo.HTTPError
// @Router /books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var in model.BookInput
	if err = bindValid(c, &in); err != nil {
		return err
	}
	book, err := h.svc.CreateBook(c.Request().Context(), caller, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook
// @Summary Overwrite a book
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "book id"
// @Param input body model.BookInput true "book"
// @Success 200 {object} model.Book
// @Failure 403 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	bookID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in model.BookInput
	if err = bindValid(c, &in); err != nil {
		return err
	}
	book, err := h.svc.UpdateBook(c.Request().Context(), caller, bookID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook
// @Summary Remove a book
// @Tags books
// @Security BearerAuth
// @Produce json
// @Param id path string true "book id"
// @Success 200 {object} model.MessageResponse
// @Failure 403 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	bookID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err = h.svc.DeleteBook(c.Request().Context(), caller, bookID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "Book deleted successfully"})
}

// UploadCover
// @Summary Upload a cover image
// @Tags books
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "book id"
// @Param cover formData file true "jpeg, png or webp image"
// @Success 200 {object} model.Book
// @Failure 503 {object} echo.HTTPError
// @Router /books/{id}/cover [put]
func (h *Handler) UploadCover(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	bookID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	file, err := c.FormFile("cover")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer func() {
		if err := src.Close(); err != nil {
			h.log.Warn("close cover", zap.Error(err))
		}
	}()

	book, err := h.svc.UploadCover(c.Request().Context(), caller, bookID, model.Cover{
		FileName:    file.Filename,
		ContentType: file.Header.Get(echo.HeaderContentType),
		Size:        file.Size,
	}, src)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}
