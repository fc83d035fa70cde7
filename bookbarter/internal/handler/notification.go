package handler

import (
	"net/http"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/labstack/echo/v4"
)

// Contact
// @Summary Send a message to a book owner
// @Tags offers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body model.ContactRequest true "message"
// @Success 200 {object} model.MessageResponse
// @Router /books/contact [post]
func (h *Handler) Contact(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req model.ContactRequest
	if err = bindValid(c, &req); err != nil {
		return err
	}
	if _, err = h.svc.Contact(c.Request().Context(), caller, req); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "Message sent successfully"})
}

// BuyRequest
// @Summary Offer to buy a book
// @Tags offers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body model.BuyRequest true "offer"
// @Success 200 {object} model.MessageResponse
// @Failure 404 {object} echo.HTTPError
// @Router /books/buy-request [post]
func (h *Handler) BuyRequest(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req model.BuyRequest
	if err = bindValid(c, &req); err != nil {
		return err
	}
	if _, err = h.svc.BuyRequest(c.Request().Context(), caller, req); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "Buy request sent successfully"})
}

// ExchangeRequest
// @Summary Offer books in exchange
// @Tags offers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body model.ExchangeRequest true "offer"
// @Success 200 {object} model.MessageResponse
// @Failure 404 {object} echo.HTTPError
// @Router /books/exchange-request [post]
func (h *Handler) ExchangeRequest(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req model.ExchangeRequest
	if err = bindValid(c, &req); err != nil {
		return err
	}
	if _, err = h.svc.ExchangeRequest(c.Request().Context(), caller, req); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "Exchange request sent successfully"})
}

// ListNotifications
// @Summary Inbox of the caller
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param userId path string true "recipient id"
// @Success 200 {array} model.Notification
// @Failure 403 {object} echo.HTTPError
// @Router /notifications/user/{userId} [get]
func (h *Handler) ListNotifications(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	list, err := h.svc.ListNotifications(c.Request().Context(), caller, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// MarkRead
// @Summary Mark a notification as read
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param id path string true "notification id"
// @Success 200 {object} model.MessageResponse
// @Router /notifications/{id}/read [put]
func (h *Handler) MarkRead(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err = h.svc.MarkRead(c.Request().Context(), caller, id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "Notification marked as read"})
}

// SetStatus
// @Summary Set the status of a notification
// @Tags notifications
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "notification id"
// @Param input body model.StatusRequest true "status"
// @Success 200 {object} model.MessageResponse
// @Router /notifications/{id}/status [put]
func (h *Handler) SetStatus(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req model.StatusRequest
	if err = bindValid(c, &req); err != nil {
		return err
	}
	if err = h.svc.SetStatus(c.Request().Context(), caller, id, req.Status); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "Notification status updated"})
}

// UnreadCount
// @Summary Number of unread notifications
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param userId path string true "recipient id"
// @Success 200 {object} model.UnreadCount
// @Router /notifications/unread/{userId} [get]
func (h *Handler) UnreadCount(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	count, err := h.svc.UnreadCount(c.Request().Context(), caller, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, model.UnreadCount{Count: count})
}

// DeleteNotification
// @Summary Delete a notification
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param id path string true "notification id"
// @Success 200 {object} model.MessageResponse
// @Router /notifications/{id} [delete]
func (h *Handler) DeleteNotification(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err = h.svc.DeleteNotification(c.Request().Context(), caller, id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "Notification deleted"})
}
