package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MyStats
// @Summary Activity stats of the caller
// @Tags stats
// @Security BearerAuth
// @Produce json
// @Success 200 {object} model.UserStats
// @Router /stats/me [get]
func (h *Handler) MyStats(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.UserStats(c.Request().Context(), caller)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
