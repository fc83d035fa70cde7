package handler

import (
	"net/http"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/labstack/echo/v4"
)

// Register
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param input body model.RegisterRequest true "credentials"
// @Success 201 {object} model.MessageResponse
// @Failure 400 {object} echo.HTTPError
// @Router /users/register [post]
func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if _, err := h.svc.Register(c.Request().Context(), req); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, model.MessageResponse{Message: "User registered successfully"})
}

// Login
// @Summary Log in and receive a bearer token
// @Tags users
// @Accept json
// @Produce json
// @Param input body model.LoginRequest true "credentials"
// @Success 200 {object} model.LoginResponse
// @Failure 401 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /users/login [post]
func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}
