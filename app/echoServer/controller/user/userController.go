package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/nikmash711/book-corner-server/app/echoServer/jwtx"
	"github.com/nikmash711/book-corner-server/model"
	usersvc "github.com/nikmash711/book-corner-server/service/user"
)

type Controller struct {
	Svc usersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/users (admin)
func (h *Controller) List(c echo.Context) error {
	out, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("user list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// PUT /v1/users/account
func (h *Controller) UpdateAccount(c echo.Context) error {
	var req model.UpdateAccountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	u, err := h.Svc.UpdateAccount(c.Request().Context(), uid, req)
	if err != nil {
		switch {
		case errors.Is(err, usersvc.ErrEmailTaken):
			return c.JSON(http.StatusConflict, echo.Map{"message": "that email is already taken, please use another"})
		case errors.Is(err, usersvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		default:
			h.Log.Error("update account", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, u)
}

// PUT /v1/users/password
func (h *Controller) ChangePassword(c echo.Context) error {
	var req model.ChangePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	if err := h.Svc.ChangePassword(c.Request().Context(), uid, req); err != nil {
		switch {
		case errors.Is(err, usersvc.ErrWrongPassword):
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "incorrect old password"})
		case errors.Is(err, usersvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		default:
			h.Log.Error("change password", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
