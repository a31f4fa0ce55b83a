package media

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/nikmash711/book-corner-server/app/echoServer/jwtx"
	"github.com/nikmash711/book-corner-server/model"
	ms "github.com/nikmash711/book-corner-server/service/media"
)

type Controller struct {
	Svc ms.Service
	V   *validator.Validate
	Log *slog.Logger
}

func mediaID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// httpError maps a coded domain error onto a status + message.
func (h *Controller) httpError(c echo.Context, op string, err error) error {
	switch ms.Code(err) {
	case ms.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "media not found"})
	case ms.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"message": "sorry, someone else got there first. Please refresh to get the latest catalog"})
	case ms.ErrLimitExceeded:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "cannot check out more than 2 items at a time"})
	case ms.ErrRenewalLimit:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "renewal limit exceeded"})
	case ms.ErrNotHolder:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "you do not have this item checked out"})
	case ms.ErrNotCheckedOut:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "this item is not checked out"})
	case ms.ErrOverdue:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "overdue items cannot be renewed"})
	case ms.ErrInvalidHold:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "you cannot place a hold on available media"})
	case ms.ErrDuplicateHold:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "you already have this item checked out or on hold"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// GET /v1/media
// @Summary  List the whole catalog
// @Tags     media
// @Produce  json
// @Success  200 {object} map[string]any
// @Security BearerAuth
// @Router   /v1/media [get]
func (h *Controller) List(c echo.Context) error {
	out, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return h.httpError(c, "media list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/media/mine
func (h *Controller) MyCheckedOut(c echo.Context) error {
	uid, _ := jwtx.UserIDFromContext(c)
	out, err := h.Svc.MyCheckedOut(c.Request().Context(), uid)
	if err != nil {
		return h.httpError(c, "my checked out", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/media/holds
func (h *Controller) MyHolds(c echo.Context) error {
	uid, _ := jwtx.UserIDFromContext(c)
	out, err := h.Svc.MyHolds(c.Request().Context(), uid)
	if err != nil {
		return h.httpError(c, "my holds", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/media/overdue
func (h *Controller) MyOverdue(c echo.Context) error {
	uid, _ := jwtx.UserIDFromContext(c)
	out, balance, err := h.Svc.MyOverdue(c.Request().Context(), uid)
	if err != nil {
		return h.httpError(c, "my overdue", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out, "balance": balance})
}

// GET /v1/media/history
func (h *Controller) MyHistory(c echo.Context) error {
	uid, _ := jwtx.UserIDFromContext(c)
	out, err := h.Svc.MyHistory(c.Request().Context(), uid)
	if err != nil {
		return h.httpError(c, "my history", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/media/checked-out (admin)
func (h *Controller) AllCheckedOut(c echo.Context) error {
	out, err := h.Svc.AllCheckedOut(c.Request().Context())
	if err != nil {
		return h.httpError(c, "all checked out", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/media/requests (admin): checkouts still awaiting pickup
func (h *Controller) AllRequests(c echo.Context) error {
	out, err := h.Svc.AllRequests(c.Request().Context())
	if err != nil {
		return h.httpError(c, "all requests", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/media/overdue/all (admin)
func (h *Controller) AllOverdue(c echo.Context) error {
	out, err := h.Svc.AllOverdue(c.Request().Context())
	if err != nil {
		return h.httpError(c, "all overdue", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// PUT /v1/media/:id/checkout
// @Summary  Check out an available item
// @Tags     media
// @Produce  json
// @Param    id path int true "media id"
// @Success  200 {object} map[string]any
// @Failure  400 {object} map[string]any "checkout limit reached"
// @Failure  409 {object} map[string]any "lost the race for the item"
// @Security BearerAuth
// @Router   /v1/media/{id}/checkout [put]
func (h *Controller) Checkout(c echo.Context) error {
	id, ok := mediaID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	m, err := h.Svc.Checkout(c.Request().Context(), id, uid)
	if err != nil {
		return h.httpError(c, "checkout", err)
	}
	return c.JSON(http.StatusOK, m)
}

// PUT /v1/media/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, ok := mediaID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	m, err := h.Svc.Return(c.Request().Context(), id, uid)
	if err != nil {
		return h.httpError(c, "return", err)
	}
	return c.JSON(http.StatusOK, m)
}

// PUT /v1/media/:id/renew
func (h *Controller) Renew(c echo.Context) error {
	id, ok := mediaID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	m, err := h.Svc.Renew(c.Request().Context(), id, uid)
	if err != nil {
		return h.httpError(c, "renew", err)
	}
	return c.JSON(http.StatusOK, m)
}

// PUT /v1/media/:id/hold
func (h *Controller) Hold(c echo.Context) error {
	id, ok := mediaID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	m, err := h.Svc.PlaceHold(c.Request().Context(), id, uid)
	if err != nil {
		return h.httpError(c, "place hold", err)
	}
	return c.JSON(http.StatusOK, m)
}

// PUT /v1/media/:id/hold/cancel
func (h *Controller) CancelHold(c echo.Context) error {
	id, ok := mediaID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	m, err := h.Svc.CancelHold(c.Request().Context(), id, uid)
	if err != nil {
		return h.httpError(c, "cancel hold", err)
	}
	return c.JSON(http.StatusOK, m)
}

// PUT /v1/media/:id/pickup (admin)
// @Summary  Mark an item ready for pickup
// @Description  Assigns the due date; with an empty holder and a non-empty hold queue it promotes the head of the queue instead.
// @Tags     media
// @Produce  json
// @Param    id path int true "media id"
// @Success  200 {object} map[string]any
// @Security BearerAuth
// @Router   /v1/media/{id}/pickup [put]
func (h *Controller) Pickup(c echo.Context) error {
	id, ok := mediaID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	m, err := h.Svc.AssignPickup(c.Request().Context(), id)
	if err != nil {
		return h.httpError(c, "pickup", err)
	}
	return c.JSON(http.StatusOK, m)
}

// POST /v1/media (admin)
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateMediaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	m, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return h.httpError(c, "media create", err)
	}
	return c.JSON(http.StatusCreated, m)
}

// PUT /v1/media/:id (admin)
func (h *Controller) Update(c echo.Context) error {
	id, ok := mediaID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req model.UpdateMediaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	m, err := h.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return h.httpError(c, "media update", err)
	}
	return c.JSON(http.StatusOK, m)
}

// DELETE /v1/media/:id (admin)
func (h *Controller) Delete(c echo.Context) error {
	id, ok := mediaID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if ms.Code(err) == ms.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"message": "cannot delete media, it is currently checked out"})
		}
		return h.httpError(c, "media delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}
