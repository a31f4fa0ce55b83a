package jwtx

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/nikmash711/book-corner-server/model"
)

// The auth middleware stores the verified claims under these keys.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
)

func UserIDFromContext(c echo.Context) (int64, error) {
	if id, ok := c.Get(KeyUserID).(int64); ok && id > 0 {
		return id, nil
	}
	return 0, errors.New("no user id in context")
}

func RoleFromContext(c echo.Context) string {
	if r, ok := c.Get(KeyRole).(string); ok {
		return r
	}
	return ""
}

func IsAdmin(c echo.Context) bool { return RoleFromContext(c) == model.RoleAdmin }
