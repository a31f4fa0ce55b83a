package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/nikmash711/book-corner-server/app/echoServer/controller/auth"
	"github.com/nikmash711/book-corner-server/app/echoServer/controller/media"
	"github.com/nikmash711/book-corner-server/app/echoServer/controller/user"
	"github.com/nikmash711/book-corner-server/app/echoServer/jwtx"
)

type C struct {
	Auth  *auth.Controller
	Media *media.Controller
	User  *user.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))
	// user_id + role extraction
	authed.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, role, err := claimsOf(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set(jwtx.KeyUserID, uid)
			ctx.Set(jwtx.KeyRole, role)
			return next(ctx)
		}
	})

	authed.POST("/auth/refresh", c.Auth.Refresh)

	// Catalog + my shelf
	authed.GET("/media", c.Media.List)
	authed.GET("/media/mine", c.Media.MyCheckedOut)
	authed.GET("/media/holds", c.Media.MyHolds)
	authed.GET("/media/overdue", c.Media.MyOverdue)
	authed.GET("/media/history", c.Media.MyHistory)

	// Circulation
	authed.PUT("/media/:id/checkout", c.Media.Checkout)
	authed.PUT("/media/:id/return", c.Media.Return)
	authed.PUT("/media/:id/renew", c.Media.Renew)
	authed.PUT("/media/:id/hold", c.Media.Hold)
	authed.PUT("/media/:id/hold/cancel", c.Media.CancelHold)

	// Account
	authed.PUT("/users/account", c.User.UpdateAccount)
	authed.PUT("/users/password", c.User.ChangePassword)

	// Admin
	admin := authed.Group("", RequireAdmin())
	admin.GET("/media/checked-out", c.Media.AllCheckedOut)
	admin.GET("/media/requests", c.Media.AllRequests)
	admin.GET("/media/overdue/all", c.Media.AllOverdue)
	admin.GET("/users", c.User.List)
	admin.POST("/media", c.Media.Create)
	admin.PUT("/media/:id", c.Media.Update)
	admin.PUT("/media/:id/pickup", c.Media.Pickup)
	admin.DELETE("/media/:id", c.Media.Delete)
}

func claimsOf(ctx echo.Context) (int64, string, error) {
	if tok, ok := ctx.Get("user").(*jwt.Token); ok && tok != nil {
		if claims, ok := tok.Claims.(jwt.MapClaims); ok {
			if sub, ok := claims["sub"].(float64); ok {
				role, _ := claims["role"].(string)
				return int64(sub), role, nil
			}
		}
	}
	// echo-jwt with NewClaimsFunc stores the claims value directly
	if claims, ok := ctx.Get("user").(jwt.MapClaims); ok {
		if sub, ok := claims["sub"].(float64); ok {
			role, _ := claims["role"].(string)
			return int64(sub), role, nil
		}
	}
	return 0, "", echo.ErrUnauthorized
}
