// Package main book corner API.
//
// @title           Book Corner API
// @version         1.0
// @description     Community lending library (media, checkouts, holds, renewals).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/nikmash711/book-corner-server/app/echoServer"
	authctrl "github.com/nikmash711/book-corner-server/app/echoServer/controller/auth"
	mediactrl "github.com/nikmash711/book-corner-server/app/echoServer/controller/media"
	userctrl "github.com/nikmash711/book-corner-server/app/echoServer/controller/user"
	"github.com/nikmash711/book-corner-server/app/echoServer/validation"
	"github.com/nikmash711/book-corner-server/config"
	mediarepo "github.com/nikmash711/book-corner-server/repository/media"
	nexmorepo "github.com/nikmash711/book-corner-server/repository/nexmo"
	userrepo "github.com/nikmash711/book-corner-server/repository/user"
	authsvc "github.com/nikmash711/book-corner-server/service/auth"
	mediasvc "github.com/nikmash711/book-corner-server/service/media"
	"github.com/nikmash711/book-corner-server/service/notify"
	usersvc "github.com/nikmash711/book-corner-server/service/user"
	"github.com/nikmash711/book-corner-server/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	mr := mediarepo.New(db)
	sms := nexmorepo.NewHTTP(cfg.NexmoAPIKey, cfg.NexmoAPISecret)

	// services
	notifier := notify.New(mr, ur, sms, cfg.NexmoFrom, cfg.ReminderStagger, log)
	as := authsvc.New(ur, cfg.JWTSecret)
	us := usersvc.New(ur)
	msvc := mediasvc.New(mr, notifier, cfg.RenewalGraceDays)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	mediaC := &mediactrl.Controller{Svc: msvc, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:  authC,
		Media: mediaC,
		User:  userC,

		JWTSecret: cfg.JWTSecret,
	})

	// due-date reminder daemon
	go notifier.Run(ctx, cfg.ReminderInterval)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	slog.Info("starting server", "port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
