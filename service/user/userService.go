package usersvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nikmash711/book-corner-server/model"
	userrepo "github.com/nikmash711/book-corner-server/repository/user"
	"github.com/nikmash711/book-corner-server/util/hash"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrWrongPassword = errors.New("incorrect old password")
)

type Service interface {
	List(ctx context.Context) ([]model.User, error)
	UpdateAccount(ctx context.Context, userID int64, req model.UpdateAccountReq) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordReq) error
}

type service struct{ ur userrepo.Repo }

func New(ur userrepo.Repo) Service { return &service{ur: ur} }

func (s *service) List(ctx context.Context) ([]model.User, error) {
	return s.ur.List(ctx)
}

func (s *service) UpdateAccount(ctx context.Context, userID int64, req model.UpdateAccountReq) (*model.User, error) {
	first := capitalize(strings.TrimSpace(req.FirstName))
	last := capitalize(strings.TrimSpace(req.LastName))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.ur.UpdateAccount(ctx, userID, first, last, email, strings.TrimSpace(req.Cell))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *service) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordReq) error {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !hash.Check(u.PasswordHash, req.OldPassword) {
		return ErrWrongPassword
	}
	hashed, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.ur.UpdatePassword(ctx, userID, hashed)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
