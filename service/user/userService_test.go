package usersvc

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/nikmash711/book-corner-server/model"
	userrepo "github.com/nikmash711/book-corner-server/repository/user"
	"github.com/nikmash711/book-corner-server/util/hash"
)

type mockRepo struct {
	createFn         func(ctx context.Context, u *model.User) error
	byEmailFn        func(ctx context.Context, email string) (*model.User, error)
	byIDFn           func(ctx context.Context, id int64) (*model.User, error)
	listFn           func(ctx context.Context) ([]model.User, error)
	updateAccountFn  func(ctx context.Context, id int64, firstName, lastName, email, cell string) (*model.User, error)
	updatePasswordFn func(ctx context.Context, id int64, passwordHash string) error
}

var _ userrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, u *model.User) error { return m.createFn(ctx, u) }
func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.byEmailFn(ctx, email)
}
func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) { return m.byIDFn(ctx, id) }
func (m *mockRepo) List(ctx context.Context) ([]model.User, error)          { return m.listFn(ctx) }
func (m *mockRepo) UpdateAccount(ctx context.Context, id int64, firstName, lastName, email, cell string) (*model.User, error) {
	return m.updateAccountFn(ctx, id, firstName, lastName, email, cell)
}
func (m *mockRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.updatePasswordFn(ctx, id, passwordHash)
}

func TestUpdateAccount_NormalizesInput(t *testing.T) {
	var gotFirst, gotLast, gotEmail string
	repo := &mockRepo{
		updateAccountFn: func(_ context.Context, id int64, first, last, email, cell string) (*model.User, error) {
			gotFirst, gotLast, gotEmail = first, last, email
			return &model.User{ID: id, FirstName: first, LastName: last, Email: email, Cell: cell}, nil
		},
	}
	s := New(repo)

	u, err := s.UpdateAccount(context.Background(), 1, model.UpdateAccountReq{
		FirstName: "  nikki ",
		LastName:  "mash",
		Email:     " Nikki@Example.COM ",
		Cell:      " 15550001 ",
	})
	require.NoError(t, err)
	require.Equal(t, "Nikki", gotFirst)
	require.Equal(t, "Mash", gotLast)
	require.Equal(t, "nikki@example.com", gotEmail)
	require.Equal(t, "15550001", u.Cell)
}

func TestUpdateAccount_EmailTaken(t *testing.T) {
	repo := &mockRepo{
		updateAccountFn: func(context.Context, int64, string, string, string, string) (*model.User, error) {
			return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}
		},
	}
	s := New(repo)

	_, err := s.UpdateAccount(context.Background(), 1, model.UpdateAccountReq{Email: "dup@example.com"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateAccount_NotFound(t *testing.T) {
	repo := &mockRepo{
		updateAccountFn: func(context.Context, int64, string, string, string, string) (*model.User, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := New(repo)

	_, err := s.UpdateAccount(context.Background(), 404, model.UpdateAccountReq{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestChangePassword_Success(t *testing.T) {
	old, err := hash.HashPassword("oldpass123")
	require.NoError(t, err)

	var stored string
	repo := &mockRepo{
		byIDFn: func(_ context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, PasswordHash: old}, nil
		},
		updatePasswordFn: func(_ context.Context, _ int64, passwordHash string) error {
			stored = passwordHash
			return nil
		},
	}
	s := New(repo)

	err = s.ChangePassword(context.Background(), 1, model.ChangePasswordReq{
		OldPassword: "oldpass123",
		NewPassword: "newpass456",
	})
	require.NoError(t, err)
	require.True(t, hash.Check(stored, "newpass456"))
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	old, err := hash.HashPassword("oldpass123")
	require.NoError(t, err)

	repo := &mockRepo{
		byIDFn: func(_ context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, PasswordHash: old}, nil
		},
	}
	s := New(repo)

	err = s.ChangePassword(context.Background(), 1, model.ChangePasswordReq{
		OldPassword: "guess",
		NewPassword: "newpass456",
	})
	require.ErrorIs(t, err, ErrWrongPassword)
}
