package userrepo

import (
	"context"
	"database/sql"

	"github.com/nikmash711/book-corner-server/model"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateAccount(ctx context.Context, id int64, firstName, lastName, email, cell string) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const userCols = `id, first_name, last_name, email, cell, COALESCE(location,''), role, password_hash, created_at`

func scanUser(s interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Cell, &u.Location, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users(first_name, last_name, email, cell, location, role, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		u.FirstName, u.LastName, u.Email, u.Cell, u.Location, u.Role, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
        SELECT `+userCols+`
        FROM users
        WHERE lower(email) = lower($1)`,
		email,
	))
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
        SELECT `+userCols+`
        FROM users
        WHERE id = $1`,
		id,
	))
}

func (r *repo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userCols+`
		FROM users
		ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *repo) UpdateAccount(ctx context.Context, id int64, firstName, lastName, email, cell string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, cell = $5
		WHERE id = $1
		RETURNING `+userCols,
		id, firstName, lastName, email, cell,
	))
}

func (r *repo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2
		WHERE id = $1`,
		id, passwordHash)
	return err
}
