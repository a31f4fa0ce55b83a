package mediarepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/nikmash711/book-corner-server/model"
)

// ReminderRow is one recipient of a due-date reminder text.
type ReminderRow struct {
	MediaID   int64
	Title     string
	DueDate   time.Time
	UserID    int64
	FirstName string
	Cell      string
}

type Repo interface {
	// Catalog
	ByID(ctx context.Context, id int64) (*model.Media, error)
	List(ctx context.Context) ([]model.Media, error)
	ListCheckedOut(ctx context.Context) ([]model.Media, error)
	ListRequests(ctx context.Context) ([]model.Media, error)
	ListOverdue(ctx context.Context, today time.Time) ([]model.Media, error)

	// Per-user views
	ListCheckedOutBy(ctx context.Context, userID int64) ([]model.Media, error)
	ListOnHoldBy(ctx context.Context, userID int64) ([]model.Media, error)
	ListHistoryOf(ctx context.Context, userID int64) ([]model.Media, error)
	CountCheckedOutBy(ctx context.Context, userID int64) (int, error)

	// Lifecycle transitions. The boolean results are rows-affected guards:
	// false means the conditional update lost to a concurrent writer.
	ClaimForCheckout(ctx context.Context, mediaID, userID int64) (bool, error)
	Release(ctx context.Context, mediaID, holderID int64) (bool, error)
	SetPickupDue(ctx context.Context, mediaID int64, due time.Time) (bool, error)
	PromoteHold(ctx context.Context, mediaID, userID int64, due time.Time) (bool, error)
	Renew(ctx context.Context, mediaID, userID int64, oldDue, newDue time.Time) (bool, error)

	// Hold queue
	HoldQueue(ctx context.Context, mediaID int64) ([]int64, error)
	AddHold(ctx context.Context, mediaID, userID int64) error
	RemoveHold(ctx context.Context, mediaID, userID int64) error
	HasHoldOrCheckout(ctx context.Context, mediaID, userID int64) (bool, error)

	// History (set semantics, safe to retry)
	AddHistory(ctx context.Context, userID, mediaID int64) error

	// Admin
	Create(ctx context.Context, m *model.Media) error
	Update(ctx context.Context, id int64, title, author, img, mediaType string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	// Notifications
	DueReminders(ctx context.Context, latest time.Time) ([]ReminderRow, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const mediaCols = `id, title, COALESCE(author,''), COALESCE(img,''), type, available, checked_out_by, due_date, renewals`

func scanMedia(s interface{ Scan(...any) error }) (*model.Media, error) {
	var m model.Media
	var holder sql.NullInt64
	var due sql.NullTime
	var renews sql.NullInt32
	if err := s.Scan(&m.ID, &m.Title, &m.Author, &m.Img, &m.Type, &m.Available, &holder, &due, &renews); err != nil {
		return nil, err
	}
	if holder.Valid {
		m.CheckedOutBy = &holder.Int64
	}
	if due.Valid {
		d := due.Time
		m.DueDate = &d
	}
	if renews.Valid {
		n := int(renews.Int32)
		m.Renewals = &n
	}
	return &m, nil
}

func (r *repo) queryMedia(ctx context.Context, q string, args ...any) ([]model.Media, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Media, error) {
	const q = `
		SELECT ` + mediaCols + `
		FROM media
		WHERE id = $1`
	m, err := scanMedia(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	queue, err := r.HoldQueue(ctx, id)
	if err != nil {
		return nil, err
	}
	m.HoldQueue = queue
	return m, nil
}

func (r *repo) List(ctx context.Context) ([]model.Media, error) {
	const q = `
		SELECT ` + mediaCols + `
		FROM media
		ORDER BY title, id`
	return r.queryMedia(ctx, q)
}

// ListCheckedOut returns every item a holder is ticking a due date on.
func (r *repo) ListCheckedOut(ctx context.Context) ([]model.Media, error) {
	const q = `
		SELECT ` + mediaCols + `
		FROM media
		WHERE available = false AND due_date IS NOT NULL
		ORDER BY due_date, id`
	return r.queryMedia(ctx, q)
}

// ListRequests returns checkout requests still awaiting the pickup step.
func (r *repo) ListRequests(ctx context.Context) ([]model.Media, error) {
	const q = `
		SELECT ` + mediaCols + `
		FROM media
		WHERE available = false AND due_date IS NULL
		ORDER BY id`
	return r.queryMedia(ctx, q)
}

func (r *repo) ListOverdue(ctx context.Context, today time.Time) ([]model.Media, error) {
	const q = `
		SELECT ` + mediaCols + `
		FROM media
		WHERE due_date IS NOT NULL AND due_date < $1::date
		ORDER BY due_date, id`
	return r.queryMedia(ctx, q, today)
}

func (r *repo) ListCheckedOutBy(ctx context.Context, userID int64) ([]model.Media, error) {
	const q = `
		SELECT ` + mediaCols + `
		FROM media
		WHERE checked_out_by = $1
		ORDER BY due_date NULLS LAST, id`
	return r.queryMedia(ctx, q, userID)
}

func (r *repo) ListOnHoldBy(ctx context.Context, userID int64) ([]model.Media, error) {
	const q = `
		SELECT m.id, m.title, COALESCE(m.author,''), COALESCE(m.img,''), m.type, m.available, m.checked_out_by, m.due_date, m.renewals
		FROM media m
		JOIN media_holds h ON h.media_id = m.id
		WHERE h.user_id = $1
		ORDER BY h.id`
	return r.queryMedia(ctx, q, userID)
}

func (r *repo) ListHistoryOf(ctx context.Context, userID int64) ([]model.Media, error) {
	const q = `
		SELECT m.id, m.title, COALESCE(m.author,''), COALESCE(m.img,''), m.type, m.available, m.checked_out_by, m.due_date, m.renewals
		FROM media m
		JOIN checkout_history ch ON ch.media_id = m.id
		WHERE ch.user_id = $1
		ORDER BY m.title, m.id`
	return r.queryMedia(ctx, q, userID)
}

func (r *repo) CountCheckedOutBy(ctx context.Context, userID int64) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM media
		WHERE checked_out_by = $1`
	var n int
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&n)
	return n, err
}

// ClaimForCheckout is the authoritative check-and-set: the availability test
// and the holder assignment are one conditional UPDATE, so two racing callers
// cannot both win.
func (r *repo) ClaimForCheckout(ctx context.Context, mediaID, userID int64) (bool, error) {
	const q = `
		UPDATE media
		SET available = false,
			checked_out_by = $2
		WHERE id = $1
		AND available = true`
	res, err := r.db.ExecContext(ctx, q, mediaID, userID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) Release(ctx context.Context, mediaID, holderID int64) (bool, error) {
	const q = `
		UPDATE media
		SET available = true,
			checked_out_by = NULL,
			due_date = NULL,
			renewals = NULL
		WHERE id = $1
		AND checked_out_by = $2`
	res, err := r.db.ExecContext(ctx, q, mediaID, holderID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// SetPickupDue starts the clock on a plain (non-hold) checkout request.
func (r *repo) SetPickupDue(ctx context.Context, mediaID int64, due time.Time) (bool, error) {
	const q = `
		UPDATE media
		SET due_date = $2::date,
			renewals = 0
		WHERE id = $1
		AND checked_out_by IS NOT NULL
		AND due_date IS NULL`
	res, err := r.db.ExecContext(ctx, q, mediaID, due)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// PromoteHold hands the item to the head of the hold queue. Holder, due date
// and the queue pull are applied together; the condition on checked_out_by
// rejects the promotion if someone claimed the item in between.
func (r *repo) PromoteHold(ctx context.Context, mediaID, userID int64, due time.Time) (ok bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upd = `
		UPDATE media
		SET available = false,
			checked_out_by = $2,
			due_date = $3::date,
			renewals = 0
		WHERE id = $1
		AND checked_out_by IS NULL`
	res, err := tx.ExecContext(ctx, upd, mediaID, userID, due)
	if err != nil {
		return false, err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		_ = tx.Rollback()
		return false, nil
	}

	const pull = `
		DELETE FROM media_holds
		WHERE media_id = $1
		AND user_id = $2`
	if _, err = tx.ExecContext(ctx, pull, mediaID, userID); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Renew is conditioned on the previously observed due date and renewal count,
// so a raced second renewal falls out as zero rows.
func (r *repo) Renew(ctx context.Context, mediaID, userID int64, oldDue, newDue time.Time) (bool, error) {
	const q = `
		UPDATE media
		SET due_date = $4::date,
			renewals = 1
		WHERE id = $1
		AND checked_out_by = $2
		AND renewals = 0
		AND due_date = $3::date`
	res, err := r.db.ExecContext(ctx, q, mediaID, userID, oldDue, newDue)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) HoldQueue(ctx context.Context, mediaID int64) ([]int64, error) {
	const q = `
		SELECT user_id
		FROM media_holds
		WHERE media_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repo) AddHold(ctx context.Context, mediaID, userID int64) error {
	const q = `
		INSERT INTO media_holds (media_id, user_id)
		VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, q, mediaID, userID)
	return err
}

func (r *repo) RemoveHold(ctx context.Context, mediaID, userID int64) error {
	const q = `
		DELETE FROM media_holds
		WHERE media_id = $1
		AND user_id = $2`
	_, err := r.db.ExecContext(ctx, q, mediaID, userID)
	return err
}

func (r *repo) HasHoldOrCheckout(ctx context.Context, mediaID, userID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM media WHERE id = $1 AND checked_out_by = $2
		) OR EXISTS (
			SELECT 1 FROM media_holds WHERE media_id = $1 AND user_id = $2
		)`
	var found bool
	err := r.db.QueryRowContext(ctx, q, mediaID, userID).Scan(&found)
	return found, err
}

func (r *repo) AddHistory(ctx context.Context, userID, mediaID int64) error {
	const q = `
		INSERT INTO checkout_history (user_id, media_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, userID, mediaID)
	return err
}

func (r *repo) Create(ctx context.Context, m *model.Media) error {
	const q = `
		INSERT INTO media (title, author, img, type, available)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id`
	m.Available = true
	return r.db.QueryRowContext(ctx, q, m.Title, m.Author, m.Img, m.Type).Scan(&m.ID)
}

func (r *repo) Update(ctx context.Context, id int64, title, author, img, mediaType string) (bool, error) {
	const q = `
		UPDATE media
		SET title = $2, author = $3, img = $4, type = $5
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, title, author, img, mediaType)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// Delete only removes items nobody is holding.
func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `
		DELETE FROM media
		WHERE id = $1
		AND available = true`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// DueReminders lists every holder whose item is due on or before latest,
// joined with the cell number to text.
func (r *repo) DueReminders(ctx context.Context, latest time.Time) ([]ReminderRow, error) {
	const q = `
		SELECT m.id, m.title, m.due_date, u.id, u.first_name, u.cell
		FROM media m
		JOIN users u ON u.id = m.checked_out_by
		WHERE m.due_date IS NOT NULL
		AND m.due_date <= $1::date
		ORDER BY m.due_date, m.id`
	rows, err := r.db.QueryContext(ctx, q, latest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReminderRow
	for rows.Next() {
		var rr ReminderRow
		if err := rows.Scan(&rr.MediaID, &rr.Title, &rr.DueDate, &rr.UserID, &rr.FirstName, &rr.Cell); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
