package mediasvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	mediarepo "github.com/nikmash711/book-corner-server/repository/media"

	"github.com/nikmash711/book-corner-server/model"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrConflict      ErrCode = "CONFLICT"
	ErrLimitExceeded ErrCode = "LIMIT_EXCEEDED"
	ErrRenewalLimit  ErrCode = "RENEWAL_LIMIT"
	ErrNotHolder     ErrCode = "NOT_HOLDER"
	ErrNotCheckedOut ErrCode = "NOT_CHECKED_OUT"
	ErrOverdue       ErrCode = "OVERDUE"
	ErrInvalidHold   ErrCode = "INVALID_HOLD"
	ErrDuplicateHold ErrCode = "DUPLICATE_HOLD"
	ErrEmptyQueue    ErrCode = "EMPTY_QUEUE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// LoanPeriodDays is how long one pickup (or one renewal) lasts.
const LoanPeriodDays = 14

// Notifier delivers the hold-ready text after a promotion commits.
// Implementations must not block the caller.
type Notifier interface {
	HoldReady(userID int64, title string)
}

type Service interface {
	// Catalog queries
	List(ctx context.Context) ([]model.Media, error)
	Detail(ctx context.Context, mediaID int64) (*model.Media, error)
	AllCheckedOut(ctx context.Context) ([]model.Media, error)
	AllRequests(ctx context.Context) ([]model.Media, error)
	AllOverdue(ctx context.Context) ([]model.Media, error)

	// Per-user queries
	MyCheckedOut(ctx context.Context, userID int64) ([]model.Media, error)
	MyHolds(ctx context.Context, userID int64) ([]model.Media, error)
	MyHistory(ctx context.Context, userID int64) ([]model.Media, error)
	// MyOverdue also returns the dollar balance derived from the due dates.
	MyOverdue(ctx context.Context, userID int64) ([]model.Media, int, error)

	// Lifecycle transitions
	Checkout(ctx context.Context, mediaID, userID int64) (*model.Media, error)
	Return(ctx context.Context, mediaID, userID int64) (*model.Media, error)
	AssignPickup(ctx context.Context, mediaID int64) (*model.Media, error)
	Renew(ctx context.Context, mediaID, userID int64) (*model.Media, error)
	PlaceHold(ctx context.Context, mediaID, userID int64) (*model.Media, error)
	CancelHold(ctx context.Context, mediaID, userID int64) (*model.Media, error)

	// Admin catalog management
	Create(ctx context.Context, req model.CreateMediaReq) (*model.Media, error)
	Update(ctx context.Context, mediaID int64, req model.UpdateMediaReq) (*model.Media, error)
	Delete(ctx context.Context, mediaID int64) error
}

// ----- Service implementation -----

type service struct {
	r     mediarepo.Repo
	n     Notifier
	grace int // days past due before a renewal is refused
	now   func() time.Time
}

func New(r mediarepo.Repo, n Notifier, renewalGraceDays int) Service {
	return &service{r: r, n: n, grace: renewalGraceDays, now: time.Now}
}

func (s *service) byID(ctx context.Context, mediaID int64) (*model.Media, error) {
	m, err := s.r.ByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

func (s *service) List(ctx context.Context) ([]model.Media, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, mediaID int64) (*model.Media, error) {
	return s.byID(ctx, mediaID)
}

func (s *service) AllCheckedOut(ctx context.Context) ([]model.Media, error) {
	return s.r.ListCheckedOut(ctx)
}

func (s *service) AllRequests(ctx context.Context) ([]model.Media, error) {
	return s.r.ListRequests(ctx)
}

func (s *service) AllOverdue(ctx context.Context) ([]model.Media, error) {
	return s.r.ListOverdue(ctx, s.now())
}

func (s *service) MyCheckedOut(ctx context.Context, userID int64) ([]model.Media, error) {
	return s.r.ListCheckedOutBy(ctx, userID)
}

func (s *service) MyHolds(ctx context.Context, userID int64) ([]model.Media, error) {
	return s.r.ListOnHoldBy(ctx, userID)
}

func (s *service) MyHistory(ctx context.Context, userID int64) ([]model.Media, error) {
	return s.r.ListHistoryOf(ctx, userID)
}

func (s *service) MyOverdue(ctx context.Context, userID int64) ([]model.Media, int, error) {
	out, err := s.r.ListCheckedOutBy(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	today := s.now()
	var overdue []model.Media
	for _, m := range out {
		if m.DueDate != nil && OverdueDays(*m.DueDate, today) > 0 {
			overdue = append(overdue, m)
		}
	}
	return overdue, Balance(overdue, today), nil
}

// Checkout claims an available item for userID. The availability test and the
// holder assignment are one conditional update, so when two users race for the
// last copy exactly one wins and the other sees CONFLICT.
func (s *service) Checkout(ctx context.Context, mediaID, userID int64) (*model.Media, error) {
	if _, err := s.byID(ctx, mediaID); err != nil {
		return nil, err
	}

	count, err := s.r.CountCheckedOutBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !CanCheckout(count) {
		return nil, makeErr(ErrLimitExceeded)
	}

	ok, err := s.r.ClaimForCheckout(ctx, mediaID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrConflict)
	}
	return s.byID(ctx, mediaID)
}

// Return puts the item back on the shelf and records it in the holder's
// history. The history insert is a set-insert and safe to retry, so the two
// writes are deliberately not one transaction.
func (s *service) Return(ctx context.Context, mediaID, userID int64) (*model.Media, error) {
	m, err := s.byID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if m.Available || m.CheckedOutBy == nil {
		return nil, makeErr(ErrNotCheckedOut)
	}
	holder := *m.CheckedOutBy

	ok, err := s.r.Release(ctx, mediaID, holder)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrConflict)
	}
	if err := s.r.AddHistory(ctx, holder, mediaID); err != nil {
		return nil, err
	}
	return s.byID(ctx, mediaID)
}

// AssignPickup starts the due-date clock. With a pending checkout request it
// stamps the due date for the current holder; with a non-empty hold queue it
// promotes the head of the queue instead.
func (s *service) AssignPickup(ctx context.Context, mediaID int64) (*model.Media, error) {
	m, err := s.byID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	due := s.dueDateFromNow()

	switch {
	case m.CheckedOutBy != nil && m.DueDate == nil:
		ok, err := s.r.SetPickupDue(ctx, mediaID, due)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, makeErr(ErrConflict)
		}

	case m.CheckedOutBy == nil && len(m.HoldQueue) > 0:
		next, err := Head(m.HoldQueue)
		if err != nil {
			return nil, err
		}
		ok, err := s.r.PromoteHold(ctx, mediaID, next, due)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, makeErr(ErrConflict)
		}
		if s.n != nil {
			s.n.HoldReady(next, m.Title)
		}

	case m.CheckedOutBy != nil:
		// due date already assigned
		return nil, makeErr(ErrConflict)

	default:
		return nil, makeErr(ErrNotCheckedOut)
	}
	return s.byID(ctx, mediaID)
}

// Renew extends the due date once, by 14 days from the current due date.
func (s *service) Renew(ctx context.Context, mediaID, userID int64) (*model.Media, error) {
	m, err := s.byID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if m.Available || m.DueDate == nil {
		return nil, makeErr(ErrNotCheckedOut)
	}
	if m.Renewals != nil && *m.Renewals >= 1 {
		return nil, makeErr(ErrRenewalLimit)
	}
	if m.CheckedOutBy == nil || *m.CheckedOutBy != userID {
		return nil, makeErr(ErrNotHolder)
	}
	if OverdueDays(*m.DueDate, s.now()) > s.grace {
		return nil, makeErr(ErrOverdue)
	}

	newDue := m.DueDate.AddDate(0, 0, LoanPeriodDays)
	ok, err := s.r.Renew(ctx, mediaID, userID, *m.DueDate, newDue)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrConflict)
	}
	return s.byID(ctx, mediaID)
}

func (s *service) PlaceHold(ctx context.Context, mediaID, userID int64) (*model.Media, error) {
	m, err := s.byID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	related, err := s.r.HasHoldOrCheckout(ctx, mediaID, userID)
	if err != nil {
		return nil, err
	}
	if allowed, reason := CanPlaceHold(m.Available, related); !allowed {
		return nil, makeErr(reason)
	}
	if err := s.r.AddHold(ctx, mediaID, userID); err != nil {
		if isUniqueViolation(err) {
			return nil, makeErr(ErrDuplicateHold)
		}
		return nil, err
	}
	return s.byID(ctx, mediaID)
}

// CancelHold is an unconditional removal; cancelling a hold that does not
// exist is a no-op.
func (s *service) CancelHold(ctx context.Context, mediaID, userID int64) (*model.Media, error) {
	if _, err := s.byID(ctx, mediaID); err != nil {
		return nil, err
	}
	if err := s.r.RemoveHold(ctx, mediaID, userID); err != nil {
		return nil, err
	}
	return s.byID(ctx, mediaID)
}

func (s *service) Create(ctx context.Context, req model.CreateMediaReq) (*model.Media, error) {
	m := &model.Media{
		Title:  req.Title,
		Author: req.Author,
		Img:    req.Img,
		Type:   req.Type,
	}
	if err := s.r.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) Update(ctx context.Context, mediaID int64, req model.UpdateMediaReq) (*model.Media, error) {
	ok, err := s.r.Update(ctx, mediaID, req.Title, req.Author, req.Img, req.Type)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrNotFound)
	}
	return s.byID(ctx, mediaID)
}

// Delete refuses while the item is checked out.
func (s *service) Delete(ctx context.Context, mediaID int64) error {
	if _, err := s.byID(ctx, mediaID); err != nil {
		return err
	}
	ok, err := s.r.Delete(ctx, mediaID)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrConflict)
	}
	return nil
}

func (s *service) dueDateFromNow() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, LoanPeriodDays)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
