package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikmash711/book-corner-server/model"
	mediarepo "github.com/nikmash711/book-corner-server/repository/media"
	nexmorepo "github.com/nikmash711/book-corner-server/repository/nexmo"
	mediasvc "github.com/nikmash711/book-corner-server/service/media"
)

// ReminderSource is the slice of the media repository reminders need.
type ReminderSource interface {
	DueReminders(ctx context.Context, latest time.Time) ([]mediarepo.ReminderRow, error)
}

// UserSource resolves a user id to the account holding the cell number.
type UserSource interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
}

// Service sends SMS side effects. Sends happen after the owning state
// transition has committed; a failed send is logged and never surfaced.
type Service interface {
	// HoldReady texts a user that their hold is waiting for pickup.
	// Returns immediately; delivery happens in the background.
	HoldReady(userID int64, title string)

	// SendDueReminders texts every holder whose item is due tomorrow, due
	// today, or overdue. Sends are staggered so each recipient is delayed a
	// bit more than the previous one, to stay under provider rate limits.
	// Returns the number of successful sends.
	SendDueReminders(ctx context.Context) (int, error)

	// Run dispatches reminders on a fixed interval until ctx is done.
	Run(ctx context.Context, interval time.Duration)
}

type service struct {
	mr      ReminderSource
	ur      UserSource
	sms     nexmorepo.Repo
	from    string
	stagger time.Duration
	log     *slog.Logger
	now     func() time.Time
	sleep   func(time.Duration)
}

func New(mr ReminderSource, ur UserSource, sms nexmorepo.Repo, from string, stagger time.Duration, log *slog.Logger) Service {
	return &service{
		mr:      mr,
		ur:      ur,
		sms:     sms,
		from:    from,
		stagger: stagger,
		log:     log,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

func (s *service) HoldReady(userID int64, title string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		u, err := s.ur.ByID(ctx, userID)
		if err != nil {
			s.log.Error("hold-ready sms: lookup user", "user_id", userID, "err", err)
			return
		}
		body := fmt.Sprintf("Hi %s, %q is off hold and ready for pickup!", u.FirstName, title)
		if err := s.sms.SendSMS(nexmorepo.SendSMSReq{From: s.from, To: u.Cell, Text: body}); err != nil {
			s.log.Error("hold-ready sms: send", "user_id", userID, "err", err)
			return
		}
		s.log.Info("hold-ready sms sent", "user_id", userID, "media", title)
	}()
}

func (s *service) SendDueReminders(ctx context.Context) (int, error) {
	today := s.now()
	tomorrow := today.AddDate(0, 0, 1)

	rows, err := s.mr.DueReminders(ctx, tomorrow)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i, row := range rows {
		if i > 0 {
			// no cancellation mid-batch, only pacing
			s.sleep(s.stagger)
		}
		body := s.reminderText(row, today)
		if err := s.sms.SendSMS(nexmorepo.SendSMSReq{From: s.from, To: row.Cell, Text: body}); err != nil {
			s.log.Error("reminder sms: send", "user_id", row.UserID, "media_id", row.MediaID, "err", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *service) reminderText(row mediarepo.ReminderRow, today time.Time) string {
	days := mediasvc.OverdueDays(row.DueDate, today)
	switch {
	case days > 0:
		return fmt.Sprintf("Hi %s, %q is %d day(s) overdue. You currently owe $%d on it. Please return it soon!",
			row.FirstName, row.Title, days, days*mediasvc.DailyFineDollars)
	case days == 0:
		return fmt.Sprintf("Hi %s, %q is due today. Renew it or return it to avoid late fees.",
			row.FirstName, row.Title)
	default:
		return fmt.Sprintf("Hi %s, %q is due tomorrow.", row.FirstName, row.Title)
	}
}

func (s *service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SendDueReminders(ctx)
			if err != nil {
				s.log.Error("reminder dispatch failed", "err", err)
				continue
			}
			s.log.Info("reminder dispatch done", "sent", n)
		}
	}
}
