package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikmash711/book-corner-server/model"
	mediarepo "github.com/nikmash711/book-corner-server/repository/media"
	nexmorepo "github.com/nikmash711/book-corner-server/repository/nexmo"
)

type fakeReminders struct {
	rows []mediarepo.ReminderRow
	err  error
}

func (f *fakeReminders) DueReminders(_ context.Context, _ time.Time) ([]mediarepo.ReminderRow, error) {
	return f.rows, f.err
}

type fakeUsers struct {
	users map[int64]*model.User
}

func (f *fakeUsers) ByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("no such user")
	}
	return u, nil
}

type smsSpy struct {
	mu   sync.Mutex
	sent []nexmorepo.SendSMSReq
	fail map[string]bool // numbers whose sends should error
	done chan struct{}   // closed once len(sent) reaches want
	want int
}

func (s *smsSpy) SendSMS(req nexmorepo.SendSMSReq) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[req.To] {
		return errors.New("provider rejected")
	}
	s.sent = append(s.sent, req)
	if s.done != nil && len(s.sent) == s.want {
		close(s.done)
		s.done = nil
	}
	return nil
}

var testToday = time.Date(2020, 3, 13, 9, 0, 0, 0, time.UTC)

func newTestService(mr ReminderSource, ur UserSource, sms nexmorepo.Repo, sleep func(time.Duration)) *service {
	return &service{
		mr:      mr,
		ur:      ur,
		sms:     sms,
		from:    "12025550100",
		stagger: 250 * time.Millisecond,
		log:     slog.New(slog.NewTextHandler(&strings.Builder{}, nil)),
		now:     func() time.Time { return testToday },
		sleep:   sleep,
	}
}

func row(userID int64, cell, name, title string, due time.Time) mediarepo.ReminderRow {
	return mediarepo.ReminderRow{MediaID: userID, Title: title, DueDate: due, UserID: userID, FirstName: name, Cell: cell}
}

func TestSendDueReminders_StaggersAndCounts(t *testing.T) {
	rows := []mediarepo.ReminderRow{
		row(1, "15550001", "Ada", "Sapiens", testToday.AddDate(0, 0, -3)), // overdue
		row(2, "15550002", "Grace", "Dune", testToday),                    // due today
		row(3, "15550003", "Joan", "Emma", testToday.AddDate(0, 0, 1)),    // due tomorrow
	}
	spy := &smsSpy{}
	var slept []time.Duration
	s := newTestService(&fakeReminders{rows: rows}, nil, spy, func(d time.Duration) { slept = append(slept, d) })

	n, err := s.SendDueReminders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Len(t, spy.sent, 3)

	// one pause between each pair of sends, none before the first
	require.Equal(t, []time.Duration{s.stagger, s.stagger}, slept)

	require.Contains(t, spy.sent[0].Text, "3 day(s) overdue")
	require.Contains(t, spy.sent[0].Text, "$3")
	require.Contains(t, spy.sent[1].Text, "due today")
	require.Contains(t, spy.sent[2].Text, "due tomorrow")
	for _, msg := range spy.sent {
		require.Equal(t, "12025550100", msg.From)
	}
}

func TestSendDueReminders_FailedSendSkipsAndContinues(t *testing.T) {
	rows := []mediarepo.ReminderRow{
		row(1, "15550001", "Ada", "Sapiens", testToday),
		row(2, "15550002", "Grace", "Dune", testToday),
		row(3, "15550003", "Joan", "Emma", testToday),
	}
	spy := &smsSpy{fail: map[string]bool{"15550002": true}}
	s := newTestService(&fakeReminders{rows: rows}, nil, spy, func(time.Duration) {})

	n, err := s.SendDueReminders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, spy.sent, 2)
	require.Equal(t, "15550001", spy.sent[0].To)
	require.Equal(t, "15550003", spy.sent[1].To)
}

func TestSendDueReminders_QueryError(t *testing.T) {
	s := newTestService(&fakeReminders{err: errors.New("db gone")}, nil, &smsSpy{}, func(time.Duration) {})

	_, err := s.SendDueReminders(context.Background())
	require.Error(t, err)
}

func TestSendDueReminders_Empty(t *testing.T) {
	var slept []time.Duration
	s := newTestService(&fakeReminders{}, nil, &smsSpy{}, func(d time.Duration) { slept = append(slept, d) })

	n, err := s.SendDueReminders(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, slept)
}

func TestHoldReady_SendsInBackground(t *testing.T) {
	users := &fakeUsers{users: map[int64]*model.User{
		7: {ID: 7, FirstName: "Ada", Cell: "15550001"},
	}}
	spy := &smsSpy{done: make(chan struct{}), want: 1}
	done := spy.done
	s := newTestService(&fakeReminders{}, users, spy, func(time.Duration) {})

	s.HoldReady(7, "Sapiens")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hold-ready sms never sent")
	}

	spy.mu.Lock()
	defer spy.mu.Unlock()
	require.Len(t, spy.sent, 1)
	require.Equal(t, "15550001", spy.sent[0].To)
	require.Contains(t, spy.sent[0].Text, "Sapiens")
	require.Contains(t, spy.sent[0].Text, "ready for pickup")
}

func TestHoldReady_UnknownUserIsDropped(t *testing.T) {
	spy := &smsSpy{}
	s := newTestService(&fakeReminders{}, &fakeUsers{}, spy, func(time.Duration) {})

	s.HoldReady(99, "Sapiens")
	time.Sleep(50 * time.Millisecond)

	spy.mu.Lock()
	defer spy.mu.Unlock()
	require.Empty(t, spy.sent)
}
