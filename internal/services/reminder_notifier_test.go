package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/domain"
	"github.com/tbourn/moneywise/internal/mailer"
	"github.com/tbourn/moneywise/internal/repo"
)

type fakeMailer struct {
	mu      sync.Mutex
	sent    []mailer.Message
	failFor map[string]bool // recipient -> fail
}

func (f *fakeMailer) Send(_ context.Context, m mailer.Message) mailer.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[m.To] {
		return mailer.Failed(errors.New("smtp 550"))
	}
	f.sent = append(f.sent, m)
	return mailer.Sent()
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestNotifier(t *testing.T, db *gorm.DB, m mailer.Mailer, now time.Time) *ReminderNotifier {
	t.Helper()
	n := NewReminderNotifier(db, m, time.UTC)
	n.now = func() time.Time { return now }
	return n
}

func seedReminder(t *testing.T, db *gorm.DB, id, userID string, due time.Time, status domain.ReminderStatus) {
	t.Helper()
	r := &domain.Reminder{ID: id, UserID: userID, Title: "Bill " + id, Amount: decimal.NewFromInt(10), DueDate: due, Category: "Bills", Status: status}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed reminder %s: %v", id, err)
	}
}

func seedUser(t *testing.T, db *gorm.DB, id, email string) {
	t.Helper()
	if err := repo.UpsertUser(context.Background(), db, id, email, "User "+id); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func resultsByID(rs []ReminderResult) map[string]ReminderResult {
	out := make(map[string]ReminderResult, len(rs))
	for _, r := range rs {
		out[r.ID] = r
	}
	return out
}

func TestProcessReminders_DueTodaySentOnceADay(t *testing.T) {
	db := newServiceDB(t)
	seedUser(t, db, "u1", "u1@example.com")
	seedReminder(t, db, "r1", "u1", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), domain.ReminderPending)

	m := &fakeMailer{}
	n := newTestNotifier(t, db, m, today)

	res, err := n.ProcessReminders(context.Background(), Scope{})
	if err != nil {
		t.Fatalf("ProcessReminders: %v", err)
	}
	if len(res) != 1 || res[0].Outcome != OutcomeSent || *res[0].DaysUntilDue != 0 {
		t.Fatalf("first run = %+v", res)
	}
	if m.count() != 1 || m.sent[0].To != "u1@example.com" {
		t.Fatalf("mails = %+v", m.sent)
	}

	r, _ := repo.GetReminder(context.Background(), db, "r1", "u1")
	if r.LastSentAt == nil || !r.LastSentAt.Equal(today) {
		t.Fatalf("last_sent_at = %v; want %v", r.LastSentAt, today)
	}

	n.now = func() time.Time { return today.Add(3 * time.Hour) }
	res, _ = n.ProcessReminders(context.Background(), Scope{})
	if len(res) != 1 || res[0].Outcome != OutcomeSkipped {
		t.Fatalf("second run same day = %+v; want skipped", res)
	}
	if m.count() != 1 {
		t.Fatalf("second run must not send, mails=%d", m.count())
	}
}

func TestProcessReminders_ThresholdsAndIsolation(t *testing.T) {
	db := newServiceDB(t)
	seedUser(t, db, "u1", "u1@example.com")
	seedUser(t, db, "u2", "bounce@example.com")
	base := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	seedReminder(t, db, "in1", "u1", base.AddDate(0, 0, 1), domain.ReminderPending)
	seedReminder(t, db, "in2", "u1", base.AddDate(0, 0, 2), domain.ReminderPending)
	seedReminder(t, db, "in3", "u1", base.AddDate(0, 0, 3), domain.ReminderPending)
	seedReminder(t, db, "in7", "u2", base.AddDate(0, 0, 7), domain.ReminderPending)
	seedReminder(t, db, "paid", "u1", base, domain.ReminderPaid)
	seedReminder(t, db, "far", "u1", base.AddDate(0, 0, 30), domain.ReminderPending)
	seedReminder(t, db, "nouser", "ghost", base, domain.ReminderPending)

	m := &fakeMailer{failFor: map[string]bool{"bounce@example.com": true}}
	n := newTestNotifier(t, db, m, today)

	res, err := n.ProcessReminders(context.Background(), Scope{})
	if err != nil {
		t.Fatalf("ProcessReminders: %v", err)
	}
	by := resultsByID(res)
	want := map[string]Outcome{
		"in1":    OutcomeSent,
		"in2":    OutcomeSkipped,
		"in3":    OutcomeSent,
		"in7":    OutcomeFailed,
		"nouser": OutcomeFailed,
	}
	if len(by) != len(want) {
		t.Fatalf("results = %+v; want %d entries", res, len(want))
	}
	for id, o := range want {
		if by[id].Outcome != o {
			t.Fatalf("%s outcome = %q; want %q (all=%+v)", id, by[id].Outcome, o, res)
		}
	}
	if by["in7"].Error == "" {
		t.Fatalf("failed result should carry the transport error")
	}

	r, _ := repo.GetReminder(context.Background(), db, "in7", "u2")
	if r.LastSentAt != nil {
		t.Fatalf("failed send must not stamp last_sent_at")
	}
}

func TestProcessReminders_UserScope(t *testing.T) {
	db := newServiceDB(t)
	seedUser(t, db, "u1", "u1@example.com")
	seedUser(t, db, "u2", "u2@example.com")
	base := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	seedReminder(t, db, "a", "u1", base, domain.ReminderPending)
	seedReminder(t, db, "b", "u2", base, domain.ReminderPending)

	m := &fakeMailer{}
	res, err := newTestNotifier(t, db, m, today).ProcessReminders(context.Background(), Scope{UserID: "u2"})
	if err != nil || len(res) != 1 || res[0].ID != "b" || res[0].Outcome != OutcomeSent {
		t.Fatalf("user scope = %+v, %v", res, err)
	}
}

func TestSendNow(t *testing.T) {
	db := newServiceDB(t)
	seedUser(t, db, "u1", "u1@example.com")
	base := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	seedReminder(t, db, "r2", "u1", base.AddDate(0, 0, 2), domain.ReminderPending)
	seedReminder(t, db, "paid", "u1", base, domain.ReminderPaid)

	m := &fakeMailer{}
	n := newTestNotifier(t, db, m, today)
	ctx := context.Background()

	// Not a threshold day, still sent.
	res, err := n.SendNow(ctx, "u1", "r2")
	if err != nil || res.Outcome != OutcomeSent {
		t.Fatalf("SendNow = %+v, %v", res, err)
	}
	// Same day again: manual trigger ignores the dedup check.
	res, err = n.SendNow(ctx, "u1", "r2")
	if err != nil || res.Outcome != OutcomeSent || m.count() != 2 {
		t.Fatalf("second SendNow = %+v, %v, mails=%d", res, err, m.count())
	}

	if _, err := n.SendNow(ctx, "u2", "r2"); !errors.Is(err, ErrReminderNotFound) {
		t.Fatalf("foreign SendNow err = %v; want ErrReminderNotFound", err)
	}
	if _, err := n.SendNow(ctx, "u1", "paid"); !errors.Is(err, ErrReminderPaid) {
		t.Fatalf("paid SendNow err = %v; want ErrReminderPaid", err)
	}
}

func TestProcessReminders_LoadError(t *testing.T) {
	db := newServiceDB(t)
	if err := db.Migrator().DropTable(&domain.Reminder{}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := newTestNotifier(t, db, &fakeMailer{}, today).ProcessReminders(context.Background(), Scope{}); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	db := newServiceDB(t)
	seedUser(t, db, "u1", "u1@example.com")
	seedReminder(t, db, "r", "u1", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), domain.ReminderPending)
	m := &fakeMailer{}
	n := newTestNotifier(t, db, m, today)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx, 10*time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for m.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("Run never processed reminders")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
	if m.count() != 1 {
		t.Fatalf("later ticks on the same day must not resend, mails=%d", m.count())
	}
}

func TestRun_ZeroIntervalDisabled(t *testing.T) {
	n := NewReminderNotifier(nil, &fakeMailer{}, nil)
	if err := n.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run(0) = %v", err)
	}
	if n.Location != time.UTC {
		t.Fatalf("nil location should default to UTC")
	}
}
