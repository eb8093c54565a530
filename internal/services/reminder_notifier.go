// Package services – ReminderNotifier
//
// This file implements the reminder notification job. Each run loads the
// PENDING reminders of a scope, applies the due-date policy and e-mails the
// owners of qualifying reminders. Every reminder is handled in isolation: a
// failed send or a database error is recorded in that reminder's result and
// the run moves on.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/domain"
	"github.com/tbourn/moneywise/internal/mailer"
	"github.com/tbourn/moneywise/internal/observability"
	"github.com/tbourn/moneywise/internal/repo"
)

// Outcome classifies what happened to one reminder during a run.
type Outcome string

const (
	// OutcomeSent means the e-mail was handed off and last_sent_at updated.
	OutcomeSent Outcome = "sent"
	// OutcomeSkipped means the reminder was not due for a notification today.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the mail transport rejected the message.
	OutcomeFailed Outcome = "failed"
	// OutcomeError means rendering or bookkeeping failed.
	OutcomeError Outcome = "error"
)

// ReminderResult is the per-reminder report of a run.
type ReminderResult struct {
	ID           string  `json:"id"`
	Outcome      Outcome `json:"outcome"`
	DaysUntilDue *int    `json:"days_until_due,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Scope selects the reminders of a run. An empty UserID means every user.
type Scope struct {
	UserID string
}

// ReminderNotifier sends reminder e-mails.
type ReminderNotifier struct {
	DB     *gorm.DB
	Mailer mailer.Mailer
	// Location defines calendar days for due-date math.
	Location *time.Location
	// SendTimeout bounds each individual send.
	SendTimeout time.Duration

	now func() time.Time
}

// NewReminderNotifier constructs a ReminderNotifier. A nil loc means UTC.
func NewReminderNotifier(db *gorm.DB, m mailer.Mailer, loc *time.Location) *ReminderNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderNotifier{
		DB:          db,
		Mailer:      m,
		Location:    loc,
		SendTimeout: 30 * time.Second,
		now:         time.Now,
	}
}

// ProcessReminders notifies every due reminder in scope and returns one
// result per candidate. Reminders due more than a week out are not loaded.
// The returned error is non-nil only when the candidates cannot be loaded.
func (n *ReminderNotifier) ProcessReminders(ctx context.Context, scope Scope) ([]ReminderResult, error) {
	ctx, span := otel.Tracer("services/ReminderNotifier").Start(ctx, "ProcessReminders",
		trace.WithAttributes(attribute.String("scope.user_id", scope.UserID)))
	defer span.End()

	now := n.now()
	horizon := civil(now, n.Location).AddDate(0, 0, maxNotifyDays+1)

	reminders, err := repo.ListReminders(ctx, n.DB, scope.UserID, repo.ReminderFilter{
		Status:    domain.ReminderPending,
		DueBefore: horizon,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	users, err := n.recipients(ctx, reminders)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	results := make([]ReminderResult, 0, len(reminders))
	for _, r := range reminders {
		days := DaysUntilDue(r.DueDate, now, n.Location)
		res := ReminderResult{ID: r.ID, DaysUntilDue: &days}

		if !IsNotificationDue(r, now, n.Location) {
			res.Outcome = OutcomeSkipped
		} else {
			res = n.deliver(ctx, r, users[r.UserID], &days)
		}
		observability.ReminderOutcomes.WithLabelValues(string(res.Outcome)).Inc()
		results = append(results, res)
	}

	span.SetAttributes(attribute.Int("reminders.count", len(results)))
	return results, nil
}

// SendNow notifies one reminder immediately, ignoring the threshold and
// same-day checks. The reminder must belong to userID and be PENDING.
func (n *ReminderNotifier) SendNow(ctx context.Context, userID, id string) (*ReminderResult, error) {
	ctx, span := otel.Tracer("services/ReminderNotifier").Start(ctx, "SendNow",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("reminder.id", id)))
	defer span.End()

	r, err := repo.GetReminder(ctx, n.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.Status == domain.ReminderPaid {
		return nil, ErrReminderPaid
	}

	users, err := n.recipients(ctx, []domain.Reminder{*r})
	if err != nil {
		return nil, err
	}
	var daysPtr *int
	if days := DaysUntilDue(r.DueDate, n.now(), n.Location); days >= 0 {
		daysPtr = &days
	}
	res := n.deliver(ctx, *r, users[r.UserID], daysPtr)
	observability.ReminderOutcomes.WithLabelValues(string(res.Outcome)).Inc()
	return &res, nil
}

// Run processes every user's reminders once per interval until ctx is done.
func (n *ReminderNotifier) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	lg := log.With().Str("component", "reminders").Logger()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			results, err := n.ProcessReminders(lg.WithContext(ctx), Scope{})
			if err != nil {
				lg.Error().Err(err).Msg("reminder run failed")
				continue
			}
			logSummary(&lg, results)
		}
	}
}

func logSummary(lg *zerolog.Logger, results []ReminderResult) {
	counts := map[Outcome]int{}
	for _, r := range results {
		counts[r.Outcome]++
	}
	lg.Info().
		Int("total", len(results)).
		Int("sent", counts[OutcomeSent]).
		Int("skipped", counts[OutcomeSkipped]).
		Int("failed", counts[OutcomeFailed]).
		Int("error", counts[OutcomeError]).
		Msg("reminder run finished")
}

func (n *ReminderNotifier) recipients(ctx context.Context, rs []domain.Reminder) (map[string]domain.User, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}
	return repo.GetUsersByIDs(ctx, n.DB, ids)
}

// deliver renders and sends one reminder and stamps last_sent_at on success.
func (n *ReminderNotifier) deliver(ctx context.Context, r domain.Reminder, u domain.User, days *int) ReminderResult {
	res := ReminderResult{ID: r.ID, DaysUntilDue: days}
	lg := log.Ctx(ctx).With().Str("reminder_id", r.ID).Str("user_id", r.UserID).Logger()

	subject, html, err := mailer.RenderReminder(mailer.ReminderData{
		Name:         u.Name,
		Title:        r.Title,
		Amount:       r.Amount,
		Category:     r.Category,
		DueDate:      r.DueDate,
		DaysUntilDue: days,
	})
	if err != nil {
		lg.Error().Err(err).Msg("render reminder e-mail")
		res.Outcome, res.Error = OutcomeError, err.Error()
		return res
	}

	sent := mailer.Failed(mailer.ErrNoRecipient)
	if u.Email != "" {
		sendCtx, cancel := context.WithTimeout(ctx, n.SendTimeout)
		sent = n.Mailer.Send(sendCtx, mailer.Message{To: u.Email, Subject: subject, HTML: html})
		cancel()
	}
	if !sent.OK() {
		lg.Warn().Err(sent.Err).Msg("reminder e-mail not sent")
		res.Outcome = OutcomeFailed
		if sent.Err != nil {
			res.Error = sent.Err.Error()
		}
		return res
	}

	if err := repo.MarkReminderSent(ctx, n.DB, r.ID, n.now().UTC()); err != nil {
		lg.Error().Err(err).Msg("record reminder send")
		res.Outcome, res.Error = OutcomeError, err.Error()
		return res
	}
	res.Outcome = OutcomeSent
	return res
}
