package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/skpick99/Underwater-Hockey-Punchcards/internal/jobs"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/ledger"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/settings"
	"github.com/skpick99/Underwater-Hockey-Punchcards/jobs"
)

// Mailer queues composed messages for background delivery. Every message
// gets a fresh task ID so retries of the enqueue call never collapse two
// distinct emails into one.
type Mailer struct {
	client *jobs.Client
	logger *slog.Logger
}

// NewMailer wraps a jobs client.
func NewMailer(client *jobs.Client, logger *slog.Logger) *Mailer {
	return &Mailer{client: client, logger: logger}
}

// Send queues one message for the recipient.
func (m *Mailer) Send(ctx context.Context, to string, msg Message) error {
	if to == "" {
		m.logger.Warn("dropping message without recipient", slog.String("subject", msg.Subject))
		return nil
	}
	payload := jobs.SendEmailPayload{
		ID:      uuid.NewString(),
		To:      to,
		Subject: msg.Subject,
		Body:    msg.Body,
	}
	if _, err := m.client.EnqueueSendEmail(ctx, payload, asynq.TaskID(payload.ID)); err != nil {
		return fmt.Errorf("notify: enqueue mail to %s: %w", to, err)
	}
	return nil
}

// SendWithCopies queues the message for the recipient and each cc address.
// The club copies its own notices rather than using SMTP cc headers so a
// bad cc address never blocks the member's email.
func (m *Mailer) SendWithCopies(ctx context.Context, to string, cc []string, msg Message) error {
	if err := m.Send(ctx, to, msg); err != nil {
		return err
	}
	for _, addr := range cc {
		if addr == "" || addr == to {
			continue
		}
		copyMsg := msg
		copyMsg.Subject = "[copy] " + msg.Subject
		if err := m.Send(ctx, addr, copyMsg); err != nil {
			m.logger.Warn("cc copy not queued", slog.String("to", addr), slog.Any("error", err))
		}
	}
	return nil
}

// PurchaseMailer queues the purchase confirmation with the club's cc list.
type PurchaseMailer struct {
	Roster ledger.Roster
	Mailer *Mailer
	Club   settings.Club
}

// PurchaseConfirmed composes and queues the confirmation for one purchase.
func (p *PurchaseMailer) PurchaseConfirmed(ctx context.Context, res ledger.PurchaseResult) error {
	name := p.Roster.ResolveDisplayName(res.Record.OwnerID)
	if name == "" {
		name = res.Record.OwnerName
	}
	msg := Purchase(name, res.FromPastDue, res.PriorCurrent)
	return p.Mailer.SendWithCopies(ctx, p.Roster.ResolveEmail(res.Record.OwnerID), p.Club.CCPurchase, msg)
}

// PastDueSweeper sends the periodic reminder to every player with an open
// past-due record. It runs from the worker's scheduler.
type PastDueSweeper struct {
	Ledger  *ledger.Service
	Roster  ledger.Roster
	Mailer  *Mailer
	Club    settings.Club
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Sweep composes and queues one reminder per past-due record.
func (p *PastDueSweeper) Sweep(ctx context.Context) error {
	records := p.Ledger.PastDueRecords()
	for _, rec := range records {
		email := p.Roster.ResolveEmail(rec.OwnerID)
		if email == "" {
			p.Logger.Warn("past-due player has no email", slog.String("player", rec.OwnerID))
			continue
		}
		name := p.Roster.ResolveDisplayName(rec.OwnerID)
		if name == "" {
			name = rec.OwnerName
		}
		msg := PastDue(name, rec.PlayDates())
		if err := p.Mailer.SendWithCopies(ctx, email, p.Club.CCLateNotice, msg); err != nil {
			return err
		}
	}
	if len(records) > 0 {
		p.Logger.Info("past-due sweep queued notices", slog.Int("count", len(records)))
	}
	return nil
}

// Handle adapts the sweep to the task queue.
func (p *PastDueSweeper) Handle(ctx context.Context, _ *asynq.Task) error {
	return p.Metrics.Track(jobs.TaskTypePastDueNotices).End(p.Sweep(ctx))
}
