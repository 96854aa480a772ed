package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/skpick99/Underwater-Hockey-Punchcards/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypePastDueNotices triggers the past-due reminder sweep.
	TaskTypePastDueNotices = "pastdue:notices"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	ID      string `json:"id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewPastDueNoticesTask constructs the sweep task. The payload is empty;
// the handler reads the live ledger when it runs.
func NewPastDueNoticesTask() *asynq.Task {
	return asynq.NewTask(TaskTypePastDueNotices, nil)
}

// SMTPSender delivers mail:send tasks over SMTP. With no host configured
// it logs the message and reports success, which is what dry runs and
// test setups want.
type SMTPSender struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle processes one mail:send task.
func (s *SMTPSender) Handle(ctx context.Context, t *asynq.Task) error {
	return s.Metrics.Track(TaskTypeSendEmail).End(s.deliver(ctx, t))
}

func (s *SMTPSender) deliver(_ context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		s.Logger.Warn("mail task without recipient", slog.String("id", payload.ID))
		return asynq.SkipRetry
	}
	if s.Host == "" {
		s.Logger.Info("mail delivery skipped, no SMTP host configured",
			slog.String("id", payload.ID),
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject))
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.From, payload.To, payload.Subject, payload.Body)
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	if err := smtp.SendMail(addr, auth, s.From, []string{payload.To}, []byte(msg)); err != nil {
		return fmt.Errorf("jobs: send mail %s: %w", payload.ID, err)
	}
	s.Logger.Info("mail sent", slog.String("id", payload.ID), slog.String("to", payload.To))
	return nil
}
