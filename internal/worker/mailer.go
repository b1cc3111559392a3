package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/internal/models"
	"github.com/VenkaSri/booking-backend/internal/notifications"
	"github.com/VenkaSri/booking-backend/pkg/queue"
)

// Mailer processes queued email jobs: deliver via SMTP, update the email log.
type Mailer struct {
	emailRepo *notifications.Repository
	sender    notifications.Sender
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewMailer creates an email delivery processor.
func NewMailer(emailRepo *notifications.Repository, sender notifications.Sender, q *queue.Queue, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{emailRepo: emailRepo, sender: sender, queue: q, logger: logger}
}

// Process executes one email job.
func (m *Mailer) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	el, err := m.emailRepo.GetByID(ctx, payload.EmailLogID)
	if err != nil || el == nil {
		return fmt.Errorf("email log not found: %s", payload.EmailLogID)
	}
	if el.Status == models.EmailLogStatusSent {
		m.logger.Info("email already sent", zap.String("email_log_id", el.ID.String()))
		return nil
	}

	if err := m.sender.Send(payload.RecipientEmail, payload.Subject, payload.Body); err != nil {
		if markErr := m.emailRepo.MarkFailed(ctx, el.ID, err.Error()); markErr != nil {
			m.logger.Error("mark email failed", zap.Error(markErr), zap.String("email_log_id", el.ID.String()))
		}
		return fmt.Errorf("send: %w", err)
	}

	if err := m.emailRepo.MarkSent(ctx, el.ID); err != nil {
		m.logger.Error("mark email sent failed", zap.Error(err), zap.String("email_log_id", el.ID.String()))
		return fmt.Errorf("update db: %w", err)
	}

	m.logger.Info("email delivered", zap.String("email_log_id", el.ID.String()), zap.String("type", payload.EmailType))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (m *Mailer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("mailer worker stopping")
			return
		default:
		}

		job, err := m.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		m.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := m.Process(ctx, job); err != nil {
			m.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := m.queue.Retry(ctx, job); reErr != nil {
				m.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
