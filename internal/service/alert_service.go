package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/drive-backup-api/pkg/config"
	"github.com/noah-isme/drive-backup-api/pkg/jobs"
)

// Notifier delivers one alert to an external channel.
type Notifier interface {
	Notify(ctx context.Context, subject, body, recipient string) error
}

type alertPayload struct {
	Subject string
	Body    string
}

// AlertService queues fire-and-forget alerts. Delivery failures are retried
// a few times by the queue and then dropped; they never fail a cycle.
type AlertService struct {
	queue     *jobs.Queue
	recipient string
	enabled   bool
	logger    *zap.Logger
}

// NewAlertService constructs the alert dispatcher.
func NewAlertService(notifier Notifier, cfg config.AlertsConfig, logger *zap.Logger) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AlertService{
		recipient: cfg.Recipient,
		enabled:   cfg.Enabled && notifier != nil,
		logger:    logger,
	}
	if s.enabled {
		s.queue = jobs.NewQueue("alerts", s.deliver(notifier), jobs.QueueConfig{
			Workers: cfg.Workers,
			Logger:  logger,
		})
	}
	return s
}

// Start launches the delivery workers.
func (s *AlertService) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Stop drains the delivery workers.
func (s *AlertService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// Alert enqueues one notification. Never returns an error: alerting is
// best-effort by contract.
func (s *AlertService) Alert(subject, body string) {
	s.logger.Warn("alert raised", zap.String("subject", subject), zap.String("body", body))
	if !s.enabled || s.queue == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "alert",
		Payload: alertPayload{Subject: subject, Body: body},
	})
	if err != nil {
		s.logger.Warn("alert enqueue failed", zap.String("subject", subject), zap.Error(err))
	}
}

func (s *AlertService) deliver(notifier Notifier) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(alertPayload)
		if !ok {
			return fmt.Errorf("unexpected alert payload %T", job.Payload)
		}
		return notifier.Notify(ctx, payload.Subject, payload.Body, s.recipient)
	}
}
