package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drive-backup-api/pkg/config"
)

type capturedAlert struct {
	subject   string
	body      string
	recipient string
}

type stubNotifier struct {
	delivered chan capturedAlert
}

func (s *stubNotifier) Notify(_ context.Context, subject, body, recipient string) error {
	s.delivered <- capturedAlert{subject: subject, body: body, recipient: recipient}
	return nil
}

func TestAlertServiceDeliversThroughQueue(t *testing.T) {
	notifier := &stubNotifier{delivered: make(chan capturedAlert, 1)}
	alerts := NewAlertService(notifier, config.AlertsConfig{
		Enabled:   true,
		Recipient: "ops@example.com",
		Workers:   1,
	}, nil)

	alerts.Start(context.Background())
	defer alerts.Stop()

	alerts.Alert("pool rotated", "new active pool Legacydrivebackup2")

	select {
	case got := <-notifier.delivered:
		assert.Equal(t, "pool rotated", got.subject)
		assert.Equal(t, "new active pool Legacydrivebackup2", got.body)
		assert.Equal(t, "ops@example.com", got.recipient)
	case <-time.After(2 * time.Second):
		require.Fail(t, "alert was not delivered")
	}
}

func TestAlertServiceDisabledNeverDelivers(t *testing.T) {
	notifier := &stubNotifier{delivered: make(chan capturedAlert, 1)}
	alerts := NewAlertService(notifier, config.AlertsConfig{Enabled: false}, nil)

	alerts.Start(context.Background())
	defer alerts.Stop()

	// Must not panic and must not reach the notifier.
	alerts.Alert("ignored", "alerting disabled")

	select {
	case <-notifier.delivered:
		require.Fail(t, "disabled alert service delivered a notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAlertServiceWithoutNotifierIsNoop(t *testing.T) {
	alerts := NewAlertService(nil, config.AlertsConfig{Enabled: true}, nil)
	alerts.Start(context.Background())
	defer alerts.Stop()

	assert.NotPanics(t, func() {
		alerts.Alert("subject", "body")
	})
}
