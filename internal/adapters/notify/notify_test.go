package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ara/internal/ports/secondary"
)

func sampleNotification() secondary.Notification {
	return secondary.Notification{
		ID:          "9b2e",
		ProjectID:   1,
		ExecutionID: 12,
		JobURL:      "https://ci/job/1/",
		JobStatus:   "DONE",
		Branch:      "develop",
		Name:        "day",
		Release:     "2.0",
		TestDate:    time.Date(2026, 4, 1, 10, 5, 0, 0, time.UTC),
		Counts:      secondary.HandlingCounts{Success: 10, Handled: 2, Unhandled: 1},
		Problems: []secondary.NotifiedProblem{
			{ID: 3, Name: "Payment gateway timeouts", EffectiveStatus: "OPEN", DefectID: "BUG-7"},
		},
	}
}

func TestSMTPNotifier_Send(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  []byte
		gotAuth smtp.Auth
	)
	send := func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, auth, to, msg
		return nil
	}
	n := NewSMTPNotifierWithSender(SMTPConfig{
		Host:       "smtp.example.com",
		Port:       587,
		Username:   "ara",
		Password:   "secret",
		From:       "ara@example.com",
		Recipients: []string{"qa@example.com", "dev@example.com"},
	}, send)

	msg := sampleNotification()
	msg.Subject = "SUBJECT"
	require.NoError(t, n.Send(context.Background(), msg))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, []string{"qa@example.com", "dev@example.com"}, gotTo)
	body := string(gotMsg)
	assert.Contains(t, body, "Subject: SUBJECT\r\n")
	assert.Contains(t, body, "Message-ID: <9b2e@ara>\r\n")
	assert.Contains(t, body, "#3 Payment gateway timeouts [OPEN] defect BUG-7")
	assert.Contains(t, body, "10 succeeded, 2 failed and handled, 1 failed and unhandled")
}

func TestSMTPNotifier_Errors(t *testing.T) {
	boom := errors.New("relay down")
	send := func(string, smtp.Auth, string, []string, []byte) error { return boom }

	n := NewSMTPNotifierWithSender(SMTPConfig{Host: "h", Port: 25}, send)
	assert.Error(t, n.Send(context.Background(), sampleNotification()), "no recipients")

	n = NewSMTPNotifierWithSender(SMTPConfig{Host: "h", Port: 25, Recipients: []string{"qa@example.com"}}, send)
	assert.ErrorIs(t, n.Send(context.Background(), sampleNotification()), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Send(ctx, sampleNotification()), context.Canceled)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.Send(context.Background(), sampleNotification()))
	assert.Contains(t, buf.String(), "quality notification")
	assert.Contains(t, buf.String(), "execution_id=12")
	assert.Contains(t, buf.String(), "unhandled=1")
}
