package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/example/ara/internal/core/indexing"
	"github.com/example/ara/internal/ports/secondary"
	"github.com/example/ara/internal/version"
)

// SMTPConfig configures the mail relay.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier mails notifications as plain text.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send SendFunc
}

// NewSMTPNotifier creates a notifier sending through smtp.SendMail.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return NewSMTPNotifierWithSender(cfg, smtp.SendMail)
}

// NewSMTPNotifierWithSender creates a notifier with a custom transport.
func NewSMTPNotifierWithSender(cfg SMTPConfig, send SendFunc) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: send}
}

// Send mails msg to the configured recipients.
// net/smtp has no context support, so ctx is only checked before dialing.
func (n *SMTPNotifier) Send(ctx context.Context, msg secondary.Notification) error {
	if len(n.cfg.Recipients) == 0 {
		return errors.New("no notification recipient configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	if err := n.send(addr, auth, n.cfg.From, n.cfg.Recipients, n.compose(msg)); err != nil {
		return fmt.Errorf("failed to send notification %s: %w", msg.ID, err)
	}
	return nil
}

func (n *SMTPNotifier) compose(msg secondary.Notification) []byte {
	var b strings.Builder
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("From", n.cfg.From)
	header("To", strings.Join(n.cfg.Recipients, ", "))
	header("Subject", msg.Subject)
	header("Message-ID", "<"+msg.ID+"@ara>")
	header("X-Mailer", "ara "+version.Short())
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "Execution %d (%s)\r\n", msg.ExecutionID, msg.JobURL)
	fmt.Fprintf(&b, "Branch %s, release %s, tested on %s\r\n", msg.Branch, msg.Release, indexing.FormatDate(msg.TestDate))
	fmt.Fprintf(&b, "Scenarios: %d succeeded, %d failed and handled, %d failed and unhandled\r\n",
		msg.Counts.Success, msg.Counts.Handled, msg.Counts.Unhandled)

	if len(msg.Problems) > 0 {
		b.WriteString("\r\nProblems:\r\n")
		for _, p := range msg.Problems {
			line := fmt.Sprintf("  #%d %s [%s]", p.ID, p.Name, p.EffectiveStatus)
			if p.DefectID != "" {
				line += " defect " + p.DefectID
			}
			b.WriteString(line + "\r\n")
		}
	}
	return []byte(b.String())
}

var _ secondary.Notifier = (*SMTPNotifier)(nil)
