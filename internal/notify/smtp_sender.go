package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/zenith-events/zenith/internal/domain"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

type SMTPSender struct {
	lg zerolog.Logger

	host     string
	port     int
	user     string
	pass     string
	from     string
	insecure bool
	timeout  time.Duration
}

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		lg:       lg.With().Str("component", "smtp_sender").Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.Username,
		pass:     cfg.Password,
		from:     cfg.From,
		insecure: cfg.Insecure,
		timeout:  cfg.Timeout,
	}
}

func (s *SMTPSender) SendApproval(ctx context.Context, n domain.ApprovalNotice, walletURL string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	subject := fmt.Sprintf("You're in: %s", n.Event.Title)
	text := approvalText(n, walletURL)
	htmlBody := approvalHTML(n, walletURL)

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return domain.ErrValidation("invalid from address: " + err.Error())
	}
	if err := m.To(n.AttendeeEmail); err != nil {
		return domain.ErrValidation("invalid to address: " + err.Error())
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, text)
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	tlsPolicy := mail.TLSMandatory
	if s.insecure {
		tlsPolicy = mail.TLSOpportunistic
	}
	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.user != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(s.user), mail.WithPassword(s.pass))
	}

	c, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return domain.ErrExternal("smtp client init failed", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("to", n.AttendeeEmail).Msg("smtp send failed")
		return domain.ErrExternal("smtp send failed", err)
	}
	s.lg.Info().Str("to", n.AttendeeEmail).Str("event_id", n.Event.EventID).Msg("approval email sent")
	return nil
}

func approvalText(n domain.ApprovalNotice, walletURL string) string {
	when := ""
	if !n.Event.Date.IsZero() {
		when = n.Event.Date.Format("Mon, 2 Jan 2006")
	}
	body := fmt.Sprintf("Hi %s,\n\nYour request to join %s has been approved.\n", n.AttendeeName, n.Event.Title)
	if when != "" {
		body += fmt.Sprintf("Date: %s\n", when)
	}
	if n.Event.Location != "" {
		body += fmt.Sprintf("Location: %s\n", n.Event.Location)
	}
	body += fmt.Sprintf("\nYour ticket number is %s. Show it at the door.\n", n.RequestID)
	if walletURL != "" {
		body += fmt.Sprintf("\nAdd the ticket to your wallet:\n%s\n", walletURL)
	}
	return body
}

func approvalHTML(n domain.ApprovalNotice, walletURL string) string {
	escName := html.EscapeString(n.AttendeeName)
	escTitle := html.EscapeString(n.Event.Title)
	escTicket := html.EscapeString(n.RequestID)

	button := ""
	if walletURL != "" {
		escLink := html.EscapeString(walletURL)
		button = `<p>
      <a href="` + escLink + `" style="display:inline-block; padding:10px 14px; text-decoration:none; border-radius:6px; background:#111; color:#fff;">
        Add to Google Wallet
      </a>
    </p>`
	}

	return `<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>You're in, ` + escName + `!</h2>
    <p>Your request to join <strong>` + escTitle + `</strong> has been approved.</p>
    <p>Ticket number: <code>` + escTicket + `</code></p>
    ` + button + `
  </body>
</html>`
}
