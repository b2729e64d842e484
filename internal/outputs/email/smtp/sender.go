package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"

	mail "github.com/wneessen/go-mail"

	"github.com/bakkerme/feedwatch/internal/outputs/email"
)

// Options configures an SMTP sender. TLSMode is optional; when empty the
// port decides (implicit TLS on 465, STARTTLS otherwise).
type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	TLSMode            string
	InsecureSkipVerify bool
}

type Sender struct {
	opts Options
}

func NewSender(opts Options) *Sender {
	return &Sender{opts: opts}
}

// TLSMode determines how the SMTP client should negotiate TLS.
type TLSMode string

const (
	TLSModeAuto     TLSMode = "auto"
	TLSModeDisabled TLSMode = "disabled"
	TLSModeStartTLS TLSMode = "starttls"
	TLSModeImplicit TLSMode = "implicit"
)

func (s *Sender) Send(ctx context.Context, message email.Message) error {
	if message.From == "" {
		message.From = s.opts.Username
	}

	m := mail.NewMsg()
	if err := m.From(message.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", message.From, err)
	}
	if err := m.ToFromString(message.To); err != nil {
		return fmt.Errorf("invalid to address(es) %q: %w", message.To, err)
	}
	m.Subject(message.Subject)
	m.SetBodyString(mail.TypeTextHTML, message.Body)

	mode, err := s.resolveTLSMode()
	if err != nil {
		return err
	}

	err = s.dialAndSend(ctx, m, mode, s.opts.Username != "")
	if err == nil {
		return nil
	}

	// Local sinks such as mailpit reject AUTH; retry once without it.
	if s.opts.Username != "" && isAuthUnsupported(err) && isLocalDevSMTPHost(s.opts.Host) {
		if retryErr := s.dialAndSend(ctx, m, mode, false); retryErr == nil {
			return nil
		}
	}
	return err
}

func (s *Sender) dialAndSend(ctx context.Context, m *mail.Msg, mode TLSMode, withAuth bool) error {
	clientOpts := []mail.Option{
		mail.WithPort(s.opts.Port),
		mail.WithTLSConfig(&tls.Config{
			ServerName:         s.opts.Host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: s.opts.InsecureSkipVerify,
		}),
	}

	switch mode {
	case TLSModeDisabled:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	case TLSModeStartTLS:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	case TLSModeImplicit:
		clientOpts = append(clientOpts, mail.WithSSL())
	default:
		return fmt.Errorf("unsupported smtp tls mode %q", mode)
	}

	if withAuth {
		clientOpts = append(clientOpts,
			mail.WithUsername(s.opts.Username),
			mail.WithPassword(s.opts.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	client, err := mail.NewClient(s.opts.Host, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *Sender) resolveTLSMode() (TLSMode, error) {
	mode, err := ParseTLSMode(s.opts.TLSMode)
	if err != nil {
		return "", err
	}
	if mode == TLSModeAuto {
		if s.opts.Port == 465 {
			return TLSModeImplicit, nil
		}
		return TLSModeStartTLS, nil
	}
	return mode, nil
}

// ParseTLSMode normalizes a configured TLS mode.
func ParseTLSMode(mode string) (TLSMode, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		return TLSModeAuto, nil
	case "disabled", "off", "none":
		return TLSModeDisabled, nil
	case "starttls", "start_tls":
		return TLSModeStartTLS, nil
	case "implicit", "smtptls", "smtp_tls":
		return TLSModeImplicit, nil
	default:
		return "", fmt.Errorf("invalid smtp tls mode %q (expected: auto, disabled, starttls, implicit)", mode)
	}
}

func isAuthUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "server does not support SMTP AUTH") ||
		strings.Contains(msg, "SMTP Auth autodiscover was not able to detect a supported authentication mechanism")
}

func isLocalDevSMTPHost(host string) bool {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "localhost" || host == "mailpit" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return true
	}
	return false
}
