package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

const defaultSMTPTimeout = 15 * time.Second

// SMTPSender delivers mail through an SMTP relay. A connection is dialled
// per message, so an unreachable relay surfaces as a send error that the
// queue retries.
type SMTPSender struct {
	host    string
	from    string
	replyTo string
	opts    []mail.Option
}

// NewSMTPSender validates cfg and prepares the client options.
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("%w: SMTPHost is required", ErrInvalidConfig)
	}
	if err := validateSender(cfg); err != nil {
		return nil, err
	}

	policy, err := tlsPolicy(cfg.SMTPTLSPolicy)
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithTLSPolicy(policy),
	}
	if cfg.SMTPPort > 0 {
		opts = append(opts, mail.WithPort(cfg.SMTPPort))
	}
	if cfg.SMTPSSL {
		opts = append(opts, mail.WithSSL())
	}
	timeout := cfg.SMTPTimeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	opts = append(opts, mail.WithTimeout(timeout))
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	return &SMTPSender{
		host:    cfg.SMTPHost,
		from:    cfg.SenderEmail,
		replyTo: cfg.replyTo(),
		opts:    opts,
	}, nil
}

// SendEmail builds a multipart/alternative message and sends it.
func (s *SMTPSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	msg, err := NewMessage(s.from, s.replyTo, params)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.host, s.opts...)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("smtp client: %w", err))
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}

// NewMessage assembles a message with a plain-text part and an HTML
// alternative. The HTML body doubles as the text part when BodyText is empty.
func NewMessage(from, replyTo string, params SendEmailParams) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("%w: from: %w", ErrInvalidParams, err)
	}
	if err := msg.To(params.SendTo); err != nil {
		return nil, fmt.Errorf("%w: to: %w", ErrInvalidParams, err)
	}
	if replyTo != "" {
		if err := msg.ReplyTo(replyTo); err != nil {
			return nil, fmt.Errorf("%w: reply-to: %w", ErrInvalidParams, err)
		}
	}
	msg.Subject(params.Subject)
	msg.SetDate()
	if params.Tag != "" {
		msg.SetGenHeader(mail.Header("X-Tag"), params.Tag)
	}

	text := params.BodyText
	if text == "" {
		text = params.BodyHTML
	}
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, params.BodyHTML)
	return msg, nil
}

func tlsPolicy(name string) (mail.TLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mandatory":
		return mail.TLSMandatory, nil
	case "opportunistic":
		return mail.TLSOpportunistic, nil
	case "none":
		return mail.NoTLS, nil
	}
	return mail.NoTLS, fmt.Errorf("%w: unknown TLS policy %q", ErrInvalidConfig, name)
}
