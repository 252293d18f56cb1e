package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamq/pkg/email"
)

// MockEmailSender is a mock implementation of EmailSender for testing
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func validParams() email.SendEmailParams {
	return email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Test Subject",
		BodyHTML: "<p>Test body</p>",
	}
}

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(p *email.SendEmailParams)
		errMsg string
	}{
		{name: "valid params", modify: func(*email.SendEmailParams) {}},
		{name: "valid with tag and text", modify: func(p *email.SendEmailParams) { p.Tag = "welcome"; p.BodyText = "hi" }},
		{name: "complex valid email", modify: func(p *email.SendEmailParams) { p.SendTo = "test.user+tag@sub.example.com" }},
		{name: "empty SendTo", modify: func(p *email.SendEmailParams) { p.SendTo = "" }, errMsg: "SendTo is required"},
		{name: "whitespace SendTo", modify: func(p *email.SendEmailParams) { p.SendTo = "   " }, errMsg: "SendTo is required"},
		{name: "invalid email", modify: func(p *email.SendEmailParams) { p.SendTo = "invalid-email" }, errMsg: "SendTo must be a valid email address"},
		{name: "missing domain", modify: func(p *email.SendEmailParams) { p.SendTo = "user@" }, errMsg: "SendTo must be a valid email address"},
		{name: "missing local part", modify: func(p *email.SendEmailParams) { p.SendTo = "@example.com" }, errMsg: "SendTo must be a valid email address"},
		{name: "empty Subject", modify: func(p *email.SendEmailParams) { p.Subject = " " }, errMsg: "Subject is required"},
		{name: "empty BodyHTML", modify: func(p *email.SendEmailParams) { p.BodyHTML = "" }, errMsg: "BodyHTML is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := validParams()
			tt.modify(&p)
			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	t.Run("dev", func(t *testing.T) {
		t.Parallel()

		s, err := email.NewSender(email.Config{Provider: "dev", DevOutputDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &email.DevSender{}, s)
	})

	t.Run("empty provider defaults to dev", func(t *testing.T) {
		t.Parallel()

		s, err := email.NewSender(email.Config{DevOutputDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &email.DevSender{}, s)
	})

	t.Run("smtp", func(t *testing.T) {
		t.Parallel()

		s, err := email.NewSender(email.Config{
			Provider:    "SMTP",
			SMTPHost:    "smtp.example.com",
			SenderEmail: "noreply@example.com",
		})
		require.NoError(t, err)
		assert.IsType(t, &email.SMTPSender{}, s)
	})

	t.Run("postmark", func(t *testing.T) {
		t.Parallel()

		s, err := email.NewSender(email.Config{
			Provider:            "postmark",
			PostmarkServerToken: "server-token",
			SenderEmail:         "noreply@example.com",
		})
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewSender(email.Config{Provider: "carrier-pigeon"})
		assert.ErrorIs(t, err, email.ErrUnknownProvider)
	})
}
