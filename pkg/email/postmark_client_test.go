package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamq/pkg/email"
)

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	valid := email.Config{
		PostmarkServerToken:  "test-server-token",
		PostmarkAccountToken: "test-account-token",
		SenderEmail:          "sender@example.com",
		SupportEmail:         "support@example.com",
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		client, err := email.NewPostmarkClient(valid)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("account token is optional", func(t *testing.T) {
		t.Parallel()

		cfg := valid
		cfg.PostmarkAccountToken = ""
		_, err := email.NewPostmarkClient(cfg)
		assert.NoError(t, err)
	})

	tests := []struct {
		name   string
		modify func(c *email.Config)
		errMsg string
	}{
		{name: "empty server token", modify: func(c *email.Config) { c.PostmarkServerToken = "" }, errMsg: "PostmarkServerToken is required"},
		{name: "empty sender", modify: func(c *email.Config) { c.SenderEmail = "" }, errMsg: "SenderEmail is required"},
		{name: "invalid sender", modify: func(c *email.Config) { c.SenderEmail = "nope" }, errMsg: "SenderEmail must be a valid email address"},
		{name: "invalid support", modify: func(c *email.Config) { c.SupportEmail = "nope" }, errMsg: "SupportEmail must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.modify(&cfg)
			client, err := email.NewPostmarkClient(cfg)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMustNewPostmarkClient(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { email.MustNewPostmarkClient(email.Config{}) })
}

func TestPostmarkClient_SendEmailValidatesFirst(t *testing.T) {
	t.Parallel()

	client, err := email.NewPostmarkClient(email.Config{
		PostmarkServerToken: "server-token",
		SenderEmail:         "sender@example.com",
	})
	require.NoError(t, err)

	err = client.SendEmail(context.Background(), email.SendEmailParams{SendTo: "user@example.com"})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
