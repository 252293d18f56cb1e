package email

import "time"

// Supported values of Config.Provider.
const (
	ProviderSMTP     = "smtp"
	ProviderPostmark = "postmark"
	ProviderDev      = "dev"
)

// Config holds email service configuration.
// Only the settings of the selected provider are validated.
type Config struct {
	Provider     string `env:"MAIL_PROVIDER" envDefault:"dev"`
	SenderEmail  string `env:"MAIL_FROM" envDefault:"noreply@example.com"`
	SupportEmail string `env:"MAIL_REPLY_TO"` // defaults to SenderEmail

	SMTPHost      string        `env:"MAIL_HOST"`
	SMTPPort      int           `env:"MAIL_PORT" envDefault:"587"`
	SMTPUser      string        `env:"MAIL_USER"`
	SMTPPassword  string        `env:"MAIL_PWD"`
	SMTPTLSPolicy string        `env:"MAIL_TLS_POLICY" envDefault:"mandatory"` // mandatory | opportunistic | none
	SMTPSSL       bool          `env:"MAIL_SSL" envDefault:"false"`
	SMTPTimeout   time.Duration `env:"MAIL_TIMEOUT" envDefault:"15s"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	DevOutputDir string `env:"MAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

func (c Config) replyTo() string {
	if c.SupportEmail != "" {
		return c.SupportEmail
	}
	return c.SenderEmail
}
