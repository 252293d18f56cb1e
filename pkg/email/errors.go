package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("email: failed to send email")
	ErrInvalidConfig     = errors.New("email: invalid config")
	ErrInvalidParams     = errors.New("email: invalid params")
	ErrUnknownProvider   = errors.New("email: unknown provider")
	ErrRenderTemplate    = errors.New("email: failed to render template")
)
