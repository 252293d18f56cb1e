// Package email sends transactional mail and provides the mail job run by
// the reliable dispatch queue.
//
// Senders implement EmailSender:
//
//   - SMTPSender     - any SMTP relay, via github.com/wneessen/go-mail
//   - PostmarkClient - the Postmark API
//   - DevSender      - writes HTML, text and JSON files for local runs
//
// NewSender picks one from Config.Provider ("smtp", "postmark" or "dev").
//
// # Mail jobs
//
// A queued mail carries only the to, subject and link fields; the body is
// rendered from templates.LinkEmail when the job runs:
//
//	sender, err := email.NewSender(cfg)
//	if err != nil {
//		return err
//	}
//	handler := email.NewJobHandler(sender, log)
//	dispatcher, err := queue.NewDispatcher(streamLog, keys.Mail, handler)
//
// Entries with a missing field or an invalid recipient are reported as
// stream.ErrMalformedEntry and dropped by the queue; send failures are
// returned as ErrFailedToSendEmail and retried.
//
// # Error Handling
//
//   - ErrInvalidConfig: configuration validation failed
//   - ErrInvalidParams: email parameters validation failed
//   - ErrFailedToSendEmail: delivery failed
//   - ErrUnknownProvider: Config.Provider is not supported
package email
