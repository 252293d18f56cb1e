package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/streamq/pkg/email/templates"
	"github.com/dmitrymomot/streamq/pkg/logger"
	"github.com/dmitrymomot/streamq/pkg/queue"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

// Field names of a mail job entry.
const (
	FieldTo      = "to"
	FieldSubject = "subject"
	FieldLink    = "link"
)

// Job is a queued link mail. Only the recipient, subject and link travel
// through the stream; the body is rendered when the job runs.
type Job struct {
	To      string
	Subject string
	Link    string
}

// JobCodec maps Job to the to/subject/link entry fields.
type JobCodec struct{}

var _ stream.Codec[Job] = JobCodec{}

func (JobCodec) Encode(j Job) (stream.Fields, error) {
	f := stream.Fields{
		FieldTo:      strings.TrimSpace(j.To),
		FieldSubject: j.Subject,
		FieldLink:    strings.TrimSpace(j.Link),
	}
	if err := f.Require(FieldTo, FieldSubject, FieldLink); err != nil {
		return nil, err
	}
	return f, nil
}

func (JobCodec) Decode(f stream.Fields) (Job, error) {
	if err := f.Require(FieldTo, FieldSubject, FieldLink); err != nil {
		return Job{}, err
	}
	to := strings.TrimSpace(f[FieldTo])
	if !IsValidAddress(to) {
		return Job{}, fmt.Errorf("%w: invalid recipient %q", stream.ErrMalformedEntry, to)
	}
	return Job{To: to, Subject: f[FieldSubject], Link: strings.TrimSpace(f[FieldLink])}, nil
}

// NewJobHandler renders the link mail for each job and sends it.
// Render and send failures are returned as retryable errors.
func NewJobHandler(sender EmailSender, log *slog.Logger) queue.Handler {
	if log == nil {
		log = slog.Default()
	}
	return queue.NewTaskHandler[Job](JobCodec{}, func(ctx context.Context, job Job) error {
		html, err := templates.Render(ctx, templates.LinkEmail(job.Link))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRenderTemplate, err)
		}

		if err := sender.SendEmail(ctx, SendEmailParams{
			SendTo:   job.To,
			Subject:  job.Subject,
			BodyHTML: html,
			BodyText: templates.LinkText(job.Link),
			Tag:      "link",
		}); err != nil {
			return err
		}

		log.InfoContext(ctx, "mail sent", logger.Component("mailer"), slog.String("to", job.To))
		return nil
	})
}
