package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/streamq/pkg/config"
	"github.com/dmitrymomot/streamq/pkg/email"
	"github.com/dmitrymomot/streamq/pkg/queue"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

var errInvalidPair = errors.New("expected key=value")

func newEnqueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <queue> key=value...",
		Short: "Append an entry to a queue stream",
		Long: "Append an entry to one of the queue streams: mail, delay, timer, persistent (alias trigger) or dead.\n" +
			"Mail entries are validated before they are appended.",
		Example: "  streamq enqueue mail to=jane@example.com subject=Welcome link=https://example.com/verify\n" +
			"  streamq enqueue delay name=1",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			var qcfg queue.Config
			if err := config.Load(&qcfg); err != nil {
				return err
			}

			name := args[0]
			streamName, err := qcfg.Keys().Lookup(name)
			if err != nil {
				return err
			}
			fields, err := parseFields(args[1:])
			if err != nil {
				return err
			}

			store, _, closeStore, err := openLog(cmd.Context(), acfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			id, err := enqueue(cmd.Context(), store, name, streamName, fields)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", streamName, id)
			return nil
		},
	}
}

func enqueue(ctx context.Context, store stream.Log, name, streamName string, fields stream.Fields) (string, error) {
	if strings.EqualFold(name, queue.QueueMail) {
		job, err := email.JobCodec{}.Decode(fields)
		if err != nil {
			return "", err
		}
		p, err := queue.NewProducer[email.Job](store, streamName, email.JobCodec{})
		if err != nil {
			return "", err
		}
		return p.Enqueue(ctx, job)
	}

	p, err := queue.NewProducer[stream.Fields](store, streamName, stream.FieldsCodec{})
	if err != nil {
		return "", err
	}
	return p.Enqueue(ctx, fields)
}

// parseFields turns key=value arguments into entry fields. Later keys win.
func parseFields(args []string) (stream.Fields, error) {
	fields := make(stream.Fields, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidPair, arg)
		}
		fields[key] = value
	}
	return fields, nil
}
