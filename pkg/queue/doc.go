// Package queue implements background job queues on top of stream.Log.
//
// Four behaviours share the same log primitive:
//
//   - Dispatcher    - reliable at-least-once delivery through a consumer group,
//     with a bounded retry budget and dead letters
//   - NewDelayQueue - handles each entry once it is older than a threshold
//   - NewTimerQueue - handles each entry every threshold, renewing it in place
//   - TriggerQueue  - handles every entry at minute-aligned wall-clock instants
//
// All components follow the same lifecycle: Start(ctx) launches background
// loops, Stop() cancels them and waits for in-flight handlers, and Run(ctx)
// adapts both for errgroup:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(dispatcher.Run(ctx))
//	g.Go(delayQueue.Run(ctx))
//
// # Handlers
//
// A Handler receives the raw stream.Entry. NewTaskHandler decodes entries
// with a stream.Codec first:
//
//	h := queue.NewTaskHandler[email.Job](email.JobCodec{}, func(ctx context.Context, job email.Job) error {
//		return send(ctx, job)
//	})
//
// Returning an error that wraps stream.ErrMalformedEntry deletes the entry
// without retrying it. Any other error is a business failure: the dispatcher
// re-delivers the entry until MaxDeliveries is reached, the polling queues
// keep it for their next pass. Panics are recovered as business failures.
//
// # Retries
//
// Failed dispatcher entries stay in the group's pending list. A single
// coordinator loop re-reads them from the consumer's history and runs the
// handler again; once the delivery count reaches the budget the entry is
// force-acked and passed to the DeadLetterSink. A periodic sweep retries
// entries that have been pending for too long, which covers retry requests
// lost on restart. Consecutive read failures from the store pause the
// consumer loops according to a Backoff (WithBackoff).
//
// # Producers
//
//	p, _ := queue.NewProducer[email.Job](log, keys.Mail, email.JobCodec{})
//	id, err := p.Enqueue(ctx, email.Job{To: "a@example.com", Subject: "Hi", Link: "https://example.com"})
package queue
