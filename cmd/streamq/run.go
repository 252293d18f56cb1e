package main

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/streamq/pkg/config"
	"github.com/dmitrymomot/streamq/pkg/email"
	"github.com/dmitrymomot/streamq/pkg/httpserver"
	"github.com/dmitrymomot/streamq/pkg/logger"
	"github.com/dmitrymomot/streamq/pkg/queue"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start every queue loop and the ops server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

// infoSource is implemented by every queue loop.
type infoSource interface {
	Info(ctx context.Context) (stream.Info, error)
}

func run(ctx context.Context) error {
	acfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	log := newLogger(acfg)

	var (
		qcfg queue.Config
		mcfg email.Config
		hcfg httpserver.Config
	)
	if err := config.Load(&qcfg); err != nil {
		return err
	}
	if err := config.Load(&mcfg); err != nil {
		return err
	}
	if err := config.Load(&hcfg); err != nil {
		return err
	}

	store, ready, closeStore, err := openLog(ctx, acfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("failed to close stream store", logger.Error(err))
		}
	}()

	sender, err := email.NewSender(mcfg)
	if err != nil {
		return err
	}

	loops, err := buildQueues(store, qcfg, sender, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range loops {
		g.Go(l.Run(gctx))
	}

	if hcfg.Enabled() {
		srv := httpserver.NewFromConfig(hcfg, httpserver.WithLogger(log))
		var checks []func(context.Context) error
		if ready != nil {
			checks = append(checks, ready)
		}
		handler := httpserver.NewOpsRouter(log, statsFunc(loops), checks...)
		g.Go(func() error { return srv.Run(gctx, handler) })
	}

	log.Info("streamq started",
		slog.String("backend", acfg.Backend),
		slog.Int("queues", len(loops)),
	)

	err = g.Wait()
	log.Info("streamq stopped")
	return err
}

// queueLoop is a queue that can run under an errgroup.
type queueLoop interface {
	infoSource
	Run(ctx context.Context) func() error
}

// buildQueues wires the mail dispatcher and the three polling queues.
func buildQueues(store stream.Log, cfg queue.Config, sender email.EmailSender, log *slog.Logger) ([]queueLoop, error) {
	keys := cfg.Keys()

	dopts := append(cfg.DispatcherOptions(), queue.WithDispatcherLogger(log))
	if cfg.DeadLetterStream {
		sink, err := queue.NewStreamDeadLetter(store, keys.DeadLetter, cfg.DeadLetterMaxLen)
		if err != nil {
			return nil, err
		}
		dopts = append(dopts, queue.WithDeadLetters(sink))
	}
	mail, err := queue.NewDispatcher(store, keys.Mail, email.NewJobHandler(sender, log), dopts...)
	if err != nil {
		return nil, err
	}

	base := append(cfg.PollerOptions(), queue.WithPollerLogger(log))
	pollerOpts := func(extra ...queue.PollerOption) []queue.PollerOption {
		return append(slices.Clone(base), extra...)
	}

	delay, err := queue.NewDelayQueue(store, keys.Delay, logHandler(log, queue.QueueDelay),
		pollerOpts(queue.WithThreshold(cfg.DelayThreshold))...)
	if err != nil {
		return nil, err
	}
	timer, err := queue.NewTimerQueue(store, keys.Timer, logHandler(log, queue.QueueTimer),
		pollerOpts(queue.WithThreshold(cfg.TimerInterval))...)
	if err != nil {
		return nil, err
	}

	var topts []queue.PollerOption
	if cfg.TriggerConsume {
		topts = append(topts, queue.WithConsumeOnFire())
	}
	trigger, err := queue.NewTriggerQueue(store, keys.Persistent, logHandler(log, queue.QueuePersistent), pollerOpts(topts...)...)
	if err != nil {
		return nil, err
	}

	return []queueLoop{mail, delay, timer, trigger}, nil
}

// logHandler records each entry it receives. The polling queues run it as
// their default task body.
func logHandler(log *slog.Logger, queueName string) queue.Handler {
	return queue.HandlerFunc(func(ctx context.Context, e stream.Entry) error {
		log.InfoContext(ctx, "task executed",
			slog.String("queue", queueName),
			logger.EntryID(e.ID),
			logger.Fields(e.Fields),
		)
		return nil
	})
}

func statsFunc(sources []queueLoop) httpserver.StatsFunc {
	return func(ctx context.Context) ([]stream.Info, error) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		infos := make([]stream.Info, 0, len(sources))
		for _, s := range sources {
			info, err := s.Info(ctx)
			if err != nil {
				return nil, err
			}
			infos = append(infos, info)
		}
		return infos, nil
	}
}
