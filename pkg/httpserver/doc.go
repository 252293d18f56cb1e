// Package httpserver runs the small operational HTTP server of the queue
// process: liveness and readiness probes plus queue statistics.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	handler := httpserver.NewOpsRouter(log, stats, redis.Healthcheck(client))
//	g.Go(func() error { return srv.Run(ctx, handler) })
//
// Run blocks until ctx is cancelled and then shuts the server down within
// the configured timeout. Signal handling belongs to the caller.
package httpserver
