// Package logger builds *slog.Logger instances for the queue engine.
//
// New takes functional options (format, level, output, static attributes,
// environment defaults) and wraps the chosen slog handler so that attributes
// stored in a context with ContextWithAttrs are added to every record logged
// with that context:
//
//	log := logger.New(logger.WithEnvironment("production", "streamq"))
//	ctx = logger.ContextWithAttrs(ctx, logger.Stream(name), logger.EntryID(id))
//	log.InfoContext(ctx, "mail sent") // carries stream and entry_id
//
// Attribute helpers in attr.go keep key names consistent across packages
// (stream, entry_id, group, consumer, delivery_count, error).
package logger
