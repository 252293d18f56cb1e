// Package stream is the durable log layer underneath the job queues.
//
// A Log stores append-only, strictly ordered entries per named stream, each
// entry a flat map of string fields addressed by an id of the form
// "<epoch-ms>-<seq>". Consumer groups hand every new entry to exactly one
// consumer and keep it on the group's pending list until it is acknowledged,
// which is what gives the queues their at-least-once guarantee.
//
// Two implementations are provided:
//
//	log := stream.NewRedisLog(client) // Redis Streams via go-redis
//	log := stream.NewMemoryLog()      // in-process, for tests and local runs
//
// Typed payloads travel through a Codec. Decode failures are classified with
// ErrMalformedEntry so callers can drop entries that will never succeed
// instead of retrying them:
//
//	job, err := stream.Decode[MyJob](codec, entry)
//	if stream.IsMalformed(err) {
//		// delete, do not retry
//	}
//
// Entry ids embed their creation time; CreatedAt and Entry.Age expose it for
// time-based queues.
package stream
