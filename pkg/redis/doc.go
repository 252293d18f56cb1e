// Package redis connects to the Redis server that backs every stream queue.
//
// Connect parses a redis:// URL, applies pool settings and retries PING until
// the server is ready. Healthcheck returns a probe function for the ops
// server. Configuration is read from the environment through Config:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// The stream operations themselves live in pkg/stream (stream.NewRedisLog).
package redis
