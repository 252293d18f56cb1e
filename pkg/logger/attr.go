package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Stream records the stream (log) name under the key "stream".
func Stream(name string) slog.Attr {
	return slog.String("stream", name)
}

// EntryID records a stream entry id under the key "entry_id".
func EntryID(id string) slog.Attr {
	return slog.String("entry_id", id)
}

// ConsumerGroup records the consumer group under the key "group".
func ConsumerGroup(name string) slog.Attr {
	return slog.String("group", name)
}

// Consumer records the consumer name under the key "consumer".
func Consumer(name string) slog.Attr {
	return slog.String("consumer", name)
}

// DeliveryCount records how many times an entry was delivered.
func DeliveryCount(n int64) slog.Attr {
	return slog.Int64("delivery_count", n)
}

// Fields records an entry field map as a group under the key "fields".
func Fields(fields map[string]string) slog.Attr {
	as := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		as = append(as, slog.String(k, v))
	}
	return slog.Attr{Key: "fields", Value: slog.GroupValue(as...)}
}

// Age records an entry age under the key "age".
func Age(d time.Duration) slog.Attr {
	return slog.Duration("age", d)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// InstanceID records a process-unique worker instance id.
func InstanceID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("instance_id", id)
}
