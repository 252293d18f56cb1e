package queue

import (
	"fmt"
	"slices"
	"strings"
)

// Queue names accepted by Keys.Lookup.
const (
	QueueMail       = "mail"
	QueueDelay      = "delay"
	QueueTimer      = "timer"
	QueuePersistent = "persistent"
	QueueDead       = "dead"
)

// Keys holds the stream names of one application namespace.
type Keys struct {
	Mail       string
	Delay      string
	Timer      string
	Persistent string
	DeadLetter string
}

// NewKeys namespaces every stream under app, e.g. "app:queue:mail".
func NewKeys(app string) Keys {
	app = strings.TrimSpace(app)
	if app == "" {
		app = "streamq"
	}
	return Keys{
		Mail:       app + ":queue:mail",
		Delay:      app + ":task:delay",
		Timer:      app + ":task:timer",
		Persistent: app + ":task:persistent",
		DeadLetter: app + ":queue:mail:dead",
	}
}

// Lookup maps a short queue name to its stream.
func (k Keys) Lookup(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case QueueMail:
		return k.Mail, nil
	case QueueDelay:
		return k.Delay, nil
	case QueueTimer:
		return k.Timer, nil
	case QueuePersistent, "trigger":
		return k.Persistent, nil
	case QueueDead:
		return k.DeadLetter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQueue, name)
}

// All returns every stream name in a stable order.
func (k Keys) All() []string {
	return slices.Clone([]string{k.Mail, k.Delay, k.Timer, k.Persistent, k.DeadLetter})
}
