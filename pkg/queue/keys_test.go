package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamq/pkg/config"
	"github.com/dmitrymomot/streamq/pkg/queue"
)

func TestNewKeys(t *testing.T) {
	t.Parallel()

	k := queue.NewKeys("shop")
	assert.Equal(t, "shop:queue:mail", k.Mail)
	assert.Equal(t, "shop:task:delay", k.Delay)
	assert.Equal(t, "shop:task:timer", k.Timer)
	assert.Equal(t, "shop:task:persistent", k.Persistent)
	assert.Equal(t, "shop:queue:mail:dead", k.DeadLetter)
	assert.Len(t, k.All(), 5)

	assert.Equal(t, "streamq:queue:mail", queue.NewKeys("  ").Mail)
}

func TestKeys_Lookup(t *testing.T) {
	t.Parallel()

	k := queue.NewKeys("shop")
	for name, want := range map[string]string{
		"mail":       k.Mail,
		"Delay":      k.Delay,
		"timer":      k.Timer,
		"persistent": k.Persistent,
		"trigger":    k.Persistent,
		"dead":       k.DeadLetter,
	} {
		got, err := k.Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	_, err := k.Lookup("sms")
	assert.ErrorIs(t, err, queue.ErrUnknownQueue)
}

func TestConfig_Defaults(t *testing.T) {
	config.ResetCache()

	var cfg queue.Config
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "g1", cfg.Group)
	assert.Equal(t, int64(3), cfg.MaxDeliveries)
	assert.Equal(t, 32, cfg.RetryBuffer)
	assert.Equal(t, 5*time.Second, cfg.BlockTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.IdleDelay)
	assert.Equal(t, 10*time.Second, cfg.DelayThreshold)
	assert.Equal(t, 10*time.Second, cfg.TimerInterval)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "streamq:queue:mail", cfg.Keys().Mail)
	assert.Len(t, cfg.DispatcherOptions(), 10)
	assert.Len(t, cfg.PollerOptions(), 4)
}
