package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func fastConfig(attempts uint) Config {
	return Config{Attempts: attempts, Delay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastConfig(3).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastError(t *testing.T) {
	calls := 0
	err := fastConfig(2).Do(context.Background(), func() error {
		calls++
		return errFlaky
	})

	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 2, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := fastConfig(0).Do(context.Background(), func() error {
		calls++
		return errFlaky
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursRetryIf(t *testing.T) {
	calls := 0
	err := fastConfig(5).Do(context.Background(), func() error {
		calls++
		return errFlaky
	}, retry.RetryIf(func(error) bool { return false }))

	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint(3), cfg.Attempts)
	assert.Less(t, cfg.Delay, cfg.MaxDelay)
}
