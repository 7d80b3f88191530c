package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
	defaultMaxDelay = 5 * time.Second
)

// Config is an exponential backoff policy.
type Config struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3" validate:"min=1,max=10"`
	Delay    time.Duration `env:"DELAY" envDefault:"500ms" validate:"min=0"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"5s" validate:"min=0"`
}

func DefaultConfig() Config {
	return Config{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// Do calls fn until it succeeds, the attempts run out or ctx is done. Only the
// last error is returned. Extra options override the policy.
func (c Config) Do(ctx context.Context, fn func() error, opts ...retry.Option) error {
	attempts := c.Attempts
	if attempts == 0 {
		// zero means forever to retry-go
		attempts = 1
	}

	options := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.Delay),
		retry.MaxDelay(c.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}

	return retry.Do(fn, append(options, opts...)...)
}
