package tgutil

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gotd/td/telegram"
	"github.com/iyear/tdl/core/middlewares/recovery"
	"github.com/iyear/tdl/core/middlewares/retry"
)

const (
	defaultRetries         = 4
	defaultRecoveryTimeout = 2 * time.Minute
)

func DefaultMiddlewares(ctx context.Context) []telegram.Middleware {
	return Middlewares(ctx, defaultRetries, defaultRecoveryTimeout)
}

func Middlewares(ctx context.Context, retries int, recoveryTimeout time.Duration) []telegram.Middleware {
	return []telegram.Middleware{
		retry.New(retries),
		recovery.New(ctx, newBackoff(recoveryTimeout)),
	}
}

func newBackoff(timeout time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.Multiplier = 1.1
	b.MaxElapsedTime = timeout
	b.MaxInterval = 10 * time.Second
	return b
}
