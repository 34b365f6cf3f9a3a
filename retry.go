package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
)

// ErrRetriesExhausted is returned when a bounded RetryPolicy gives up.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy controls how transient failures are retried.
//
// The zero value retries forever with no pause in between. A capture that
// never succeeds therefore stalls the caller; set MaxAttempts to bound it.
type RetryPolicy struct {
	MaxAttempts int           // 0 means unbounded
	Interval    time.Duration // pause between attempts
}

func (p RetryPolicy) backOff() backoff.BackOff {
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if p.Interval > 0 {
		b = &backoff.ConstantBackOff{Interval: p.Interval}
	}
	switch {
	case p.MaxAttempts == 1:
		return &backoff.StopBackOff{}
	case p.MaxAttempts > 1:
		// WithMaxRetries treats 0 as unlimited.
		return backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return b
}

// Do runs op until it succeeds, returns a permanent error, or the policy
// runs out of attempts. Wrap an error with backoff.Permanent to stop early.
func (p RetryPolicy) Do(op func() error) error {
	var last error
	err := backoff.Retry(func() error {
		last = op()
		return last
	}, p.backOff())
	if err == nil {
		return nil
	}
	var perm *backoff.PermanentError
	if errors.As(last, &perm) {
		return err
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, p.MaxAttempts, err)
}
