// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"fmt"

	"github.com/hartleyhq/smartrun/internal/testutil"
	"github.com/hartleyhq/smartrun/pkg/types"
)

// RetryFixedDelay runs op up to maxAttempts times with a fixed pause
// between attempts, checking ctx between retries so cancellation is
// respected immediately. Attempts are numbered from 1. On exhaustion the
// last error is returned.
//
// Installation is the only retried operation in the pipeline: its dominant
// failure mode (network/registry flakiness) is transient, while every
// other stage's failures are permanent.
func RetryFixedDelay(
	ctx context.Context,
	maxAttempts types.AttemptCount,
	delay types.RetryDelay,
	clock testutil.Clock,
	op func(attempt int) error,
) error {
	if ok, errs := maxAttempts.IsValid(); !ok {
		return errs[0]
	}
	if ok, errs := delay.IsValid(); !ok {
		return errs[0]
	}

	var lastErr error
	for attempt := 1; attempt <= int(maxAttempts); attempt++ {
		if attempt > 1 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("retry aborted: %w", err)
			}
			clock.Sleep(delay.Duration())
		}

		if lastErr = op(attempt); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
