// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/resolvit/storage"
)

// retrier repeats embedding calls and vector writes with exponential backoff.
type retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

func newRetrier(maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *retrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &retrier{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
}

// do runs fn until it succeeds, fails with a final error, or maxAttempts is
// reached. The delay before attempt n is baseDelay * 2^(n-2).
// Exhausted attempts return ErrRetriesExhausted wrapping the last error.
func (r *retrier) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if r.maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	delay := r.baseDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Debug("operation succeeded after retry", "op", op, "attempt", attempt)
			}
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == r.maxAttempts {
			return fmt.Errorf("%w: %s failed %d times: %w", ErrRetriesExhausted, op, attempt, err)
		}
		r.logger.Debug("operation failed, will retry", "op", op, "attempt", attempt, "maxAttempts", r.maxAttempts, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// retryable reports whether err may clear on a later attempt. Cancellation,
// a closed store and missing records are final.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, storage.ErrStorageClosed), errors.Is(err, storage.ErrNotFound):
		return false
	case errors.Is(err, errEmbeddingMismatch):
		return false
	}
	return true
}
