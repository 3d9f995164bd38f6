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
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/vibegrep/ai"
	"github.com/poiesic/vibegrep/core"
	"github.com/poiesic/vibegrep/request"
	"github.com/sethvargo/go-retry"
)

const (
	// DefaultWorkers is the default number of concurrent requests.
	DefaultWorkers = 10
	// DefaultMaxAttempts is the default number of attempts per batch.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the first backoff delay.
	DefaultBaseDelay = time.Second
	// DefaultMaxDelay caps every backoff delay, Retry-After included.
	DefaultMaxDelay = 30 * time.Second
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 120 * time.Second
	// DefaultGracePeriod is how long in-flight requests may run after the run
	// is cancelled.
	DefaultGracePeriod = 5 * time.Second
)

// Dispatcher sends batches to a Completer with bounded concurrency.
type Dispatcher struct {
	completer   ai.Completer
	pool        *ants.Pool
	workers     int
	model       string
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	timeout     time.Duration
	grace       time.Duration
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithWorkers sets the number of concurrent requests.
// Default is DefaultWorkers.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) error {
		if n < 1 {
			return ErrInvalidWorkers
		}
		d.workers = n
		return nil
	}
}

// WithModel sets the model name placed in every request.
func WithModel(model string) Option {
	return func(d *Dispatcher) error {
		d.model = model
		return nil
	}
}

// WithMaxAttempts sets how many times a batch is tried before giving up.
// Default is DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) error {
		if n < 1 {
			return ErrInvalidMaxAttempts
		}
		d.maxAttempts = n
		return nil
	}
}

// WithBackoff sets the first retry delay and the cap on all delays.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(d *Dispatcher) error {
		if base <= 0 || maxDelay <= 0 {
			return ErrInvalidTimeout
		}
		if maxDelay < base {
			maxDelay = base
		}
		d.baseDelay = base
		d.maxDelay = maxDelay
		return nil
	}
}

// WithTimeout sets the per-attempt timeout.
// Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}
		d.timeout = timeout
		return nil
	}
}

// WithGracePeriod sets how long in-flight requests may continue after the
// run context is cancelled. Zero cancels them immediately.
func WithGracePeriod(grace time.Duration) Option {
	return func(d *Dispatcher) error {
		if grace < 0 {
			grace = 0
		}
		d.grace = grace
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// New creates a dispatcher around completer.
// Call Release when done to stop the worker pool.
func New(completer ai.Completer, opts ...Option) (*Dispatcher, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	d := &Dispatcher{
		completer:   completer,
		workers:     DefaultWorkers,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
		timeout:     DefaultTimeout,
		grace:       DefaultGracePeriod,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "dispatch")

	pool, err := ants.NewPool(d.workers)
	if err != nil {
		return nil, err
	}
	d.pool = pool

	return d, nil
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Model returns the model name placed in every request.
func (d *Dispatcher) Model() string {
	return d.model
}

// Release stops the worker pool. The dispatcher must not be used afterwards.
func (d *Dispatcher) Release() {
	if d.pool != nil {
		d.pool.Release()
	}
}

// Dispatch sends every batch and returns a channel that yields exactly one
// result per batch, in completion order. The channel is closed after the
// last result.
func (d *Dispatcher) Dispatch(ctx context.Context, batches []core.Batch, query string) <-chan core.DispatchResult {
	// Room for every result, so workers never wait on the consumer
	results := make(chan core.DispatchResult, len(batches))

	go func() {
		defer close(results)

		// In-flight requests outlive the run context by the grace period
		detached, hardCancel := context.WithCancel(context.WithoutCancel(ctx))
		defer hardCancel()
		stop := context.AfterFunc(ctx, func() {
			if d.grace == 0 {
				hardCancel()
				return
			}
			timer := time.NewTimer(d.grace)
			defer timer.Stop()
			select {
			case <-timer.C:
				hardCancel()
			case <-detached.Done():
			}
		})
		defer stop()

		var wg sync.WaitGroup
		for _, batch := range batches {
			if ctx.Err() != nil {
				results <- d.cancelled(batch, 0, newMachine())
				continue
			}

			wg.Add(1)
			err := d.pool.Submit(func() {
				defer wg.Done()
				results <- d.run(ctx, detached, batch, query)
			})
			if err != nil {
				wg.Done()
				d.logger.Error("failed to submit batch", "batch", batch.Index, "err", err)
				m := newMachine()
				_ = m.to(core.StateFailed)
				results <- core.DispatchResult{
					BatchIndex: batch.Index,
					Failure:    &core.Failure{Kind: core.KindRejected, Detail: "submit: " + err.Error(), Err: err},
					Trace:      m.Trace(),
				}
			}
		}
		wg.Wait()
	}()

	return results
}

// run drives one batch through the retry state machine.
func (d *Dispatcher) run(runCtx, detached context.Context, batch core.Batch, query string) (res core.DispatchResult) {
	m := newMachine()
	attempts := 0

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while dispatching batch", "batch", batch.Index, "panic", r)
			if !m.state.Terminal() {
				_ = m.to(core.StateFailed)
			}
			res = core.DispatchResult{
				BatchIndex: batch.Index,
				Failure:    &core.Failure{Kind: core.KindRejected, Detail: fmt.Sprintf("panic: %v", r)},
				Attempts:   attempts,
				Trace:      m.Trace(),
			}
		}
	}()

	if runCtx.Err() != nil {
		return d.cancelled(batch, 0, m)
	}

	req := request.Encode(batch, query, d.model)
	logger := d.logger.With("batch", batch.Index, "files", len(batch.Files))

	var raw string
	var hint time.Duration
	backoff := newBackoff(d.baseDelay, d.maxDelay, &hint)

	// Backoff sleeps follow the run context; attempts follow the detached one
	err := retry.Do(runCtx, backoff, func(context.Context) error {
		attempts++
		hint = 0
		if err := m.to(core.StateInFlight); err != nil {
			return err
		}

		out, err := d.attempt(detached, req)
		if err == nil {
			raw = out
			return m.to(core.StateSucceeded)
		}

		kind, retryAfter := Classify(err)
		if detached.Err() != nil {
			kind = core.KindCancelled
		}
		failure := &core.Failure{Kind: kind, Detail: err.Error(), Err: err}

		if kind != core.KindTransient || attempts >= d.maxAttempts {
			_ = m.to(core.StateFailed)
			if kind == core.KindTransient && attempts > 1 {
				failure.Detail = fmt.Sprintf("gave up after %d attempts: %v", attempts, err)
			}
			return failure
		}

		_ = m.to(core.StateRetrying)
		hint = retryAfter
		logger.Debug("attempt failed, will retry", "attempt", attempts, "maxAttempts", d.maxAttempts, "retryAfter", retryAfter, "err", err)
		return retry.RetryableError(failure)
	})

	res = core.DispatchResult{BatchIndex: batch.Index, Attempts: attempts}

	if err == nil {
		if attempts > 1 {
			logger.Debug("batch succeeded after retry", "attempts", attempts)
		}
		res.Raw = raw
		res.Trace = m.Trace()
		return res
	}

	// The run was cancelled between attempts
	if !m.state.Terminal() {
		return d.cancelled(batch, attempts, m)
	}

	var failure *core.Failure
	if !errors.As(err, &failure) {
		failure = &core.Failure{Kind: core.KindRejected, Detail: err.Error(), Err: err}
	}
	logger.Debug("batch failed", "kind", failure.Kind, "attempts", attempts, "err", failure.Err)
	res.Failure = failure
	res.Trace = m.Trace()
	return res
}

// attempt performs one request under the per-attempt timeout.
func (d *Dispatcher) attempt(ctx context.Context, req *ai.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.completer.Complete(ctx, req)
}

func (d *Dispatcher) cancelled(batch core.Batch, attempts int, m *machine) core.DispatchResult {
	_ = m.to(core.StateFailed)
	return core.DispatchResult{
		BatchIndex: batch.Index,
		Failure:    &core.Failure{Kind: core.KindCancelled, Detail: "run cancelled", Err: context.Canceled},
		Attempts:   attempts,
		Trace:      m.Trace(),
	}
}
