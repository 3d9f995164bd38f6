package dispatch

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/vibegrep/ai"
	"github.com/poiesic/vibegrep/ai/mock"
	"github.com/poiesic/vibegrep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBatches(n int) []core.Batch {
	batches := make([]core.Batch, n)
	for i := range batches {
		batches[i] = core.Batch{Index: i, Files: []core.CandidateFile{
			{Path: "f" + strconv.Itoa(i) + ".txt", Content: []byte("line\n"), Seq: i},
		}}
	}
	return batches
}

func newTestDispatcher(t *testing.T, completer ai.Completer, opts ...Option) *Dispatcher {
	t.Helper()
	opts = append([]Option{WithBackoff(time.Millisecond, 5*time.Millisecond)}, opts...)
	d, err := New(completer, opts...)
	require.NoError(t, err)
	t.Cleanup(d.Release)
	return d
}

func collect(ch <-chan core.DispatchResult) map[int]core.DispatchResult {
	out := make(map[int]core.DispatchResult)
	for res := range ch {
		out[res.BatchIndex] = res
	}
	return out
}

// batchOf returns the first path of the request, which identifies the batch in these tests.
func batchOf(req *ai.Request) int {
	n, _ := strconv.Atoi(req.Files[0].Path[1 : len(req.Files[0].Path)-len(".txt")])
	return n
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrCompleterRequired)

	c := mock.NewMockCompleter()
	_, err = New(c, WithWorkers(0))
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	_, err = New(c, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = New(c, WithTimeout(0))
	assert.ErrorIs(t, err, ErrInvalidTimeout)

	d, err := New(c, WithWorkers(4), WithLogger(nil))
	require.NoError(t, err)
	defer d.Release()
	assert.Equal(t, 4, d.Workers())
}

func TestDispatch_OneResultPerBatch(t *testing.T) {
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
		return "1: 1", nil
	}
	d := newTestDispatcher(t, c, WithModel("m"))

	results := collect(d.Dispatch(context.Background(), makeBatches(25), "q"))

	require.Len(t, results, 25)
	for i := 0; i < 25; i++ {
		res := results[i]
		assert.True(t, res.OK())
		assert.Equal(t, "1: 1", res.Raw)
		assert.Equal(t, 1, res.Attempts)
		assert.Equal(t, []core.RetryState{core.StatePending, core.StateInFlight, core.StateSucceeded}, res.Trace)
	}
	for _, req := range c.Requests() {
		assert.Equal(t, "m", req.Model)
		assert.Equal(t, "q", req.Query)
	}
}

func TestDispatch_Empty(t *testing.T) {
	d := newTestDispatcher(t, mock.NewMockCompleter())
	results := collect(d.Dispatch(context.Background(), nil, "q"))
	assert.Empty(t, results)
}

func TestDispatch_BoundedConcurrency(t *testing.T) {
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return "", nil
	}
	d := newTestDispatcher(t, c, WithWorkers(3))

	results := collect(d.Dispatch(context.Background(), makeBatches(20), "q"))

	assert.Len(t, results, 20)
	assert.Equal(t, 20, c.CallCount())
	assert.LessOrEqual(t, c.MaxInFlight(), 3)
	assert.GreaterOrEqual(t, c.MaxInFlight(), 2)
}

func TestDispatch_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
		if calls.Add(1) < 3 {
			return "", &ai.StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return "NONE", nil
	}
	d := newTestDispatcher(t, c)

	results := collect(d.Dispatch(context.Background(), makeBatches(1), "q"))

	res := results[0]
	require.True(t, res.OK())
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []core.RetryState{
		core.StatePending,
		core.StateInFlight, core.StateRetrying,
		core.StateInFlight, core.StateRetrying,
		core.StateInFlight, core.StateSucceeded,
	}, res.Trace)
}

func TestDispatch_ExhaustsRetries(t *testing.T) {
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
		return "", &ai.StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Millisecond}
	}
	d := newTestDispatcher(t, c, WithMaxAttempts(2))

	res := collect(d.Dispatch(context.Background(), makeBatches(1), "q"))[0]

	require.False(t, res.OK())
	assert.Equal(t, core.KindTransient, res.Failure.Kind)
	assert.Contains(t, res.Failure.Detail, "gave up after 2 attempts")
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 2, c.CallCount())
	assert.Equal(t, core.StateFailed, res.Trace[len(res.Trace)-1])

	var statusErr *ai.StatusError
	assert.ErrorAs(t, res.Failure, &statusErr)
}

func TestDispatch_NoRetryOnRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   core.ErrorKind
	}{
		{"bad request", http.StatusBadRequest, core.KindRejected},
		{"unauthorized", http.StatusUnauthorized, core.KindFatal},
		{"not found", http.StatusNotFound, core.KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mock.NewMockCompleter()
			c.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
				return "", &ai.StatusError{StatusCode: tt.status}
			}
			d := newTestDispatcher(t, c)

			res := collect(d.Dispatch(context.Background(), makeBatches(1), "q"))[0]

			require.False(t, res.OK())
			assert.Equal(t, tt.kind, res.Failure.Kind)
			assert.Equal(t, 1, c.CallCount())
			assert.Equal(t, []core.RetryState{core.StatePending, core.StateInFlight, core.StateFailed}, res.Trace)
		})
	}
}

func TestDispatch_FailureIsolation(t *testing.T) {
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
		if batchOf(req) == 2 {
			return "", &ai.StatusError{StatusCode: http.StatusInternalServerError}
		}
		return "ok", nil
	}
	d := newTestDispatcher(t, c, WithWorkers(2))

	results := collect(d.Dispatch(context.Background(), makeBatches(5), "q"))

	require.Len(t, results, 5)
	for i := 0; i < 5; i++ {
		if i == 2 {
			assert.False(t, results[i].OK())
			continue
		}
		assert.True(t, results[i].OK(), "batch %d", i)
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
		if batchOf(req) == 1 {
			panic("boom")
		}
		return "ok", nil
	}
	d := newTestDispatcher(t, c)

	results := collect(d.Dispatch(context.Background(), makeBatches(3), "q"))

	require.Len(t, results, 3)
	require.False(t, results[1].OK())
	assert.Contains(t, results[1].Failure.Detail, "boom")
	assert.Equal(t, core.StateFailed, results[1].Trace[len(results[1].Trace)-1])
	assert.True(t, results[0].OK())
	assert.True(t, results[2].OK())
}

func TestDispatch_CancelledBeforeStart(t *testing.T) {
	c := mock.NewMockCompleter()
	d := newTestDispatcher(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := collect(d.Dispatch(ctx, makeBatches(4), "q"))

	require.Len(t, results, 4)
	assert.Equal(t, 0, c.CallCount())
	for _, res := range results {
		require.False(t, res.OK())
		assert.Equal(t, core.KindCancelled, res.Failure.Kind)
		assert.Equal(t, []core.RetryState{core.StatePending, core.StateFailed}, res.Trace)
	}
}

func TestDispatch_CancelMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 1)
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(reqCtx context.Context, req *ai.Request) (string, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-time.After(50 * time.Millisecond):
			return "ok", nil
		case <-reqCtx.Done():
			return "", reqCtx.Err()
		}
	}
	d := newTestDispatcher(t, c, WithWorkers(1), WithGracePeriod(time.Second))

	ch := d.Dispatch(ctx, makeBatches(5), "q")
	<-started
	cancel()
	results := collect(ch)

	require.Len(t, results, 5)
	// The in-flight batch finishes within the grace period
	assert.True(t, results[0].OK())

	cancelled := 0
	for _, res := range results {
		if !res.OK() && res.Failure.Kind == core.KindCancelled {
			cancelled++
		}
	}
	assert.GreaterOrEqual(t, cancelled, 3)
	assert.Less(t, c.CallCount(), 5)
}

func TestDispatch_HardCancelAfterGrace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(reqCtx context.Context, req *ai.Request) (string, error) {
		close(started)
		<-reqCtx.Done()
		return "", reqCtx.Err()
	}
	d := newTestDispatcher(t, c, WithWorkers(1), WithGracePeriod(10*time.Millisecond))

	ch := d.Dispatch(ctx, makeBatches(1), "q")
	<-started
	cancel()

	select {
	case res := <-ch:
		require.False(t, res.OK())
		assert.Equal(t, core.KindCancelled, res.Failure.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight request was not cancelled after the grace period")
	}
}

func TestDispatch_AttemptTimeout(t *testing.T) {
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	d := newTestDispatcher(t, c, WithTimeout(5*time.Millisecond), WithMaxAttempts(2))

	res := collect(d.Dispatch(context.Background(), makeBatches(1), "q"))[0]

	require.False(t, res.OK())
	assert.Equal(t, core.KindTransient, res.Failure.Kind)
	assert.True(t, errors.Is(res.Failure, context.DeadlineExceeded))
	assert.Equal(t, 2, res.Attempts)
}

func TestDispatch_ClaimOrderIsPlanOrder(t *testing.T) {
	order := make(chan int, 10)
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(ctx context.Context, req *ai.Request) (string, error) {
		order <- batchOf(req)
		return "", nil
	}
	d := newTestDispatcher(t, c, WithWorkers(1))

	collect(d.Dispatch(context.Background(), makeBatches(10), "q"))
	close(order)

	var got []int
	for i := range order {
		got = append(got, i)
	}
	assert.True(t, sort.IntsAreSorted(got), "claim order %v", got)
}
