// Package dispatch sends request batches to the model endpoint through a
// bounded worker pool.
//
// # Overview
//
// A Dispatcher owns an ants pool of j workers. Dispatch submits batches in
// plan order; submission blocks while every worker is busy, so no more than
// j requests are ever in flight. Results arrive on the returned channel in
// completion order, exactly one per batch, and the channel is closed once
// every batch has reported.
//
// # Retries
//
// Each batch walks a small state machine:
//
//	pending -> in_flight -> succeeded
//	                     -> retrying -> in_flight ...
//	                     -> failed
//
// Timeouts, rate limits (429), server errors (5xx) and network errors are
// retried with exponential backoff. A Retry-After header stretches the next
// delay up to the configured cap. 401, 403 and 404 are fatal; any other 4xx
// is rejected without retrying. The full transition trace is reported with
// the result.
//
// # Cancellation
//
// Cancelling the run context stops submission. Batches that have not
// started report KindCancelled without calling the endpoint. Requests that
// are already in flight may finish during a grace period, after which they
// are cancelled as well.
//
// # Usage
//
//	d, err := dispatch.New(completer,
//	    dispatch.WithWorkers(10),
//	    dispatch.WithModel("gpt-4o-mini"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer d.Release()
//
//	for res := range d.Dispatch(ctx, batches, query) {
//	    // handle res
//	}
package dispatch
