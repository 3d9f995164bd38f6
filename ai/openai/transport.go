package openai

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/vibegrep/ai"
)

// maxErrorBody bounds how much of an error body is kept for diagnostics.
const maxErrorBody = 512

type recorderKey struct{}

// recorder captures the first failure seen by the transport for one request.
type recorder struct {
	mu  sync.Mutex
	err error
}

func (r *recorder) set(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

func (r *recorder) get() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func withRecorder(ctx context.Context) (context.Context, *recorder) {
	rec := &recorder{}
	return context.WithValue(ctx, recorderKey{}, rec), rec
}

// statusTransport turns non-2xx answers into *ai.StatusError and records
// failures on the request's recorder.
type statusTransport struct {
	base http.RoundTripper
}

func newStatusTransport(base http.RoundTripper) *statusTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &statusTransport{base: base}
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec, _ := req.Context().Value(recorderKey{}).(*recorder)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		if rec != nil {
			// Context errors are more useful than the transport's wrapper.
			if ctxErr := req.Context().Err(); ctxErr != nil {
				rec.set(ctxErr)
			} else {
				rec.set(err)
			}
		}
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	se := &ai.StatusError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		Body:       strings.TrimSpace(string(body)),
	}
	if rec != nil {
		rec.set(se)
	}
	return nil, se
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
