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
	"io"
	"net"
	"net/http"
	"time"

	"github.com/poiesic/vibegrep/ai"
	"github.com/poiesic/vibegrep/core"
)

// Classify maps an attempt error to the kind of failure it represents.
// KindTransient means the attempt may be retried. For rate limiting and
// unavailable answers the returned duration is the server's Retry-After hint.
func Classify(err error) (core.ErrorKind, time.Duration) {
	if err == nil {
		return 0, 0
	}

	var statusErr *ai.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode), statusErr.RetryAfter
	}

	switch {
	case errors.Is(err, context.Canceled):
		return core.KindCancelled, 0
	case errors.Is(err, context.DeadlineExceeded):
		return core.KindTransient, 0
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return core.KindTransient, 0
	case errors.Is(err, ai.ErrEmptyResponse):
		return core.KindTransient, 0
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return core.KindTransient, 0
	}

	return core.KindRejected, 0
}

func classifyStatus(code int) core.ErrorKind {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return core.KindTransient
	case code >= 500:
		return core.KindTransient
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusNotFound:
		return core.KindFatal
	default:
		return core.KindRejected
	}
}
