package client

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// idSource hands out ULIDs that sort in issue order, even within one millisecond.
type idSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var requestIDs = &idSource{entropy: ulid.Monotonic(rand.Reader, 0)}

func (s *idSource) next(at time.Time) (ulid.ULID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.New(ulid.Timestamp(at), s.entropy)
}

// NewRequestID returns the X-Request-ID value for a request issued at now.
func NewRequestID(now time.Time) (string, error) {
	id, err := requestIDs.next(now.UTC())
	if errors.Is(err, ulid.ErrMonotonicOverflow) {
		// Exhausted this millisecond; move to the next one.
		id, err = requestIDs.next(now.UTC().Add(time.Millisecond))
	}
	if err != nil {
		return "", fmt.Errorf("generate request id: %w", err)
	}
	return id.String(), nil
}

type requestIDKey struct{}

// WithRequestID pins the request id used for requests issued with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
