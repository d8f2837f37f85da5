package transport

import (
	"context"
	"net/http"
	"time"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	// DefaultRateLimit is the sustained requests-per-second budget for one process.
	DefaultRateLimit = 10
	DefaultBurst     = 20
)

// Transport executes HTTP requests against the panel backend over a chosen network path.
type Transport interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
	Close() error
}

// Options carries the settings shared by every transport implementation.
type Options struct {
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultRequestTimeout
	}
	if o.RateLimit == 0 {
		o.RateLimit = DefaultRateLimit
	}
	if o.Burst <= 0 {
		o.Burst = DefaultBurst
	}
	return o
}
