package walletconnect

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alephium-go/walletconnect/logger"
	"github.com/alephium-go/walletconnect/metrics"
	"github.com/alephium-go/walletconnect/types"
)

// APIHandler serves node/explorer API passthrough requests on the wallet
// side.
type APIHandler interface {
	Do(ctx context.Context, params *types.NodeAPIParams) (json.RawMessage, error)
}

type options struct {
	log     logger.Logger
	metrics metrics.Recorder
	timeout time.Duration
	api     APIHandler
}

func defaultOptions() options {
	return options{
		log:     logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		timeout: types.DefaultTimeout,
	}
}

// Option configures a Provider or Responder.
type Option func(*options)

// WithLogger injects the host logging stack.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithMetrics injects the host metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) {
		o.metrics = r
	}
}

// WithTimeout bounds each transport round-trip.
func WithTimeout(t time.Duration) Option {
	return func(o *options) {
		o.timeout = t
	}
}

// WithAPIHandler enables node/explorer passthrough methods on a Responder.
func WithAPIHandler(h APIHandler) Option {
	return func(o *options) {
		o.api = h
	}
}
