// Package middleware composes the logging/metrics/recovery chain a
// PlantWorker's receive loop runs every inbound frame through before
// dispatch.
package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/arjunrv/rti-go/internal/logging"
)

// MessageHandler handles one inbound frame, still in raw wire form at
// this layer.
type MessageHandler func(ctx context.Context, msg []byte) error

// Middleware wraps a MessageHandler.
type Middleware func(MessageHandler) MessageHandler

// MetricsCollector is the subset of metrics.Collector the middleware
// chain needs, kept narrow so this package doesn't import metrics.
type MetricsCollector interface {
	RecordMessageReceived(bytes int, latency time.Duration)
	RecordError()
}

// Chain composes middlewares so the first argument is outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(handler MessageHandler) MessageHandler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// Logging logs receipt and outcome of each frame.
func Logging(logger logging.Logger) Middleware {
	if logger == nil {
		return func(next MessageHandler) MessageHandler { return next }
	}

	return func(next MessageHandler) MessageHandler {
		return func(ctx context.Context, msg []byte) error {
			start := time.Now()
			err := next(ctx, msg)
			elapsed := time.Since(start)

			if err != nil {
				logger.Printf("frame dispatch error after %v: %v", elapsed, err)
			} else {
				logger.Printf("frame dispatched in %v (%d bytes)", elapsed, len(msg))
			}
			return err
		}
	}
}

// Metrics records message/error counters for every frame.
func Metrics(collector MetricsCollector) Middleware {
	if collector == nil {
		return func(next MessageHandler) MessageHandler { return next }
	}

	return func(next MessageHandler) MessageHandler {
		return func(ctx context.Context, msg []byte) error {
			start := time.Now()
			err := next(ctx, msg)
			collector.RecordMessageReceived(len(msg), time.Since(start))
			if err != nil {
				collector.RecordError()
			}
			return err
		}
	}
}

// Recovery turns a panic inside the handler chain into an error instead
// of crashing the reader goroutine.
func Recovery(logger logging.Logger) Middleware {
	if logger == nil {
		return func(next MessageHandler) MessageHandler { return next }
	}

	return func(next MessageHandler) MessageHandler {
		return func(ctx context.Context, msg []byte) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Printf("recovered from panic in frame dispatch: %v\n%s", r, debug.Stack())
					err = fmt.Errorf("middleware: recovered panic: %v", r)
				}
			}()
			return next(ctx, msg)
		}
	}
}
