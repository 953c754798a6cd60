package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"ngrev/internal/errors"
	"ngrev/internal/slogutil"
)

// Handler answers one topic. The returned value becomes the JSON payload of
// a success response; a non-nil error becomes a failure response.
type Handler func(ctx context.Context, req *Request) (interface{}, error)

// Mux routes requests to handlers by topic.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewMux creates an empty mux.
func NewMux(logger *slog.Logger) *Mux {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Mux{handlers: make(map[string]Handler), logger: logger}
}

// Handle registers h for topic, replacing any previous handler.
func (m *Mux) Handle(topic string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = h
}

// Topics lists the registered topics in sorted order.
func (m *Mux) Topics() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	topics := make([]string, 0, len(m.handlers))
	for t := range m.handlers {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Dispatch runs the handler for req and always returns a response. Handler
// panics are reported as internal errors.
func (m *Mux) Dispatch(ctx context.Context, req *Request) (resp *Response) {
	m.mu.RLock()
	h, ok := m.handlers[req.Topic]
	m.mu.RUnlock()
	if !ok {
		return Failure(req, errors.Newf(errors.InvalidRequest, "unknown topic %q", req.Topic))
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Handler panicked",
				"topic", req.Topic,
				"panic", fmt.Sprint(r),
			)
			resp = Failure(req, errors.Newf(errors.InternalError, "handler for %s panicked: %v", req.Topic, r))
		}
	}()

	payload, err := h(ctx, req)
	if err != nil {
		m.logger.Debug("Request failed",
			"topic", req.Topic,
			"id", req.ID,
			"code", string(errors.CodeOf(err)),
			"error", err.Error(),
		)
		return Failure(req, err)
	}
	m.logger.Debug("Request handled",
		"topic", req.Topic,
		"id", req.ID,
		"duration", time.Since(start).String(),
	)
	return Success(req, payload)
}
