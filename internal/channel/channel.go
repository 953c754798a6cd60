package channel

import (
	"context"
	"log/slog"
	"sync"

	"ngrev/internal/errors"
	"ngrev/internal/slogutil"
)

// Channel sends requests to a worker. Implementations keep at most one
// request outstanding; concurrent Send calls wait their turn.
type Channel interface {
	Send(ctx context.Context, topic string, payload interface{}) (*Response, error)
	Close() error
}

type call struct {
	ctx   context.Context
	req   *Request
	reply chan *Response
}

// Local is an in-process channel. A single worker goroutine dispatches
// requests to the mux one at a time.
type Local struct {
	mux    *Mux
	logger *slog.Logger

	slot  chan struct{}
	calls chan call
	done  chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewLocal starts the worker goroutine for mux.
func NewLocal(mux *Mux, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	l := &Local{
		mux:    mux,
		logger: logger,
		slot:   make(chan struct{}, 1),
		calls:  make(chan call),
		done:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Local) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case c := <-l.calls:
			c.reply <- l.mux.Dispatch(c.ctx, c.req)
		}
	}
}

// Send implements Channel.
func (l *Local) Send(ctx context.Context, topic string, payload interface{}) (*Response, error) {
	req, err := NewRequest(topic, payload)
	if err != nil {
		return nil, errors.New(errors.InvalidRequest, "encoding "+topic+" payload", err)
	}

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, errClosed()
	}
	defer func() { <-l.slot }()

	c := call{ctx: ctx, req: req, reply: make(chan *Response, 1)}
	select {
	case l.calls <- c:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, errClosed()
	}

	// The worker finishes a dispatched request even if ctx ends, so the
	// reply is always collected before the slot is released.
	return <-c.reply, nil
}

// Close stops the worker goroutine after the request in flight.
func (l *Local) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()
	})
	return nil
}

func errClosed() error {
	return errors.New(errors.ChannelClosed, "channel closed", nil)
}
