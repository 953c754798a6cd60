package channel

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ngrev/internal/errors"
	"ngrev/internal/slogutil"
)

// Path is the websocket endpoint served by Server.
const Path = "/ws"

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10

	// DefaultRequestTimeout bounds how long Client.Send waits for a response.
	DefaultRequestTimeout = 30 * time.Second
)

// Server serves a mux over websocket connections. Requests on one
// connection are handled in order.
type Server struct {
	mux      *Mux
	codec    *Codec
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a websocket server for mux.
func NewServer(mux *Mux, codec *Codec, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Server{
		mux:    mux,
		codec:  codec,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.logger.Info("Client connected", "remote", r.RemoteAddr)
	defer s.logger.Info("Client disconnected", "remote", r.RemoteAddr)

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	var pingers sync.WaitGroup
	pingers.Add(1)
	go func() {
		defer pingers.Done()
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()
	defer pingers.Wait()
	defer cancel()

	for {
		msgType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Websocket read failed", "error", err.Error())
			}
			return
		}
		var req Request
		var resp *Response
		if err := s.codec.Decode(frame, msgType == websocket.BinaryMessage, &req); err != nil {
			resp = Failure(&req, errors.New(errors.InvalidRequest, "malformed request", err))
		} else {
			resp = s.mux.Dispatch(ctx, &req)
		}

		if err := writeFrame(conn, s.codec, resp); err != nil {
			s.logger.Warn("Websocket write failed", "topic", req.Topic, "error", err.Error())
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, codec *Codec, v interface{}) error {
	data, compressed, err := codec.Encode(v)
	if err != nil {
		return err
	}
	msgType := websocket.TextMessage
	if compressed {
		msgType = websocket.BinaryMessage
	}
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteMessage(msgType, data)
}

// ListenAndServe serves handler at Path on addr until ctx is done.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(Path, handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Worker listening", "addr", addr, "path", Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Client is a websocket Channel.
type Client struct {
	conn    *websocket.Conn
	codec   *Codec
	logger  *slog.Logger
	timeout time.Duration

	slot    chan struct{}
	frames  chan *Response
	readErr error

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to a worker served at addr (host:port).
func Dial(ctx context.Context, addr string, codec *Codec, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	url := "ws://" + addr + Path
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.New(errors.ChannelClosed, "connecting to "+url, err)
	}
	logger.Debug("Connected to worker", "url", url)

	c := &Client{
		conn:    conn,
		codec:   codec,
		logger:  logger,
		timeout: timeout,
		slot:    make(chan struct{}, 1),
		frames:  make(chan *Response, 8),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// readLoop keeps reading so control frames are answered between requests.
func (c *Client) readLoop() {
	defer close(c.frames)
	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		var resp Response
		if err := c.codec.Decode(frame, msgType == websocket.BinaryMessage, &resp); err != nil {
			c.logger.Warn("Dropping malformed response", "error", err.Error())
			continue
		}
		select {
		case c.frames <- &resp:
		default:
			c.logger.Warn("Dropping unclaimed response", "id", resp.ID, "topic", resp.Topic)
		}
	}
}

// Send implements Channel.
func (c *Client) Send(ctx context.Context, topic string, payload interface{}) (*Response, error) {
	req, err := NewRequest(topic, payload)
	if err != nil {
		return nil, errors.New(errors.InvalidRequest, "encoding "+topic+" payload", err)
	}

	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, errClosed()
	}
	defer func() { <-c.slot }()

	if err := writeFrame(c.conn, c.codec, req); err != nil {
		return nil, errors.New(errors.ChannelClosed, "sending "+topic, err)
	}

	// The worker runs a written request to completion, so ctx no longer
	// applies; only the request timeout or a closed connection gives up on
	// the reply.
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	for {
		select {
		case resp, ok := <-c.frames:
			if !ok {
				return nil, errors.New(errors.ChannelClosed, "waiting for "+topic, c.readErr)
			}
			if resp.ID != req.ID {
				c.logger.Warn("Dropping stale response", "id", resp.ID, "topic", resp.Topic)
				continue
			}
			return resp, nil
		case <-timer.C:
			return nil, errors.New(errors.InternalError, "waiting for "+topic, context.DeadlineExceeded)
		case <-c.closed:
			return nil, errClosed()
		}
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteWait))
		err = c.conn.Close()
	})
	return err
}
