// Package transport owns the single duplex WebSocket each PlantWorker
// (and the gateway resolver's short-lived bootstrap connection) drives.
// Only the writer goroutine ever writes to the underlying conn; only
// the reader goroutine ever reads from it — no socket-level mutex is
// needed because neither side is ever touched concurrently from two
// goroutines.
package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arjunrv/rti-go/metrics"
)

// Config tunes dial timeouts, ping cadence, and buffer sizing for one
// Socket.
type Config struct {
	ConnectTimeout  time.Duration
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	PongWait        time.Duration
	ReadBufferSize  int
	WriteBufferSize int
	SendQueueDepth  int
}

// DefaultConfig returns the module's default socket tuning: a 30s ping
// interval comfortably under Rithmic's documented 60s server-side
// heartbeat timeout, and a 256-deep send queue matching the module's
// buffered-channel convention for worker-to-writer handoff.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:  30 * time.Second,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		PongWait:        70 * time.Second,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		SendQueueDepth:  256,
	}
}

// Socket is a single WebSocket duplex connection with goroutine-based
// lifecycle management: one reader goroutine, one writer goroutine.
type Socket struct {
	id     string
	url    string
	config Config

	connMu sync.RWMutex
	conn   *websocket.Conn

	sendCh chan []byte
	frames chan []byte
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once

	metrics *metrics.Collector

	lastPingMu sync.RWMutex
	lastPing   time.Time
	lastPong   time.Time

	stateMu   sync.RWMutex
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a Socket bound to url, not yet connected. collector may
// be nil.
func New(id, url string, config Config, collector *metrics.Collector) *Socket {
	ctx, cancel := context.WithCancel(context.Background())
	return &Socket{
		id:      id,
		url:     url,
		config:  config,
		metrics: collector,
		sendCh:  make(chan []byte, config.SendQueueDepth),
		frames:  make(chan []byte, config.SendQueueDepth),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Frames returns the channel onto which every inbound frame is
// delivered, in the order the reader goroutine received them. It is
// closed when the reader goroutine exits.
func (s *Socket) Frames() <-chan []byte { return s.frames }

// Connect dials the socket and starts the reader and writer goroutines.
func (s *Socket) Connect(ctx context.Context) error {
	s.stateMu.Lock()
	if s.connected {
		s.stateMu.Unlock()
		return fmt.Errorf("transport: socket %s already connected", s.id)
	}
	s.stateMu.Unlock()

	connectCtx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.ConnectTimeout,
		ReadBufferSize:   s.config.ReadBufferSize,
		WriteBufferSize:  s.config.WriteBufferSize,
	}

	conn, _, err := dialer.DialContext(connectCtx, s.url, nil)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", s.url, err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.stateMu.Lock()
	s.connected = true
	s.stateMu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordConnection(true)
	}

	go s.readLoop()
	go s.writeLoop()

	return nil
}

func (s *Socket) readLoop() {
	defer func() {
		close(s.frames)
		s.disconnect()
		s.signalDone()
	}()

	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()
	if conn == nil {
		return
	}

	if s.config.PongWait > 0 {
		conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
	}
	conn.SetPongHandler(func(string) error {
		s.lastPingMu.Lock()
		s.lastPong = time.Now()
		s.lastPingMu.Unlock()

		if s.config.PongWait > 0 {
			conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		}
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.metrics != nil {
				s.metrics.RecordError()
			}
			return
		}

		select {
		case s.frames <- message:
		case <-s.stopCh:
			return
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Socket) writeLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()
	if conn == nil {
		return
	}

	for {
		select {
		case <-s.stopCh:
			return
		case <-s.ctx.Done():
			return
		case message := <-s.sendCh:
			if s.config.WriteTimeout > 0 {
				conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if s.metrics != nil {
					s.metrics.RecordError()
				}
				return
			}
			if s.metrics != nil {
				s.metrics.RecordMessageSent(len(message))
			}

		case <-ticker.C:
			if s.config.WriteTimeout > 0 {
				conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if s.metrics != nil {
					s.metrics.RecordError()
				}
				return
			}
			s.lastPingMu.Lock()
			s.lastPing = time.Now()
			s.lastPingMu.Unlock()
		}
	}
}

// Send enqueues message for the writer goroutine. Non-blocking: returns
// an error if the socket is not connected or the send queue is full.
func (s *Socket) Send(message []byte) error {
	s.stateMu.RLock()
	connected := s.connected
	s.stateMu.RUnlock()
	if !connected {
		return fmt.Errorf("transport: socket %s not connected", s.id)
	}

	select {
	case s.sendCh <- message:
		return nil
	case <-s.ctx.Done():
		return fmt.Errorf("transport: socket %s closed", s.id)
	default:
		return fmt.Errorf("transport: send queue full for socket %s", s.id)
	}
}

func (s *Socket) disconnect() {
	s.stateMu.Lock()
	if !s.connected {
		s.stateMu.Unlock()
		return
	}
	s.connected = false
	s.stateMu.Unlock()

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordConnection(false)
	}
}

func (s *Socket) signalDone() {
	s.once.Do(func() { close(s.doneCh) })
}

// Close stops both goroutines and closes the underlying connection,
// waiting up to 5s for the reader goroutine to unwind.
func (s *Socket) Close() error {
	s.stateMu.RLock()
	connected := s.connected
	s.stateMu.RUnlock()
	if !connected {
		return nil
	}

	close(s.stopCh)
	s.cancel()

	select {
	case <-s.doneCh:
	case <-time.After(5 * time.Second):
	}

	s.disconnect()
	return nil
}

// IsConnected reports whether the socket is currently connected.
func (s *Socket) IsConnected() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.connected
}
