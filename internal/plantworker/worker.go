// Package plantworker implements the per-plant actor: one reader
// goroutine demultiplexing inbound frames, one writer goroutine
// (inside transport.Socket) serializing outbound ones, a login state
// machine, and a heartbeat timer.
package plantworker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/correlator"
	"github.com/arjunrv/rti-go/internal/logging"
	"github.com/arjunrv/rti-go/internal/protocol"
	"github.com/arjunrv/rti-go/internal/transport"
	"github.com/arjunrv/rti-go/metrics"
	"github.com/arjunrv/rti-go/middleware"
)

// PlantId mirrors the root package's plant identity without importing
// it (the root package imports this one; importing back would cycle).
// Worker treats it as an opaque label for logging/tagging purposes.
type PlantId int

// Login carries the fields a worker needs to authenticate, filled in by
// the root package from its Credentials + plant affinity.
type Login struct {
	User        string
	Password    string
	SystemName  string
	AppName     string
	AppVersion  string
	InfraType   string
}

// AccountContext is what a successful login yields.
type AccountContext struct {
	FcmId      string
	IbId       string
	AccountId  string
	UserType   string
	TradeRoute string
}

// AccountRoute is one entry of the Order plant's account-list/trade-route
// cache.
type AccountRoute struct {
	AccountId  string
	TradeRoute string
}

// Option configures a Worker at construction time.
type Option func(*Worker)

// WithLogger overrides the default no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithMetrics sets the metrics collector. Without it the worker records
// no metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(w *Worker) { w.metricsCollector = c }
}

// WithHeartbeatInterval overrides the default 30s heartbeat cadence.
// Values above 30s violate the protocol's documented requirement
// (H <= 30s) and are clamped.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 && d <= 30*time.Second {
			w.heartbeatInterval = d
		}
	}
}

// WithTransportConfig overrides the socket's dial/ping tuning.
func WithTransportConfig(cfg transport.Config) Option {
	return func(w *Worker) { w.transportConfig = cfg }
}

// Worker owns one plant's WebSocket, its correlator table, its login
// state, and its heartbeat timer.
type Worker struct {
	id     PlantId
	name   string
	codec  codec.Codec
	events chan<- Event

	logger           logging.Logger
	metricsCollector *metrics.Collector
	transportConfig  transport.Config

	heartbeatInterval time.Duration

	socket *transport.Socket
	corr   *correlator.Table
	ids    *IDSource

	mu      sync.RWMutex
	state   State
	account AccountContext

	accountsMu sync.RWMutex
	accounts   []AccountRoute

	stopHeartbeat chan struct{}
	workerWG      sync.WaitGroup
}

// Event is the unsolicited-frame payload a Worker publishes for frames
// that carry no request_id.
type Event struct {
	Plant   PlantId
	Message codec.TypedMessage
}

// State mirrors the plant connection lifecycle.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Authenticating
	Authenticated
	Closing
)

// IDSource is a monotonic request id allocator shared by every Worker
// under one Client, so ids never collide across plants either.
type IDSource struct {
	mu   sync.Mutex
	next uint64
}

// NewIDSource returns a fresh, shared id allocator for a Client to pass
// to each of its Workers.
func NewIDSource() *IDSource { return &IDSource{} }

func (s *IDSource) allocate() string {
	s.mu.Lock()
	s.next++
	id := s.next
	s.mu.Unlock()
	return fmt.Sprintf("%d", id)
}

// New constructs a Worker for plant id/name, not yet connected.
func New(id PlantId, name string, c codec.Codec, ids *IDSource, events chan<- Event, opts ...Option) *Worker {
	w := &Worker{
		id:                id,
		name:              name,
		codec:             c,
		events:            events,
		ids:               ids,
		corr:              correlator.New(),
		logger:            logging.NoOp(),
		transportConfig:   transport.DefaultConfig(),
		heartbeatInterval: 30 * time.Second,
		stopHeartbeat:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// State reports the worker's current lifecycle state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Account returns the cached AccountContext from login.
func (w *Worker) Account() AccountContext {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.account
}

// ResolveAccount applies the Order plant's defaulting rule: an explicit
// accountId always wins; an empty one falls back to the first cached
// account. Tolerates an empty cache.
func (w *Worker) ResolveAccount(accountId string) string {
	if accountId != "" {
		return accountId
	}
	w.accountsMu.RLock()
	defer w.accountsMu.RUnlock()
	if len(w.accounts) == 0 {
		return ""
	}
	return w.accounts[0].AccountId
}

// ResolveTradeRoute applies the same defaulting rule for trade routes.
func (w *Worker) ResolveTradeRoute(tradeRoute string) string {
	if tradeRoute != "" {
		return tradeRoute
	}
	w.accountsMu.RLock()
	defer w.accountsMu.RUnlock()
	if len(w.accounts) == 0 {
		return ""
	}
	return w.accounts[0].TradeRoute
}

// Connect dials url, runs the login state machine to completion, and —
// for the Order plant — primes the account/trade-route cache before
// returning. On success the worker is Authenticated and its receive
// loop and heartbeat timer are running.
func (w *Worker) Connect(ctx context.Context, url string, login Login, isOrderPlant bool) error {
	w.setState(Connecting)

	w.socket = transport.New(w.name, url, w.transportConfig, w.metricsCollector)
	if err := w.socket.Connect(ctx); err != nil {
		w.setState(Disconnected)
		return &TransportError{Op: "connect", Err: err}
	}
	w.setState(Connected)

	handler := w.buildHandler()
	w.workerWG.Add(1)
	go w.receiveLoop(handler)

	w.setState(Authenticating)
	if err := w.login(ctx, login); err != nil {
		w.socket.Close()
		w.setState(Disconnected)
		return err
	}
	w.setState(Authenticated)

	if isOrderPlant {
		if err := w.primeAccountCache(ctx); err != nil {
			w.logger.Printf("%s: account cache priming failed: %v", w.name, err)
		}
	}

	w.workerWG.Add(1)
	go w.heartbeatLoop()

	return nil
}

func (w *Worker) buildHandler() middleware.MessageHandler {
	// w.metricsCollector is a *metrics.Collector; passing a nil one
	// straight into the MetricsCollector interface parameter would
	// produce a non-nil interface wrapping a nil pointer, defeating
	// Metrics' own nil check. Only hand it over when non-nil.
	var mc middleware.MetricsCollector
	if w.metricsCollector != nil {
		mc = w.metricsCollector
	}
	chain := middleware.Chain(
		middleware.Logging(w.logger),
		middleware.Metrics(mc),
		middleware.Recovery(w.logger),
	)
	return chain(w.dispatch)
}

func (w *Worker) receiveLoop(handler middleware.MessageHandler) {
	defer w.workerWG.Done()

	for frame := range w.socket.Frames() {
		if err := handler(context.Background(), frame); err != nil {
			w.logger.Printf("%s: dispatch error: %v", w.name, err)
		}
	}

	w.corr.FailAll(&ConnectionClosedError{Plant: w.name})
	w.setState(Disconnected)
}

// dispatch implements the receive loop invariant: every decoded frame
// is either (a) correlated by request_id, (b) a heartbeat response
// (dropped), (c) a reject routed like (a), or (d) published as an
// unsolicited Event.
func (w *Worker) dispatch(_ context.Context, frame []byte) error {
	env, err := w.codec.Decode(frame)
	if err != nil {
		w.logger.Printf("%s: malformed frame: %v", w.name, err)
		return &ProtocolError{Plant: w.name, Reason: err.Error()}
	}

	if env.TemplateID == protocol.HeartbeatResponse {
		return nil
	}

	requestID := env.Body.RequestID()

	if env.TemplateID == protocol.Reject {
		if w.metricsCollector != nil {
			w.metricsCollector.RecordReject()
		}
		rejErr := &RejectedError{
			Plant: w.name,
			Code:  env.Body.ResponseCode(),
			Text:  env.Body.ResponseText(),
		}
		if requestID == "" {
			w.publish(env.Body)
			return nil
		}
		if w.corr.CompleteSingle(requestID, nil, rejErr) {
			return nil
		}
		if w.corr.EndStream(requestID, rejErr) {
			return nil
		}
		w.logger.Printf("%s: reject for unknown request_id %s", w.name, requestID)
		return nil
	}

	if requestID == "" {
		w.publish(env.Body)
		return nil
	}

	info := protocol.Classify(env.TemplateID)
	if info.Shape == protocol.ShapeStream {
		var ok bool
		kind := classifyStreamFrame(env.Body.RpCode(), env.Body.HandlerRpCode())
		switch kind {
		case streamData:
			ok = w.corr.PushStream(requestID, env.Body)
		case streamEndOK:
			ok = w.corr.EndStream(requestID, nil)
		case streamEndError:
			ok = w.corr.EndStream(requestID, &RejectedError{Plant: w.name, Code: env.Body.RpCode(), Text: env.Body.ResponseText()})
		}
		if !ok {
			w.logger.Printf("%s: dropping stream frame for unknown request_id %s", w.name, requestID)
		}
		return nil
	}

	if w.corr.CompleteSingle(requestID, env.Body, nil) {
		return nil
	}

	// No pending entry for this request_id (already completed or
	// cancelled): drop the frame.
	w.logger.Printf("%s: dropping frame for unknown request_id %s", w.name, requestID)
	return nil
}

func (w *Worker) publish(msg codec.TypedMessage) {
	if w.events == nil {
		return
	}
	select {
	case w.events <- Event{Plant: w.id, Message: msg}:
	default:
		w.logger.Printf("%s: event channel full, dropping unsolicited frame", w.name)
	}
}

// streamFrameKind classifies one frame of a stream response per the
// protocol's rq_handler_rp_code/rp_code idiom.
type streamFrameKind int

const (
	streamData streamFrameKind = iota
	streamEndOK
	streamEndError
)

func classifyStreamFrame(rpCode, handlerRpCode string) streamFrameKind {
	if handlerRpCode == "0" {
		return streamData
	}
	if rpCode == "0" {
		return streamEndOK
	}
	return streamEndError
}

func (w *Worker) login(ctx context.Context, login Login) error {
	id := w.ids.allocate()
	body := codec.TypedMessage{
		"request_id":  id,
		"user":        login.User,
		"password":    login.Password,
		"system_name": login.SystemName,
		"app_name":    login.AppName,
		"app_version": login.AppVersion,
		"infra_type":  login.InfraType,
	}

	entry, ch := correlator.NewSingle()
	if err := w.corr.Insert(id, entry); err != nil {
		return &ProtocolError{Plant: w.name, Reason: err.Error()}
	}

	frame, err := w.codec.Encode(protocol.LoginRequest, body)
	if err != nil {
		w.corr.Cancel(id)
		return &ProtocolError{Plant: w.name, Reason: err.Error()}
	}
	if err := w.socket.Send(frame); err != nil {
		w.corr.Cancel(id)
		return &TransportError{Op: "send login", Err: err}
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			if rej, ok := res.Err.(*RejectedError); ok {
				return &LoginFailedError{Plant: w.name, Code: rej.Code, Text: rej.Text}
			}
			return res.Err
		}
		if res.Message.RpCode() != "0" {
			return &LoginFailedError{Plant: w.name, Code: res.Message.RpCode(), Text: res.Message.ResponseText()}
		}
		w.mu.Lock()
		w.account = AccountContext{
			FcmId:     str(res.Message["fcm_id"]),
			IbId:      str(res.Message["ib_id"]),
			AccountId: str(res.Message["account_id"]),
			UserType:  str(res.Message["user_type"]),
		}
		w.mu.Unlock()
		return nil
	case <-ctx.Done():
		w.corr.Cancel(id)
		return ctx.Err()
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// primeAccountCache issues RequestAccountList and RequestTradeRoutes as
// stream requests and caches their results, for the Order plant only.
func (w *Worker) primeAccountCache(ctx context.Context) error {
	accountSink, err := w.SendStream(ctx, protocol.AccountList, codec.TypedMessage{})
	if err != nil {
		return err
	}
	routeSink, err := w.SendStream(ctx, protocol.TradeRoutes, codec.TypedMessage{})
	if err != nil {
		return err
	}

	var accountIDs []string
	for msg := range accountSink.Data {
		if id := str(msg["account_id"]); id != "" {
			accountIDs = append(accountIDs, id)
		}
	}
	var tradeRoutes []string
	for msg := range routeSink.Data {
		if r := str(msg["trade_route"]); r != "" {
			tradeRoutes = append(tradeRoutes, r)
		}
	}

	routes := make([]AccountRoute, 0, len(accountIDs))
	for i, accountID := range accountIDs {
		route := ""
		if i < len(tradeRoutes) {
			route = tradeRoutes[i]
		}
		routes = append(routes, AccountRoute{AccountId: accountID, TradeRoute: route})
	}

	w.accountsMu.Lock()
	w.accounts = routes
	w.accountsMu.Unlock()

	return nil
}

func (w *Worker) heartbeatLoop() {
	defer w.workerWG.Done()

	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopHeartbeat:
			return
		case <-ticker.C:
			if err := w.SendFireAndForget(protocol.HeartbeatRequest, codec.TypedMessage{}); err != nil {
				w.logger.Printf("%s: heartbeat send failed: %v", w.name, err)
			}
		}
	}
}

// SendSingle issues a single-response request and blocks until it
// resolves, the context is cancelled, or the socket closes.
func (w *Worker) SendSingle(ctx context.Context, templateID uint16, body codec.TypedMessage) (codec.TypedMessage, error) {
	if w.State() != Authenticated {
		return nil, &InvalidStateError{Reason: fmt.Sprintf("%s plant not authenticated", w.name)}
	}

	id := w.ids.allocate()
	framed := cloneWithID(body, id)

	entry, ch := correlator.NewSingle()
	if err := w.corr.Insert(id, entry); err != nil {
		return nil, &ProtocolError{Plant: w.name, Reason: err.Error()}
	}

	frame, err := w.codec.Encode(templateID, framed)
	if err != nil {
		w.corr.Cancel(id)
		return nil, err
	}
	if err := w.socket.Send(frame); err != nil {
		w.corr.Cancel(id)
		return nil, &TransportError{Op: "send", Err: err}
	}

	select {
	case res := <-ch:
		return res.Message, res.Err
	case <-ctx.Done():
		w.corr.Cancel(id)
		return nil, ctx.Err()
	}
}

// SendStream issues a stream request and returns its sink immediately;
// the caller ranges over sink.Data until it closes.
func (w *Worker) SendStream(ctx context.Context, templateID uint16, body codec.TypedMessage) (correlator.StreamSink, error) {
	if w.State() != Authenticated && templateID != protocol.AccountList && templateID != protocol.TradeRoutes {
		return correlator.StreamSink{}, &InvalidStateError{Reason: fmt.Sprintf("%s plant not authenticated", w.name)}
	}

	id := w.ids.allocate()
	framed := cloneWithID(body, id)

	entry, sink := correlator.NewStream()
	if err := w.corr.Insert(id, entry); err != nil {
		return correlator.StreamSink{}, &ProtocolError{Plant: w.name, Reason: err.Error()}
	}

	frame, err := w.codec.Encode(templateID, framed)
	if err != nil {
		w.corr.Cancel(id)
		return correlator.StreamSink{}, err
	}
	if err := w.socket.Send(frame); err != nil {
		w.corr.Cancel(id)
		return correlator.StreamSink{}, &TransportError{Op: "send", Err: err}
	}

	return sink, nil
}

// SendFireAndForget writes a frame without registering correlation.
func (w *Worker) SendFireAndForget(templateID uint16, body codec.TypedMessage) error {
	frame, err := w.codec.Encode(templateID, body)
	if err != nil {
		return err
	}
	if err := w.socket.Send(frame); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

func cloneWithID(body codec.TypedMessage, id string) codec.TypedMessage {
	out := make(codec.TypedMessage, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	out["request_id"] = id
	return out
}

// Shutdown sends RequestLogout, waits up to 5s for ResponseLogout, then
// closes the socket regardless. Every still-pending correlator entry
// completes with ConnectionClosed.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.setState(Closing)
	close(w.stopHeartbeat)

	if w.socket != nil && w.socket.IsConnected() {
		id := w.ids.allocate()
		entry, ch := correlator.NewSingle()
		_ = w.corr.Insert(id, entry)

		frame, err := w.codec.Encode(protocol.LogoutRequest, codec.TypedMessage{"request_id": id})
		if err == nil {
			_ = w.socket.Send(frame)
			select {
			case <-ch:
			case <-time.After(5 * time.Second):
				w.corr.Cancel(id)
			case <-ctx.Done():
				w.corr.Cancel(id)
			}
		}
	}

	var closeErr error
	if w.socket != nil {
		closeErr = w.socket.Close()
	}

	w.corr.FailAll(&ConnectionClosedError{Plant: w.name})
	w.setState(Disconnected)
	w.workerWG.Wait()

	return closeErr
}
