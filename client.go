// Package rti implements the core of a Rithmic R|Protocol trading
// client: gateway discovery, per-plant login, request/response
// correlation across four independently-authenticated WebSocket
// plants, and a merged event stream for everything that arrives
// unsolicited.
package rti

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/gateway"
	"github.com/arjunrv/rti-go/internal/logging"
	"github.com/arjunrv/rti-go/internal/plantworker"
	"github.com/arjunrv/rti-go/internal/transport"
	"github.com/arjunrv/rti-go/metrics"
)

// eventChannelDepth bounds both the raw channel all four workers publish
// into and the merged unsolicited-event channel pump forwards to. When
// the merged channel is full, pump drops the frame with a logged
// warning.
const eventChannelDepth = 256

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithCodec overrides the default JSON stand-in codec. Production
// embedders supply one backed by the real generated protocol bindings.
func WithCodec(c codec.Codec) ClientOption {
	return func(cl *Client) { cl.codec = c }
}

// WithLogger overrides the default no-op logger.
func WithLogger(l logging.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// WithMetrics overrides the default metrics collector.
func WithMetrics(c *metrics.Collector) ClientOption {
	return func(cl *Client) { cl.metrics = c }
}

// WithHeartbeatInterval overrides the default 30s heartbeat cadence for
// every plant. Values above 30s are clamped by the underlying worker.
func WithHeartbeatInterval(d time.Duration) ClientOption {
	return func(cl *Client) { cl.heartbeatInterval = d }
}

// WithTransportConfig overrides the dial/ping tuning shared by all four
// plant sockets.
func WithTransportConfig(cfg transport.Config) ClientOption {
	return func(cl *Client) { cl.transportConfig = cfg }
}

// WithGatewayResolver overrides gateway discovery, for pointing Connect
// at a mock bootstrap server in tests instead of the real endpoint.
func WithGatewayResolver(r gateway.Resolver) ClientOption {
	return func(cl *Client) { cl.resolver = r }
}

// Client is the façade over all four Rithmic plants. It is safe to
// share across goroutines once Connect has returned; Connect itself
// must not be called concurrently with another Connect on the same
// Client.
type Client struct {
	creds Credentials

	codec             codec.Codec
	logger            logging.Logger
	metrics           *metrics.Collector
	transportConfig   transport.Config
	heartbeatInterval time.Duration
	resolver          gateway.Resolver

	ids *plantworker.IDSource

	mu        sync.RWMutex
	sessionID string
	workers   map[PlantId]*plantworker.Worker
	events    chan Event
	rawEvents chan plantworker.Event
}

// NewClient constructs a Client bound to creds. No network activity
// occurs until Connect is called.
func NewClient(creds Credentials, opts ...ClientOption) *Client {
	cl := &Client{
		creds:             creds,
		codec:             codec.NewJSONCodec(),
		logger:            logging.NoOp(),
		metrics:           metrics.NewCollector(),
		transportConfig:   transport.DefaultConfig(),
		heartbeatInterval: 30 * time.Second,
		ids:               plantworker.NewIDSource(),
		workers:           make(map[PlantId]*plantworker.Worker),
	}
	for _, opt := range opts {
		opt(cl)
	}
	if cl.resolver == nil {
		cl.resolver = gateway.NewBootstrapResolver("", cl.codec)
	}
	return cl
}

// plantURLKey maps a PlantId to the key gateway.PlantURLs uses for it.
func plantURLKey(p PlantId) string {
	switch p {
	case Ticker:
		return "ticker"
	case History:
		return "history"
	case Order:
		return "order"
	case PnL:
		return "pnl"
	default:
		return ""
	}
}

// Connect resolves gateway URLs, starts all four plant workers in
// parallel, and waits for every one to complete its login. It returns
// a single channel multiplexing unsolicited events from all four
// plants, tagged with their originating PlantId. Calling Connect twice
// on the same Client fails with InvalidState.
func (c *Client) Connect(ctx context.Context) (<-chan Event, error) {
	c.mu.Lock()
	if len(c.workers) != 0 {
		c.mu.Unlock()
		return nil, &InvalidState{Reason: "Connect called on an already-connected Client"}
	}
	c.mu.Unlock()

	sessionID := uuid.NewString()
	c.logger.Printf("rti: session %s connecting (system=%s gateway=%s)", sessionID, c.creds.SystemName, c.creds.GatewayName)

	urls, err := c.resolver.Resolve(ctx, c.creds.SystemName, c.creds.GatewayName)
	if err != nil {
		err = wrapResolverError(err)
		c.logger.Printf("rti: session %s gateway resolution failed: %v", sessionID, err)
		return nil, err
	}

	rawEvents := make(chan plantworker.Event, eventChannelDepth)
	workers := make(map[PlantId]*plantworker.Worker, len(allPlants))
	for _, id := range allPlants {
		workers[id] = plantworker.New(
			plantworker.PlantId(id), id.String(), c.codec, c.ids, rawEvents,
			plantworker.WithLogger(c.logger),
			plantworker.WithMetrics(c.metrics),
			plantworker.WithHeartbeatInterval(c.heartbeatInterval),
			plantworker.WithTransportConfig(c.transportConfig),
		)
	}

	type result struct {
		id  PlantId
		err error
	}
	results := make(chan result, len(allPlants))
	for _, id := range allPlants {
		go func(id PlantId) {
			url := urls[plantURLKey(id)]
			login := plantworker.Login{
				User:       c.creds.User,
				Password:   c.creds.Password,
				SystemName: c.creds.SystemName,
				AppName:    c.creds.AppName,
				AppVersion: c.creds.AppVersion,
				InfraType:  id.infraType(),
			}
			err := workers[id].Connect(ctx, url, login, id == Order)
			results <- result{id: id, err: err}
		}(id)
	}

	var firstErr error
	for range allPlants {
		r := <-results
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s plant: %w", r.id, wrapWorkerError(r.id, r.err))
		}
	}
	if firstErr != nil {
		c.logger.Printf("rti: session %s failed to connect: %v", sessionID, firstErr)
		for _, w := range workers {
			_ = w.Shutdown(context.Background())
		}
		return nil, firstErr
	}

	c.mu.Lock()
	c.sessionID = sessionID
	c.workers = workers
	c.events = make(chan Event, eventChannelDepth)
	c.rawEvents = rawEvents
	c.mu.Unlock()

	c.logger.Printf("rti: session %s connected, all plants authenticated", sessionID)

	go c.pump(rawEvents)

	return c.events, nil
}

// pump converts plantworker.Event into the public Event shape and
// forwards it, until the shared raw channel is closed (which Disconnect
// does once every worker's receive loop has exited).
func (c *Client) pump(rawEvents <-chan plantworker.Event) {
	for ev := range rawEvents {
		select {
		case c.events <- Event{Plant: PlantId(ev.Plant), Message: ev.Message}:
		default:
			c.logger.Printf("rti: event channel full, dropping frame from %s plant", PlantId(ev.Plant))
		}
	}
	close(c.events)
}

// Disconnect tears down every plant worker in parallel and closes the
// event channel returned by Connect. It is safe to call on a Client
// that was never connected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	workers := c.workers
	sessionID := c.sessionID
	rawEvents := c.rawEvents
	c.workers = make(map[PlantId]*plantworker.Worker)
	c.rawEvents = nil
	c.mu.Unlock()

	if len(workers) == 0 {
		return nil
	}

	c.logger.Printf("rti: session %s disconnecting", sessionID)

	var wg sync.WaitGroup
	errs := make([]error, 0, len(workers))
	var errsMu sync.Mutex

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, w := range workers {
		wg.Add(1)
		go func(w *plantworker.Worker) {
			defer wg.Done()
			if err := w.Shutdown(ctx); err != nil {
				errsMu.Lock()
				errs = append(errs, err)
				errsMu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	// Every receive loop has exited, so nothing publishes any more;
	// closing the raw channel lets pump close the public one.
	if rawEvents != nil {
		close(rawEvents)
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// AccountInfo returns the Order plant's cached AccountContext,
// resolved against its account-list/trade-route cache. Returns the
// zero value if the Client has not connected.
func (c *Client) AccountInfo() AccountContext {
	w, err := c.worker(Order)
	if err != nil {
		return AccountContext{}
	}
	acc := w.Account()
	return AccountContext{
		FcmId:      acc.FcmId,
		IbId:       acc.IbId,
		UserType:   acc.UserType,
		AccountId:  w.ResolveAccount(""),
		TradeRoute: w.ResolveTradeRoute(""),
	}
}

// worker returns the connected worker for id, or InvalidState if the
// Client is not connected.
func (c *Client) worker(id PlantId) (*plantworker.Worker, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.workers[id]
	if !ok {
		return nil, &InvalidState{Reason: fmt.Sprintf("%s plant not connected", id)}
	}
	return w, nil
}

// sendSingle is the shared plumbing behind every single-response typed
// method: look up the plant's worker and delegate.
func (c *Client) sendSingle(ctx context.Context, plant PlantId, templateID uint16, body codec.TypedMessage) (codec.TypedMessage, error) {
	w, err := c.worker(plant)
	if err != nil {
		return nil, err
	}
	msg, err := w.SendSingle(ctx, templateID, body)
	if err != nil {
		return nil, wrapWorkerError(plant, err)
	}
	return msg, nil
}

// sendStream is the shared plumbing behind every stream-response typed
// method.
func (c *Client) sendStream(ctx context.Context, plant PlantId, templateID uint16, body codec.TypedMessage) (<-chan codec.TypedMessage, <-chan error, error) {
	w, err := c.worker(plant)
	if err != nil {
		return nil, nil, err
	}
	sink, err := w.SendStream(ctx, templateID, body)
	if err != nil {
		return nil, nil, wrapWorkerError(plant, err)
	}
	return sink.Data, sink.Err, nil
}

// sendFireAndForget is the shared plumbing behind methods with no
// response at all (heartbeat is sent internally; logout goes through
// Disconnect; this exists for completeness of the actor contract).
func (c *Client) sendFireAndForget(plant PlantId, templateID uint16, body codec.TypedMessage) error {
	w, err := c.worker(plant)
	if err != nil {
		return err
	}
	if err := w.SendFireAndForget(templateID, body); err != nil {
		return wrapWorkerError(plant, err)
	}
	return nil
}

// wrapWorkerError converts an internal/plantworker error (which knows
// only a string plant name, to avoid importing this package back) into
// the public, typed error taxonomy keyed by PlantId.
func wrapWorkerError(plant PlantId, err error) error {
	switch e := err.(type) {
	case *plantworker.TransportError:
		return &TransportError{Plant: plant, Op: e.Op, Err: e.Err}
	case *plantworker.ProtocolError:
		return &ProtocolError{Plant: plant, Reason: e.Reason}
	case *plantworker.RejectedError:
		return &Rejected{Plant: plant, Code: e.Code, Text: e.Text}
	case *plantworker.LoginFailedError:
		return &LoginFailed{Plant: plant, Code: e.Code, Text: e.Text}
	case *plantworker.ConnectionClosedError:
		return &ConnectionClosed{Plant: plant}
	case *plantworker.InvalidStateError:
		return &InvalidState{Reason: e.Reason}
	default:
		return err
	}
}

// wrapResolverError converts an internal/gateway error into the public
// taxonomy, the same way wrapWorkerError does for plant workers. A
// custom gateway.Resolver supplied via WithGatewayResolver may return
// any error it likes; anything not in the gateway package's own
// taxonomy passes through unchanged.
func wrapResolverError(err error) error {
	switch e := err.(type) {
	case *gateway.SystemNotFoundError:
		return &NotFound{Kind: "system", Name: e.Name}
	case *gateway.GatewayNotFoundError:
		return &NotFound{Kind: "gateway", Name: e.Name}
	case *gateway.BootstrapFailedError:
		return &BootstrapFailed{Err: e.Err}
	default:
		return err
	}
}
