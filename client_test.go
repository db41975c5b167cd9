package rti

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/gateway"
	"github.com/arjunrv/rti-go/internal/protocol"
)

// fakeResolver points every plant at the same mock server; the server
// tells the four connections apart by the messages each sends, not by
// URL.
type fakeResolver struct {
	url string
	err error
}

func (f fakeResolver) Resolve(ctx context.Context, systemName, gatewayName string) (gateway.PlantURLs, error) {
	if f.err != nil {
		return nil, f.err
	}
	return gateway.PlantURLs{"ticker": f.url, "history": f.url, "order": f.url, "pnl": f.url}, nil
}

func mockPlantServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go serveConn(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serveConn(conn *websocket.Conn) {
	defer conn.Close()
	c := codec.NewJSONCodec()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := c.Decode(raw)
		if err != nil {
			return
		}

		switch env.TemplateID {
		case protocol.LoginRequest:
			resp, _ := c.Encode(protocol.LoginResponse, codec.TypedMessage{
				"request_id": env.Body["request_id"],
				"rp_code":    "0",
				"fcm_id":     "TestFCM",
				"ib_id":      "TestIB",
				"account_id": "ACC1",
			})
			_ = conn.WriteMessage(websocket.TextMessage, resp)

		case protocol.AccountList:
			rid := env.Body["request_id"]
			resp, _ := c.Encode(protocol.AccountList, codec.TypedMessage{
				"request_id": rid, "rq_handler_rp_code": "0", "account_id": "ACC1",
			})
			_ = conn.WriteMessage(websocket.TextMessage, resp)
			resp, _ = c.Encode(protocol.AccountList, codec.TypedMessage{"request_id": rid, "rp_code": "0"})
			_ = conn.WriteMessage(websocket.TextMessage, resp)

		case protocol.TradeRoutes:
			rid := env.Body["request_id"]
			resp, _ := c.Encode(protocol.TradeRoutes, codec.TypedMessage{
				"request_id": rid, "rq_handler_rp_code": "0", "trade_route": "RouteA",
			})
			_ = conn.WriteMessage(websocket.TextMessage, resp)
			resp, _ = c.Encode(protocol.TradeRoutes, codec.TypedMessage{"request_id": rid, "rp_code": "0"})
			_ = conn.WriteMessage(websocket.TextMessage, resp)

		case protocol.LogoutRequest:
			resp, _ := c.Encode(protocol.LogoutResponse, codec.TypedMessage{"request_id": env.Body["request_id"], "rp_code": "0"})
			_ = conn.WriteMessage(websocket.TextMessage, resp)

		case protocol.HeartbeatRequest:
			// fire-and-forget, no response expected.
		}
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientConnectAndAccountInfo(t *testing.T) {
	srv := mockPlantServer(t)
	creds := Credentials{User: "u", Password: "p", SystemName: "Rithmic Test", GatewayName: "Chicago Area", AppName: "test", AppVersion: "1"}
	client := NewClient(creds, WithGatewayResolver(fakeResolver{url: wsURL(srv)}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := client.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Disconnect()

	info := client.AccountInfo()
	if info.FcmId != "TestFCM" || info.IbId != "TestIB" {
		t.Errorf("AccountInfo() = %+v, want fcm_id=TestFCM ib_id=TestIB", info)
	}
	if info.AccountId != "ACC1" {
		t.Errorf("AccountInfo().AccountId = %q, want ACC1", info.AccountId)
	}
	if info.TradeRoute != "RouteA" {
		t.Errorf("AccountInfo().TradeRoute = %q, want RouteA", info.TradeRoute)
	}

	// A second Connect on an already-connected Client must fail.
	if _, err := client.Connect(ctx); err == nil {
		t.Error("second Connect call succeeded, want InvalidState error")
	} else if _, ok := err.(*InvalidState); !ok {
		t.Errorf("second Connect error = %T (%v), want *InvalidState", err, err)
	}

	_ = events
}

func TestClientConnectFailsOnGatewayError(t *testing.T) {
	resolverErr := &gateway.SystemNotFoundError{Name: "Nonexistent"}
	client := NewClient(Credentials{SystemName: "Nonexistent"}, WithGatewayResolver(fakeResolver{err: resolverErr}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.Connect(ctx)
	notFound, ok := err.(*NotFound)
	if !ok {
		t.Fatalf("Connect error = %T (%v), want *NotFound", err, err)
	}
	if notFound.Kind != "system" || notFound.Name != "Nonexistent" {
		t.Errorf("NotFound = %+v, want kind=system name=Nonexistent", notFound)
	}
}

func TestClientDisconnectBeforeConnectIsNoop(t *testing.T) {
	client := NewClient(Credentials{})
	if err := client.Disconnect(); err != nil {
		t.Errorf("Disconnect on an unconnected Client: %v", err)
	}
}
