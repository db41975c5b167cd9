package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arjunrv/rti-go/codec"
)

func mockBootstrapServer(t *testing.T, systems []string, gatewayURLs PlantURLs, gateways []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		c := codec.NewJSONCodec()

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := c.Decode(raw)
		if err != nil || env.TemplateID != templateSystemInfo {
			t.Errorf("expected system info request, got %+v err=%v", env, err)
			return
		}
		resp, err := c.Encode(templateSystemInfoResp, codec.TypedMessage{"system_names": systems})
		if err != nil {
			t.Fatal(err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
			return
		}

		_, raw, err = conn.ReadMessage()
		if err != nil {
			return
		}
		env, err = c.Decode(raw)
		if err != nil || env.TemplateID != templateGatewayInfo {
			t.Errorf("expected gateway info request, got %+v err=%v", env, err)
			return
		}
		resp, err = c.Encode(templateGatewayInfoResp, codec.TypedMessage{
			"gateway_names":    gateways,
			"ticker_plant_url": gatewayURLs["ticker"],
			"history_plant_url": gatewayURLs["history"],
			"order_plant_url":  gatewayURLs["order"],
			"pnl_plant_url":    gatewayURLs["pnl"],
		})
		if err != nil {
			t.Fatal(err)
		}
		_ = conn.WriteMessage(websocket.TextMessage, resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestResolveSuccess(t *testing.T) {
	wantURLs := PlantURLs{
		"ticker":  "wss://example.test/ticker",
		"history": "wss://example.test/history",
		"order":   "wss://example.test/order",
		"pnl":     "wss://example.test/pnl",
	}
	srv := mockBootstrapServer(t, []string{"Rithmic Paper Trading"}, wantURLs, []string{"Chicago Area"})

	r := NewBootstrapResolver(wsURL(srv), codec.NewJSONCodec())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	urls, err := r.Resolve(ctx, "Rithmic Paper Trading", "Chicago Area")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for plant, want := range wantURLs {
		if urls[plant] != want {
			t.Errorf("urls[%q] = %q, want %q", plant, urls[plant], want)
		}
	}
}

func TestResolveSystemNotFound(t *testing.T) {
	srv := mockBootstrapServer(t, []string{"Rithmic Paper Trading"}, PlantURLs{}, []string{"Chicago Area"})

	r := NewBootstrapResolver(wsURL(srv), codec.NewJSONCodec())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.Resolve(ctx, "Nonexistent System", "Chicago Area")
	if err == nil {
		t.Fatal("expected SystemNotFoundError, got nil")
	}
	if _, ok := err.(*SystemNotFoundError); !ok {
		t.Fatalf("error type = %T, want *SystemNotFoundError", err)
	}
}

func TestResolveGatewayNotFound(t *testing.T) {
	srv := mockBootstrapServer(t, []string{"Rithmic Paper Trading"}, PlantURLs{}, []string{"Chicago Area"})

	r := NewBootstrapResolver(wsURL(srv), codec.NewJSONCodec())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.Resolve(ctx, "Rithmic Paper Trading", "Nonexistent Gateway")
	if err == nil {
		t.Fatal("expected GatewayNotFoundError, got nil")
	}
	if _, ok := err.(*GatewayNotFoundError); !ok {
		t.Fatalf("error type = %T, want *GatewayNotFoundError", err)
	}
}

func TestResolveTestSystemOverrideSkipsNetwork(t *testing.T) {
	// No server is started; a real dial would fail, proving the override
	// short-circuits discovery entirely.
	r := NewBootstrapResolver("ws://127.0.0.1:1", codec.NewJSONCodec())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	urls, err := r.Resolve(ctx, testSystemName, "ignored")
	if err != nil {
		t.Fatalf("Resolve with test override: %v", err)
	}
	if urls["ticker"] != testGatewayOverride["ticker"] {
		t.Errorf("urls[ticker] = %q, want the compiled-in test override", urls["ticker"])
	}
}
