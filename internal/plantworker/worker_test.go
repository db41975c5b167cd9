package plantworker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/protocol"
)

// mockServer upgrades a single inbound WebSocket connection and hands
// it to handle, run on its own goroutine, for the test to drive.
func mockServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// readFrame decodes one inbound client frame as a plain map, for a
// mock server to inspect request_id/fields without pulling in the
// worker's own codec.
func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("server decode: %v", err)
	}
	return body
}

func writeFrame(t *testing.T, conn *websocket.Conn, templateID int, fields map[string]any) {
	t.Helper()
	body := map[string]any{"template_id": templateID}
	for k, v := range fields {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("server encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func newTestWorker(events chan Event) *Worker {
	return New(1, "Ticker", codec.NewJSONCodec(), NewIDSource(), events, WithHeartbeatInterval(30*time.Second))
}

func TestConnectLoginSuccess(t *testing.T) {
	srv := mockServer(t, func(conn *websocket.Conn) {
		req := readFrame(t, conn)
		writeFrame(t, conn, protocol.LoginResponse, map[string]any{
			"request_id": req["request_id"],
			"rp_code":    "0",
			"fcm_id":     "TestFCM",
			"ib_id":      "TestIB",
		})
		// Keep the connection open so the worker's heartbeat loop has
		// somewhere to write; the test closes it via Shutdown.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	events := make(chan Event, 8)
	w := newTestWorker(events)
	login := Login{User: "u", Password: "p", SystemName: "Rithmic Test", AppName: "test", AppVersion: "1"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Connect(ctx, wsURL(srv), login, false); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if w.State() != Authenticated {
		t.Fatalf("State() = %v, want Authenticated", w.State())
	}
	acc := w.Account()
	if acc.FcmId != "TestFCM" || acc.IbId != "TestIB" {
		t.Errorf("Account() = %+v, want fcm_id=TestFCM ib_id=TestIB", acc)
	}

	_ = w.Shutdown(context.Background())
}

func TestConnectLoginReject(t *testing.T) {
	srv := mockServer(t, func(conn *websocket.Conn) {
		req := readFrame(t, conn)
		writeFrame(t, conn, protocol.LoginResponse, map[string]any{
			"request_id":    req["request_id"],
			"rp_code":       "1",
			"response_text": "bad password",
		})
	})

	events := make(chan Event, 8)
	w := newTestWorker(events)
	login := Login{User: "u", Password: "wrong", SystemName: "Rithmic Test"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := w.Connect(ctx, wsURL(srv), login, false)
	if err == nil {
		t.Fatal("expected login failure, got nil")
	}
	loginErr, ok := err.(*LoginFailedError)
	if !ok {
		t.Fatalf("error type = %T, want *LoginFailedError", err)
	}
	if loginErr.Code != "1" || loginErr.Text != "bad password" {
		t.Errorf("LoginFailedError = %+v, want code=1 text=%q", loginErr, "bad password")
	}
	if w.State() != Disconnected {
		t.Errorf("State() = %v, want Disconnected after a rejected login", w.State())
	}
}

func TestSendSingleRejectMidFlight(t *testing.T) {
	srv := mockServer(t, func(conn *websocket.Conn) {
		req := readFrame(t, conn)
		writeFrame(t, conn, protocol.LoginResponse, map[string]any{
			"request_id": req["request_id"],
			"rp_code":    "0",
		})

		cancelReq := readFrame(t, conn)
		writeFrame(t, conn, protocol.Reject, map[string]any{
			"request_id":    cancelReq["request_id"],
			"response_code": "404",
			"response_text": "unknown order",
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	events := make(chan Event, 8)
	w := newTestWorker(events)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Connect(ctx, wsURL(srv), Login{SystemName: "Rithmic Test"}, false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer w.Shutdown(context.Background())

	_, err := w.SendSingle(ctx, protocol.CancelOrder, codec.TypedMessage{"order_id": "DOES_NOT_EXIST"})
	if err == nil {
		t.Fatal("expected a rejected error, got nil")
	}
	rej, ok := err.(*RejectedError)
	if !ok {
		t.Fatalf("error type = %T, want *RejectedError", err)
	}
	if rej.Code != "404" || rej.Text != "unknown order" {
		t.Errorf("RejectedError = %+v, want code=404 text=%q", rej, "unknown order")
	}
}

func TestSendStreamTermination(t *testing.T) {
	srv := mockServer(t, func(conn *websocket.Conn) {
		req := readFrame(t, conn)
		writeFrame(t, conn, protocol.LoginResponse, map[string]any{
			"request_id": req["request_id"],
			"rp_code":    "0",
		})

		codesReq := readFrame(t, conn)
		rid := codesReq["request_id"]
		writeFrame(t, conn, protocol.ProductCodes, map[string]any{
			"request_id":         rid,
			"rq_handler_rp_code": "0",
			"product_code":       "ES",
		})
		writeFrame(t, conn, protocol.ProductCodes, map[string]any{
			"request_id":         rid,
			"rq_handler_rp_code": "0",
			"product_code":       "NQ",
		})
		writeFrame(t, conn, protocol.ProductCodes, map[string]any{
			"request_id": rid,
			"rp_code":    "0",
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	events := make(chan Event, 8)
	w := newTestWorker(events)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Connect(ctx, wsURL(srv), Login{SystemName: "Rithmic Test"}, false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer w.Shutdown(context.Background())

	sink, err := w.SendStream(ctx, protocol.ProductCodes, codec.TypedMessage{"exchange": "CME"})
	if err != nil {
		t.Fatalf("SendStream: %v", err)
	}

	var codes []string
	for msg := range sink.Data {
		codes = append(codes, msg["product_code"].(string))
	}
	if len(codes) != 2 || codes[0] != "ES" || codes[1] != "NQ" {
		t.Errorf("codes = %v, want [ES NQ]", codes)
	}

	select {
	case streamErr := <-sink.Err:
		t.Errorf("clean stream end delivered an error: %v", streamErr)
	default:
	}
}

func TestUnsolicitedFrameIsPublished(t *testing.T) {
	srv := mockServer(t, func(conn *websocket.Conn) {
		req := readFrame(t, conn)
		writeFrame(t, conn, protocol.LoginResponse, map[string]any{
			"request_id": req["request_id"],
			"rp_code":    "0",
		})

		writeFrame(t, conn, protocol.LastTrade, map[string]any{
			"symbol":      "ESZ5",
			"trade_price": 5000.0,
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	events := make(chan Event, 8)
	w := newTestWorker(events)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Connect(ctx, wsURL(srv), Login{SystemName: "Rithmic Test"}, false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer w.Shutdown(context.Background())

	select {
	case ev := <-events:
		if ev.Message["symbol"] != "ESZ5" {
			t.Errorf("event symbol = %v, want ESZ5", ev.Message["symbol"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for unsolicited LastTrade event")
	}
}

func TestHeartbeatSentWithinInterval(t *testing.T) {
	heartbeats := make(chan struct{}, 4)
	srv := mockServer(t, func(conn *websocket.Conn) {
		req := readFrame(t, conn)
		writeFrame(t, conn, protocol.LoginResponse, map[string]any{
			"request_id": req["request_id"],
			"rp_code":    "0",
		})

		for {
			body := readFrame(t, conn)
			if int(body["template_id"].(float64)) == protocol.HeartbeatRequest {
				heartbeats <- struct{}{}
			}
		}
	})

	events := make(chan Event, 8)
	w := New(1, "Ticker", codec.NewJSONCodec(), NewIDSource(), events, WithHeartbeatInterval(50*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Connect(ctx, wsURL(srv), Login{SystemName: "Rithmic Test"}, false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer w.Shutdown(context.Background())

	select {
	case <-heartbeats:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a heartbeat frame")
	}
}
