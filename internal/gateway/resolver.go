// Package gateway implements the unauthenticated bootstrap exchange
// that turns a system name into the per-plant URLs a Client dials.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/transport"
)

// PlantURLs maps a plant name ("ticker", "history", "order", "pnl") to
// its resolved WebSocket URL.
type PlantURLs map[string]string

const (
	bootstrapURL = "wss://rprotocol.rithmic.com/ws"

	templateSystemInfo        = 16
	templateSystemInfoResp    = 17
	templateGatewayInfo       = 20
	templateGatewayInfoResp   = 21
	testSystemName            = "Rithmic Test"
)

// testGatewayOverride is the compiled-in map used when system_name ==
// "Rithmic Test", skipping the discovery round trip entirely.
var testGatewayOverride = PlantURLs{
	"ticker":  "wss://rituz00100.rithmic.com:443/ticker",
	"history": "wss://rituz00100.rithmic.com:443/history",
	"order":   "wss://rituz00100.rithmic.com:443/order",
	"pnl":     "wss://rituz00100.rithmic.com:443/pnl",
}

// Resolver resolves a system/gateway name pair to plant URLs.
type Resolver interface {
	Resolve(ctx context.Context, systemName, gatewayName string) (PlantURLs, error)
}

// BootstrapResolver talks to the real Rithmic bootstrap endpoint. url
// overrides the hardcoded bootstrap endpoint for testing.
type BootstrapResolver struct {
	url   string
	codec codec.Codec
}

// NewBootstrapResolver returns a Resolver that dials the real Rithmic
// bootstrap URL. Pass a non-empty url to point at a mock server instead
// (tests only — production callers use the zero value).
func NewBootstrapResolver(url string, c codec.Codec) *BootstrapResolver {
	if url == "" {
		url = bootstrapURL
	}
	if c == nil {
		c = codec.NewJSONCodec()
	}
	return &BootstrapResolver{url: url, codec: c}
}

// Resolve implements Resolver.
func (r *BootstrapResolver) Resolve(ctx context.Context, systemName, gatewayName string) (PlantURLs, error) {
	if systemName == testSystemName {
		return testGatewayOverride, nil
	}

	sock := transport.New("bootstrap", r.url, transport.DefaultConfig(), nil)
	if err := sock.Connect(ctx); err != nil {
		return nil, &BootstrapFailedError{Err: err}
	}
	defer sock.Close()

	systems, err := r.requestSystemInfo(sock)
	if err != nil {
		return nil, err
	}
	if !contains(systems, systemName) {
		return nil, &SystemNotFoundError{Name: systemName}
	}

	urls, gateways, err := r.requestGatewayInfo(sock, systemName)
	if err != nil {
		return nil, err
	}
	if !contains(gateways, gatewayName) {
		return nil, &GatewayNotFoundError{Name: gatewayName}
	}

	return urls, nil
}

func (r *BootstrapResolver) requestSystemInfo(sock *transport.Socket) ([]string, error) {
	frame, err := r.codec.Encode(templateSystemInfo, codec.TypedMessage{})
	if err != nil {
		return nil, &BootstrapFailedError{Err: err}
	}
	if err := sock.Send(frame); err != nil {
		return nil, &BootstrapFailedError{Err: err}
	}

	raw, ok := <-sock.Frames()
	if !ok {
		return nil, &BootstrapFailedError{Err: fmt.Errorf("bootstrap socket closed before system info response")}
	}

	env, err := r.codec.Decode(raw)
	if err != nil {
		return nil, &BootstrapFailedError{Err: err}
	}
	if env.TemplateID != templateSystemInfoResp {
		return nil, &BootstrapFailedError{Err: fmt.Errorf("unexpected template %d for system info response", env.TemplateID)}
	}

	return decodeStringList(env.Body["system_names"])
}

func (r *BootstrapResolver) requestGatewayInfo(sock *transport.Socket, systemName string) (PlantURLs, []string, error) {
	frame, err := r.codec.Encode(templateGatewayInfo, codec.TypedMessage{"system_name": systemName})
	if err != nil {
		return nil, nil, &BootstrapFailedError{Err: err}
	}
	if err := sock.Send(frame); err != nil {
		return nil, nil, &BootstrapFailedError{Err: err}
	}

	raw, ok := <-sock.Frames()
	if !ok {
		return nil, nil, &BootstrapFailedError{Err: fmt.Errorf("bootstrap socket closed before gateway info response")}
	}

	env, err := r.codec.Decode(raw)
	if err != nil {
		return nil, nil, &BootstrapFailedError{Err: err}
	}
	if env.TemplateID != templateGatewayInfoResp {
		return nil, nil, &BootstrapFailedError{Err: fmt.Errorf("unexpected template %d for gateway info response", env.TemplateID)}
	}

	gateways, err := decodeStringList(env.Body["gateway_names"])
	if err != nil {
		return nil, nil, err
	}

	urls := PlantURLs{
		"ticker":  str(env.Body["ticker_plant_url"]),
		"history": str(env.Body["history_plant_url"]),
		"order":   str(env.Body["order_plant_url"]),
		"pnl":     str(env.Body["pnl_plant_url"]),
	}

	return urls, gateways, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func decodeStringList(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &BootstrapFailedError{Err: fmt.Errorf("non-string entry in name list: %v", item)}
			}
			out = append(out, s)
		}
		return out, nil
	case json.RawMessage:
		var out []string
		if err := json.Unmarshal(list, &out); err != nil {
			return nil, &BootstrapFailedError{Err: err}
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, &BootstrapFailedError{Err: fmt.Errorf("unexpected name list shape %T", v)}
	}
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

// SystemNotFoundError is returned when the requested system name is
// absent from the bootstrap's system list.
type SystemNotFoundError struct{ Name string }

func (e *SystemNotFoundError) Error() string {
	return fmt.Sprintf("gateway: system %q not found", e.Name)
}

// GatewayNotFoundError is returned when the requested gateway name is
// absent from the bootstrap's gateway list.
type GatewayNotFoundError struct{ Name string }

func (e *GatewayNotFoundError) Error() string {
	return fmt.Sprintf("gateway: gateway %q not found", e.Name)
}

// BootstrapFailedError wraps a transport or protocol failure during
// bootstrap.
type BootstrapFailedError struct{ Err error }

func (e *BootstrapFailedError) Error() string {
	return fmt.Sprintf("gateway: bootstrap failed: %v", e.Err)
}

func (e *BootstrapFailedError) Unwrap() error { return e.Err }
