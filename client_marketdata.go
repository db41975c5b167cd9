package rti

import (
	"context"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/protocol"
)

// UpdateBits selects which live update types a market data subscription
// carries (last trade, best bid/offer, and so on). The underlying wire
// representation is a bitmask; values are ORed together.
type UpdateBits int

const (
	LastTradeUpdates UpdateBits = 1 << iota
	BboUpdates
	OrderBookUpdates
)

// SubscribeMarketData subscribes to live updates for one instrument.
// Resolves once the subscription is acknowledged; subsequent
// LastTrade/order-book notifications arrive on the Client's event
// channel tagged PlantId Ticker.
func (c *Client) SubscribeMarketData(ctx context.Context, symbol, exchange string, updates UpdateBits) error {
	_, err := c.sendSingle(ctx, Ticker, protocol.SubscribeMarketData, codec.TypedMessage{
		"symbol":      symbol,
		"exchange":    exchange,
		"update_bits": int(updates),
	})
	return err
}

// UnsubscribeMarketData cancels a prior SubscribeMarketData.
func (c *Client) UnsubscribeMarketData(ctx context.Context, symbol, exchange string) error {
	_, err := c.sendSingle(ctx, Ticker, protocol.UnsubscribeMarketData, codec.TypedMessage{
		"symbol":   symbol,
		"exchange": exchange,
	})
	return err
}

// GetInstrumentByUnderlying streams the option/future chain for an
// underlying symbol.
func (c *Client) GetInstrumentByUnderlying(ctx context.Context, underlying, exchange string) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, Ticker, protocol.GetInstrumentByUnderlying, codec.TypedMessage{
		"underlying_symbol": underlying,
		"exchange":          exchange,
	})
}

// GetTickSizeTypeTable streams the tick-size schedule for a tick-size
// type identifier.
func (c *Client) GetTickSizeTypeTable(ctx context.Context, tickSizeType string) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, Ticker, protocol.GetTickSizeTypeTable, codec.TypedMessage{
		"tick_size_type": tickSizeType,
	})
}

// ProductCodes streams the product codes an exchange lists.
func (c *Client) ProductCodes(ctx context.Context, exchange, giveToco string) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, Ticker, protocol.ProductCodes, codec.TypedMessage{
		"exchange":  exchange,
		"give_toco": giveToco,
	})
}

// DepthByOrderSnapshot streams a point-in-time order-by-order depth
// snapshot for one instrument.
func (c *Client) DepthByOrderSnapshot(ctx context.Context, symbol, exchange string) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, Ticker, protocol.DepthByOrderSnapshot, codec.TypedMessage{
		"symbol":   symbol,
		"exchange": exchange,
	})
}

// VolumeAtPrice streams the traded-volume-by-price distribution for one
// instrument and date.
func (c *Client) VolumeAtPrice(ctx context.Context, symbol, exchange, date string) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, Ticker, protocol.VolumeAtPrice, codec.TypedMessage{
		"symbol":   symbol,
		"exchange": exchange,
		"date":     date,
	})
}

// AuxilliaryReferenceData returns supplementary reference fields for an
// instrument (settlement price, exchange multipliers, and similar
// fields not carried on the instrument's main subscription).
func (c *Client) AuxilliaryReferenceData(ctx context.Context, symbol, exchange string) (codec.TypedMessage, error) {
	return c.sendSingle(ctx, Ticker, protocol.AuxilliaryReferenceData, codec.TypedMessage{
		"symbol":   symbol,
		"exchange": exchange,
	})
}
