package rti

import (
	"context"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/protocol"
)

// TimeBarUpdates streams live time-bar (e.g. 1-minute) updates for one
// instrument as they close.
func (c *Client) TimeBarUpdates(ctx context.Context, symbol, exchange string, barTypeSeconds int) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, History, protocol.TimeBarUpdate, codec.TypedMessage{
		"symbol":           symbol,
		"exchange":         exchange,
		"bar_type_seconds": barTypeSeconds,
	})
}

// TickBarUpdates streams live tick-bar updates for one instrument.
func (c *Client) TickBarUpdates(ctx context.Context, symbol, exchange string, ticksPerBar int) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, History, protocol.TickBarUpdate, codec.TypedMessage{
		"symbol":        symbol,
		"exchange":      exchange,
		"ticks_per_bar": ticksPerBar,
	})
}

// TimeBarReplay streams historical time bars for one instrument between
// startDate and endDate (inclusive, caller-formatted per the downstream
// codec's date convention).
func (c *Client) TimeBarReplay(ctx context.Context, symbol, exchange string, barTypeSeconds int, startDate, endDate string) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, History, protocol.TimeBarReplay, codec.TypedMessage{
		"symbol":           symbol,
		"exchange":         exchange,
		"bar_type_seconds": barTypeSeconds,
		"start_date":       startDate,
		"end_date":         endDate,
	})
}

// TickBarReplay streams historical tick bars for one instrument.
func (c *Client) TickBarReplay(ctx context.Context, symbol, exchange string, ticksPerBar int, startDate, endDate string) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, History, protocol.TickBarReplay, codec.TypedMessage{
		"symbol":        symbol,
		"exchange":      exchange,
		"ticks_per_bar": ticksPerBar,
		"start_date":    startDate,
		"end_date":      endDate,
	})
}

// VolumeProfileMinuteBars streams minute-bar volume profile data for
// one instrument and date.
func (c *Client) VolumeProfileMinuteBars(ctx context.Context, symbol, exchange, date string) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, History, protocol.VolumeProfileMinuteBars, codec.TypedMessage{
		"symbol":   symbol,
		"exchange": exchange,
		"date":     date,
	})
}

// ResumeBars resumes a previously-interrupted bar replay from a given
// bar request id and bar number, per the upstream resume convention.
func (c *Client) ResumeBars(ctx context.Context, requestId string, barNumber int) (<-chan codec.TypedMessage, <-chan error, error) {
	return c.sendStream(ctx, History, protocol.ResumeBars, codec.TypedMessage{
		"bar_request_id": requestId,
		"bar_number":     barNumber,
	})
}
