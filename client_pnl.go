package rti

import (
	"context"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/protocol"
)

// SubscribePnl streams live position/PnL updates for the account.
func (c *Client) SubscribePnl(ctx context.Context, ref OrderRef) (<-chan codec.TypedMessage, <-chan error, error) {
	accountId, _, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, nil, err
	}
	return c.sendStream(ctx, PnL, protocol.SubscribePnl, codec.TypedMessage{
		"account_id": accountId,
	})
}

// UnsubscribePnl cancels a prior SubscribePnl.
func (c *Client) UnsubscribePnl(ctx context.Context, ref OrderRef) (codec.TypedMessage, error) {
	accountId, _, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, PnL, protocol.UnsubscribePnl, codec.TypedMessage{
		"account_id": accountId,
	})
}

// PnlSnapshot streams a point-in-time snapshot of every open position's
// PnL for the account.
func (c *Client) PnlSnapshot(ctx context.Context, ref OrderRef) (<-chan codec.TypedMessage, <-chan error, error) {
	accountId, _, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, nil, err
	}
	return c.sendStream(ctx, PnL, protocol.PnlSnapshot, codec.TypedMessage{
		"account_id": accountId,
	})
}
