package rti

import (
	"context"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/protocol"
)

// OrderRef identifies the account/trade-route an order-plant method
// targets. Either field may be left blank to fall back to the Order
// plant's cached first account/trade-route (populated at login).
type OrderRef struct {
	AccountId  string
	TradeRoute string
}

func (c *Client) resolveOrderRef(ref OrderRef) (accountId, tradeRoute string, err error) {
	w, err := c.worker(Order)
	if err != nil {
		return "", "", err
	}
	return w.ResolveAccount(ref.AccountId), w.ResolveTradeRoute(ref.TradeRoute), nil
}

// NewOrder submits a new order. Resolves with the acknowledgement;
// fills and subsequent order-state notifications arrive on the event
// channel tagged PlantId Order.
func (c *Client) NewOrder(ctx context.Context, ref OrderRef, symbol, exchange, side, orderType string, quantity int, price float64) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.NewOrder, codec.TypedMessage{
		"account_id":  accountId,
		"trade_route": tradeRoute,
		"symbol":      symbol,
		"exchange":    exchange,
		"side":        side,
		"order_type":  orderType,
		"quantity":    quantity,
		"price":       price,
	})
}

// ModifyOrder changes the quantity and/or price of a resting order.
func (c *Client) ModifyOrder(ctx context.Context, ref OrderRef, orderId string, quantity int, price float64) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.ModifyOrder, codec.TypedMessage{
		"account_id":  accountId,
		"trade_route": tradeRoute,
		"order_id":    orderId,
		"quantity":    quantity,
		"price":       price,
	})
}

// CancelOrder cancels one resting order.
func (c *Client) CancelOrder(ctx context.Context, ref OrderRef, orderId string) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.CancelOrder, codec.TypedMessage{
		"account_id":  accountId,
		"trade_route": tradeRoute,
		"order_id":    orderId,
	})
}

// CancelAllOrders cancels every resting order on the account.
func (c *Client) CancelAllOrders(ctx context.Context, ref OrderRef) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.CancelAllOrders, codec.TypedMessage{
		"account_id":  accountId,
		"trade_route": tradeRoute,
	})
}

// ExitPosition flattens an open position in one instrument at market.
func (c *Client) ExitPosition(ctx context.Context, ref OrderRef, symbol, exchange string) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.ExitPosition, codec.TypedMessage{
		"account_id":  accountId,
		"trade_route": tradeRoute,
		"symbol":      symbol,
		"exchange":    exchange,
	})
}

// BracketOrder submits a parent order paired with child target and
// stop orders, offset from the parent's fill price by ticks.
func (c *Client) BracketOrder(ctx context.Context, ref OrderRef, symbol, exchange, side, orderType string, quantity int, price float64, targetTicks, stopTicks int) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.BracketOrder, codec.TypedMessage{
		"account_id":   accountId,
		"trade_route":  tradeRoute,
		"symbol":       symbol,
		"exchange":     exchange,
		"side":         side,
		"order_type":   orderType,
		"quantity":     quantity,
		"price":        price,
		"target_ticks": targetTicks,
		"stop_ticks":   stopTicks,
	})
}

// OcoOrder submits two orders, either of which cancels the other on
// fill.
func (c *Client) OcoOrder(ctx context.Context, ref OrderRef, first, second codec.TypedMessage) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.OcoOrder, codec.TypedMessage{
		"account_id":   accountId,
		"trade_route":  tradeRoute,
		"first_order":  first,
		"second_order": second,
	})
}

// UpdateTargetBracketLevel moves a bracket order's target child to a
// new price.
func (c *Client) UpdateTargetBracketLevel(ctx context.Context, ref OrderRef, bracketOrderId string, price float64) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.UpdateTargetBracketLevel, codec.TypedMessage{
		"account_id":       accountId,
		"trade_route":      tradeRoute,
		"bracket_order_id": bracketOrderId,
		"price":            price,
	})
}

// UpdateStopBracketLevel moves a bracket order's stop child to a new
// price.
func (c *Client) UpdateStopBracketLevel(ctx context.Context, ref OrderRef, bracketOrderId string, price float64) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.UpdateStopBracketLevel, codec.TypedMessage{
		"account_id":       accountId,
		"trade_route":      tradeRoute,
		"bracket_order_id": bracketOrderId,
		"price":            price,
	})
}

// LinkOrders links two already-submitted orders as an OCO/bracket pair
// after the fact.
func (c *Client) LinkOrders(ctx context.Context, ref OrderRef, firstOrderId, secondOrderId string) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.LinkOrders, codec.TypedMessage{
		"account_id":      accountId,
		"trade_route":     tradeRoute,
		"first_order_id":  firstOrderId,
		"second_order_id": secondOrderId,
	})
}

// ShowOrders streams the account's currently resting orders.
func (c *Client) ShowOrders(ctx context.Context, ref OrderRef) (<-chan codec.TypedMessage, <-chan error, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, nil, err
	}
	return c.sendStream(ctx, Order, protocol.ShowOrders, codec.TypedMessage{
		"account_id":  accountId,
		"trade_route": tradeRoute,
	})
}

// ShowOrderHistory streams the account's completed orders for the
// trading day.
func (c *Client) ShowOrderHistory(ctx context.Context, ref OrderRef) (<-chan codec.TypedMessage, <-chan error, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, nil, err
	}
	return c.sendStream(ctx, Order, protocol.ShowOrderHistory, codec.TypedMessage{
		"account_id":  accountId,
		"trade_route": tradeRoute,
	})
}

// ReplayExecutions streams the account's filled executions between
// startDate and endDate.
func (c *Client) ReplayExecutions(ctx context.Context, ref OrderRef, startDate, endDate string) (<-chan codec.TypedMessage, <-chan error, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, nil, err
	}
	return c.sendStream(ctx, Order, protocol.ReplayExecutions, codec.TypedMessage{
		"account_id":  accountId,
		"trade_route": tradeRoute,
		"start_date":  startDate,
		"end_date":    endDate,
	})
}

// ListExchangePermissions streams the exchanges the account is
// permissioned to trade.
func (c *Client) ListExchangePermissions(ctx context.Context, ref OrderRef) (<-chan codec.TypedMessage, <-chan error, error) {
	accountId, _, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, nil, err
	}
	return c.sendStream(ctx, Order, protocol.ListExchangePermissions, codec.TypedMessage{
		"account_id": accountId,
	})
}

// SubscribeBracketUpdates subscribes to bracket order child fill/cancel
// notifications, delivered on the event channel.
func (c *Client) SubscribeBracketUpdates(ctx context.Context, ref OrderRef) (codec.TypedMessage, error) {
	accountId, tradeRoute, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.SubscribeBracketUpdates, codec.TypedMessage{
		"account_id":  accountId,
		"trade_route": tradeRoute,
	})
}

// SubscribeAccountRmsUpdates subscribes to risk-management-system
// updates (margin calls, trading halts) for the account, delivered on
// the event channel.
func (c *Client) SubscribeAccountRmsUpdates(ctx context.Context, ref OrderRef) (codec.TypedMessage, error) {
	accountId, _, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, err
	}
	return c.sendSingle(ctx, Order, protocol.SubscribeAccountRmsUpdates, codec.TypedMessage{
		"account_id": accountId,
	})
}
