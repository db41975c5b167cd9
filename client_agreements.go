package rti

import (
	"context"

	"github.com/arjunrv/rti-go/codec"
	"github.com/arjunrv/rti-go/internal/protocol"
)

// ListUnacceptedAgreements streams the exchange/data agreements the
// account has not yet accepted.
func (c *Client) ListUnacceptedAgreements(ctx context.Context, ref OrderRef) (<-chan codec.TypedMessage, <-chan error, error) {
	accountId, _, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, nil, err
	}
	return c.sendStream(ctx, Order, protocol.ListUnacceptedAgreements, codec.TypedMessage{
		"account_id": accountId,
	})
}

// ListAcceptedAgreements streams the agreements the account has
// already accepted.
func (c *Client) ListAcceptedAgreements(ctx context.Context, ref OrderRef) (<-chan codec.TypedMessage, <-chan error, error) {
	accountId, _, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, nil, err
	}
	return c.sendStream(ctx, Order, protocol.ListAcceptedAgreements, codec.TypedMessage{
		"account_id": accountId,
	})
}

// ShowAgreement streams the text/terms of one named agreement.
func (c *Client) ShowAgreement(ctx context.Context, ref OrderRef, agreementId string) (<-chan codec.TypedMessage, <-chan error, error) {
	accountId, _, err := c.resolveOrderRef(ref)
	if err != nil {
		return nil, nil, err
	}
	return c.sendStream(ctx, Order, protocol.ShowAgreement, codec.TypedMessage{
		"account_id":   accountId,
		"agreement_id": agreementId,
	})
}
