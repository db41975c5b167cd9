package rti

import "github.com/arjunrv/rti-go/codec"

// Event is the unsolicited-message payload delivered on the channel
// returned by Client.Connect: live trades, order notifications, bracket
// updates, account RMS updates, PnL updates, forced-logout warnings —
// any frame a PlantWorker's receive loop receives without a request_id.
type Event struct {
	Plant   PlantId
	Message codec.TypedMessage
}
