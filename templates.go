package rti

import "github.com/arjunrv/rti-go/internal/protocol"

// Template ids, re-exported from the shared protocol vocabulary table
// for callers building their own codec or inspecting Event.Message by
// hand. See internal/protocol for the full classification table this
// module's PlantWorkers dispatch against.
const (
	TemplateLoginRequest      = protocol.LoginRequest
	TemplateLoginResponse     = protocol.LoginResponse
	TemplateLogoutRequest     = protocol.LogoutRequest
	TemplateLogoutResponse    = protocol.LogoutResponse
	TemplateHeartbeatRequest  = protocol.HeartbeatRequest
	TemplateHeartbeatResponse = protocol.HeartbeatResponse
	TemplateReject            = protocol.Reject

	TemplateSubscribeMarketData           = protocol.SubscribeMarketData
	TemplateSubscribeMarketDataResponse   = protocol.SubscribeMarketDataResponse
	TemplateUnsubscribeMarketData         = protocol.UnsubscribeMarketData
	TemplateUnsubscribeMarketDataResponse = protocol.UnsubscribeMarketDataResponse
	TemplateLastTrade                     = protocol.LastTrade

	TemplateReplayExecutions = protocol.ReplayExecutions
	TemplateUnsubscribePnl   = protocol.UnsubscribePnl

	// Vocabulary-only, per spec.md §9: listed so callers inspecting raw
	// Event frames can recognize them, but no typed method is exposed.
	TemplateAcceptAgreement                  = protocol.AcceptAgreement
	TemplateSetRithmicMrktDataSelfCertStatus = protocol.SetRithmicMrktDataSelfCertStatus
)
