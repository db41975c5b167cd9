// Package protocol holds the static template_id vocabulary and
// classification table shared by the root Client API and the
// plantworker package, so neither has to import the other to agree on
// what a template_id means.
package protocol

// MessageKind classifies a template_id's role in the protocol.
type MessageKind int

const (
	KindRequest MessageKind = iota
	KindResponse
	KindNotification
	KindReject
)

// DeliveryShape classifies whether a template_id's response resolves
// once or streams.
type DeliveryShape int

const (
	ShapeSingle DeliveryShape = iota
	ShapeStream
	ShapeNone // fire-and-forget requests, and notifications with no request counterpart
)

// Plant names which plant a template_id is meaningful on, or AnyPlant
// for templates common to all four (login, logout, heartbeat, reject).
type Plant int

const (
	AnyPlant Plant = iota
	TickerPlant
	HistoryPlant
	OrderPlant
	PnlPlant
)

// Info is one entry of the static template_id vocabulary table, which
// the receive-loop dispatch consults to decide whether an inbound frame
// belongs to a stream.
type Info struct {
	Plant Plant
	Kind  MessageKind
	Shape DeliveryShape
}

// Template ids, named per the protocol's fixed numeric vocabulary.
const (
	LoginRequest      = 10
	LoginResponse     = 11
	LogoutRequest     = 12
	LogoutResponse    = 13
	HeartbeatRequest  = 18
	HeartbeatResponse = 19
	Reject            = 75

	// Ticker plant: market data (100+).
	SubscribeMarketData               = 100
	SubscribeMarketDataResponse       = 101
	UnsubscribeMarketData             = 103
	UnsubscribeMarketDataResponse     = 104
	GetInstrumentByUnderlying         = 106
	GetInstrumentByUnderlyingResponse = 107
	GetTickSizeTypeTable              = 110
	GetTickSizeTypeTableResponse      = 111
	ProductCodes                      = 112
	ProductCodesResponse              = 113
	DepthByOrderSnapshot              = 118
	DepthByOrderSnapshotResponse      = 119
	VolumeAtPrice                     = 120
	VolumeAtPriceResponse             = 121
	AuxilliaryReferenceData           = 122
	AuxilliaryReferenceDataResponse   = 123
	LastTrade                         = 150

	// History plant: bars (200+).
	TimeBarUpdate                   = 200
	TimeBarUpdateResponse           = 201
	TickBarUpdate                   = 202
	TickBarUpdateResponse           = 203
	TimeBarReplay                   = 204
	TimeBarReplayResponse           = 205
	TickBarReplay                   = 206
	TickBarReplayResponse           = 207
	VolumeProfileMinuteBars         = 208
	VolumeProfileMinuteBarsResponse = 209
	ResumeBars                      = 210
	ResumeBarsResponse              = 211

	// Order plant: orders (300+), plus account-list/trade-route priming.
	AccountList                         = 302
	AccountListResponse                 = 303
	TradeRoutes                         = 310
	TradeRoutesResponse                 = 311
	NewOrder                            = 312
	NewOrderResponse                    = 313
	ModifyOrder                         = 314
	ModifyOrderResponse                 = 315
	CancelOrder                         = 316
	CancelOrderResponse                 = 317
	ShowOrders                          = 320
	ShowOrdersResponse                  = 321
	ShowOrderHistory                    = 322
	ShowOrderHistoryResponse            = 323
	BracketOrder                        = 324
	BracketOrderResponse                = 325
	OcoOrder                            = 326
	OcoOrderResponse                    = 327
	CancelAllOrders                     = 328
	CancelAllOrdersResponse             = 329
	ExitPosition                        = 330
	ExitPositionResponse                = 331
	UpdateTargetBracketLevel            = 332
	UpdateTargetBracketLevelResponse    = 333
	UpdateStopBracketLevel              = 334
	UpdateStopBracketLevelResponse      = 335
	ListExchangePermissions             = 336
	ListExchangePermissionsResponse     = 337
	LinkOrders                          = 338
	LinkOrdersResponse                  = 339
	SubscribeBracketUpdates             = 340
	SubscribeBracketUpdatesResponse     = 341
	SubscribeAccountRmsUpdates          = 342
	SubscribeAccountRmsUpdatesResponse  = 343
	ReplayExecutions                    = 344
	ReplayExecutionsResponse            = 345

	// PnL plant (400+).
	SubscribePnl           = 400
	SubscribePnlResponse   = 401
	UnsubscribePnl         = 402
	UnsubscribePnlResponse = 403
	PnlSnapshot            = 404
	PnlSnapshotResponse    = 405

	// Order plant: agreements (500+).
	ListUnacceptedAgreements         = 500
	ListUnacceptedAgreementsResponse = 501
	ListAcceptedAgreements           = 502
	ListAcceptedAgreementsResponse   = 503
	ShowAgreement                    = 504
	ShowAgreementResponse            = 505

	// Undocumented extras named in the protocol's source comments.
	// Vocabulary-only: no typed method is exposed for either until the
	// downstream protocol definition for their payload is validated.
	AcceptAgreement                          = 506
	AcceptAgreementResponse                  = 507
	SetRithmicMrktDataSelfCertStatus         = 3501
	SetRithmicMrktDataSelfCertStatusResponse = 3502
)

// Table is the static template_id -> classification map backing the
// PlantWorker's receive-loop dispatch. The Client's typed methods do not
// consult it: each one calls sendSingle or sendStream directly, and that
// choice is not checked against the table's Shape.
var Table = map[uint16]Info{
	LoginRequest:      {AnyPlant, KindRequest, ShapeSingle},
	LoginResponse:     {AnyPlant, KindResponse, ShapeSingle},
	LogoutRequest:     {AnyPlant, KindRequest, ShapeSingle},
	LogoutResponse:    {AnyPlant, KindResponse, ShapeSingle},
	HeartbeatRequest:  {AnyPlant, KindRequest, ShapeNone},
	HeartbeatResponse: {AnyPlant, KindResponse, ShapeNone},
	Reject:            {AnyPlant, KindReject, ShapeNone},

	SubscribeMarketData:               {TickerPlant, KindRequest, ShapeSingle},
	SubscribeMarketDataResponse:       {TickerPlant, KindResponse, ShapeSingle},
	UnsubscribeMarketData:             {TickerPlant, KindRequest, ShapeSingle},
	UnsubscribeMarketDataResponse:     {TickerPlant, KindResponse, ShapeSingle},
	GetInstrumentByUnderlying:         {TickerPlant, KindRequest, ShapeStream},
	GetInstrumentByUnderlyingResponse: {TickerPlant, KindResponse, ShapeStream},
	GetTickSizeTypeTable:              {TickerPlant, KindRequest, ShapeStream},
	GetTickSizeTypeTableResponse:      {TickerPlant, KindResponse, ShapeStream},
	ProductCodes:                      {TickerPlant, KindRequest, ShapeStream},
	ProductCodesResponse:              {TickerPlant, KindResponse, ShapeStream},
	DepthByOrderSnapshot:              {TickerPlant, KindRequest, ShapeStream},
	DepthByOrderSnapshotResponse:      {TickerPlant, KindResponse, ShapeStream},
	VolumeAtPrice:                     {TickerPlant, KindRequest, ShapeStream},
	VolumeAtPriceResponse:             {TickerPlant, KindResponse, ShapeStream},
	AuxilliaryReferenceData:           {TickerPlant, KindRequest, ShapeSingle},
	AuxilliaryReferenceDataResponse:   {TickerPlant, KindResponse, ShapeSingle},
	LastTrade:                         {TickerPlant, KindNotification, ShapeNone},

	TimeBarUpdate:                   {HistoryPlant, KindRequest, ShapeStream},
	TimeBarUpdateResponse:           {HistoryPlant, KindResponse, ShapeStream},
	TickBarUpdate:                   {HistoryPlant, KindRequest, ShapeStream},
	TickBarUpdateResponse:           {HistoryPlant, KindResponse, ShapeStream},
	TimeBarReplay:                   {HistoryPlant, KindRequest, ShapeStream},
	TimeBarReplayResponse:           {HistoryPlant, KindResponse, ShapeStream},
	TickBarReplay:                   {HistoryPlant, KindRequest, ShapeStream},
	TickBarReplayResponse:           {HistoryPlant, KindResponse, ShapeStream},
	VolumeProfileMinuteBars:         {HistoryPlant, KindRequest, ShapeStream},
	VolumeProfileMinuteBarsResponse: {HistoryPlant, KindResponse, ShapeStream},
	ResumeBars:                      {HistoryPlant, KindRequest, ShapeStream},
	ResumeBarsResponse:              {HistoryPlant, KindResponse, ShapeStream},

	AccountList:                        {OrderPlant, KindRequest, ShapeStream},
	AccountListResponse:                {OrderPlant, KindResponse, ShapeStream},
	TradeRoutes:                        {OrderPlant, KindRequest, ShapeStream},
	TradeRoutesResponse:                {OrderPlant, KindResponse, ShapeStream},
	NewOrder:                           {OrderPlant, KindRequest, ShapeSingle},
	NewOrderResponse:                   {OrderPlant, KindResponse, ShapeSingle},
	ModifyOrder:                        {OrderPlant, KindRequest, ShapeSingle},
	ModifyOrderResponse:                {OrderPlant, KindResponse, ShapeSingle},
	CancelOrder:                        {OrderPlant, KindRequest, ShapeSingle},
	CancelOrderResponse:                {OrderPlant, KindResponse, ShapeSingle},
	ShowOrders:                         {OrderPlant, KindRequest, ShapeStream},
	ShowOrdersResponse:                 {OrderPlant, KindResponse, ShapeStream},
	ShowOrderHistory:                   {OrderPlant, KindRequest, ShapeStream},
	ShowOrderHistoryResponse:           {OrderPlant, KindResponse, ShapeStream},
	BracketOrder:                       {OrderPlant, KindRequest, ShapeSingle},
	BracketOrderResponse:               {OrderPlant, KindResponse, ShapeSingle},
	OcoOrder:                           {OrderPlant, KindRequest, ShapeSingle},
	OcoOrderResponse:                   {OrderPlant, KindResponse, ShapeSingle},
	CancelAllOrders:                    {OrderPlant, KindRequest, ShapeSingle},
	CancelAllOrdersResponse:            {OrderPlant, KindResponse, ShapeSingle},
	ExitPosition:                       {OrderPlant, KindRequest, ShapeSingle},
	ExitPositionResponse:               {OrderPlant, KindResponse, ShapeSingle},
	UpdateTargetBracketLevel:           {OrderPlant, KindRequest, ShapeSingle},
	UpdateTargetBracketLevelResponse:   {OrderPlant, KindResponse, ShapeSingle},
	UpdateStopBracketLevel:             {OrderPlant, KindRequest, ShapeSingle},
	UpdateStopBracketLevelResponse:     {OrderPlant, KindResponse, ShapeSingle},
	ListExchangePermissions:            {OrderPlant, KindRequest, ShapeStream},
	ListExchangePermissionsResponse:    {OrderPlant, KindResponse, ShapeStream},
	LinkOrders:                         {OrderPlant, KindRequest, ShapeSingle},
	LinkOrdersResponse:                 {OrderPlant, KindResponse, ShapeSingle},
	SubscribeBracketUpdates:            {OrderPlant, KindRequest, ShapeSingle},
	SubscribeBracketUpdatesResponse:    {OrderPlant, KindResponse, ShapeSingle},
	SubscribeAccountRmsUpdates:         {OrderPlant, KindRequest, ShapeSingle},
	SubscribeAccountRmsUpdatesResponse: {OrderPlant, KindResponse, ShapeSingle},
	ReplayExecutions:                   {OrderPlant, KindRequest, ShapeStream},
	ReplayExecutionsResponse:           {OrderPlant, KindResponse, ShapeStream},

	SubscribePnl:           {PnlPlant, KindRequest, ShapeStream},
	SubscribePnlResponse:   {PnlPlant, KindResponse, ShapeStream},
	UnsubscribePnl:         {PnlPlant, KindRequest, ShapeSingle},
	UnsubscribePnlResponse: {PnlPlant, KindResponse, ShapeSingle},
	PnlSnapshot:            {PnlPlant, KindRequest, ShapeStream},
	PnlSnapshotResponse:    {PnlPlant, KindResponse, ShapeStream},

	ListUnacceptedAgreements:         {OrderPlant, KindRequest, ShapeStream},
	ListUnacceptedAgreementsResponse: {OrderPlant, KindResponse, ShapeStream},
	ListAcceptedAgreements:           {OrderPlant, KindRequest, ShapeStream},
	ListAcceptedAgreementsResponse:   {OrderPlant, KindResponse, ShapeStream},
	ShowAgreement:                    {OrderPlant, KindRequest, ShapeStream},
	ShowAgreementResponse:            {OrderPlant, KindResponse, ShapeStream},

	// Vocabulary-only, no typed method.
	AcceptAgreement:                         {OrderPlant, KindRequest, ShapeSingle},
	AcceptAgreementResponse:                 {OrderPlant, KindResponse, ShapeSingle},
	SetRithmicMrktDataSelfCertStatus:         {TickerPlant, KindRequest, ShapeSingle},
	SetRithmicMrktDataSelfCertStatusResponse: {TickerPlant, KindResponse, ShapeSingle},
}

// Classify returns the static classification for a template_id,
// defaulting to an unknown-but-safe notification shape when the id is
// outside the documented vocabulary (protocol extensions the caller's
// codec understands but this table hasn't been updated for yet).
func Classify(templateID uint16) Info {
	if info, ok := Table[templateID]; ok {
		return info
	}
	return Info{Plant: AnyPlant, Kind: KindNotification, Shape: ShapeNone}
}

// IsStream reports whether sending this template should register a
// Stream correlator entry rather than a Single one.
func IsStream(templateID uint16) bool {
	return Classify(templateID).Shape == ShapeStream
}
