package rti

// AccountContext is captured from a plant's login response and never
// written again afterward. The Order plant additionally resolves
// AccountId/TradeRoute against its account-list/trade-route cache; see
// Client.AccountInfo.
type AccountContext struct {
	FcmId      string
	IbId       string
	AccountId  string
	UserType   string
	TradeRoute string
}

// AccountRoute is one entry of the Order plant's account-list/trade-route
// cache, populated during Order plant login.
type AccountRoute struct {
	AccountId  string
	TradeRoute string
}
