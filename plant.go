package rti

// PlantId identifies one of the four independently-authenticated Rithmic
// endpoints. Each carries its own login and its own resolved URL once
// gateway discovery has run.
type PlantId int

const (
	Ticker PlantId = iota
	History
	Order
	PnL
)

func (p PlantId) String() string {
	switch p {
	case Ticker:
		return "Ticker"
	case History:
		return "History"
	case Order:
		return "Order"
	case PnL:
		return "PnL"
	default:
		return "Unknown"
	}
}

// infraType is the plant-specific login field Rithmic expects in
// RequestLogin.
func (p PlantId) infraType() string {
	switch p {
	case Ticker:
		return "TICKER_PLANT"
	case History:
		return "HISTORY_PLANT"
	case Order:
		return "ORDER_PLANT"
	case PnL:
		return "PNL_PLANT"
	default:
		return ""
	}
}

// allPlants enumerates the four plants a Client drives in a fixed order,
// used wherever workers are started or iterated deterministically.
var allPlants = [4]PlantId{Ticker, History, Order, PnL}

// PlantState models the lifecycle of a single PlantWorker's connection.
type PlantState int

const (
	Disconnected PlantState = iota
	Connecting
	Connected
	Authenticating
	Authenticated
	Closing
)

func (s PlantState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Authenticating:
		return "Authenticating"
	case Authenticated:
		return "Authenticated"
	case Closing:
		return "Closing"
	default:
		return "Unknown"
	}
}
