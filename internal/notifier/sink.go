package notifier

import "CandleWatch/internal/model"

// Slot names a display position on the board.
type Slot string

const (
	SlotUSDPrice    Slot = "usd-price"
	SlotUSDChange   Slot = "usd-change"
	SlotUSDRange    Slot = "usd-range"
	SlotBTCInfo     Slot = "btc-info"
	SlotETHInfo     Slot = "eth-info"
	SlotBTCBRLInfo  Slot = "btcbrl-info"
	SlotOverview    Slot = "usd-ai-text"
	SlotTrendTitle  Slot = "ai-trend-title"
	SlotTrendText   Slot = "ai-trend-text"
	SlotMarketState Slot = "market-status"
)

// Direction is the qualitative move of a value, used for colouring.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = ""
)

// Renderer draws the candle chart. The first call initializes it, later calls update
// the data in place.
type Renderer interface {
	Render(seq model.CandleSequence, label string)
}

// Update is one slot write.
type Update struct {
	Slot      Slot      `json:"slot"`
	Text      string    `json:"text"`
	Direction Direction `json:"direction,omitempty"`
}

// Sink receives formatted text for named slots. A batch is applied as one unit.
type Sink interface {
	Apply(updates []Update)
}
