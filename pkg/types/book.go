package types

import (
	"strconv"

	json "github.com/goccy/go-json"
)

// Book event types sent on the CLOB market channel.
const (
	EventBook           = "book"
	EventPriceChange    = "price_change"
	EventLastTradePrice = "last_trade_price"
)

// BookMessage is one event from the Polymarket CLOB market channel.
type BookMessage struct {
	EventType string       `json:"event_type"`
	AssetID   string       `json:"asset_id"`
	Market    string       `json:"market"`
	Timestamp int64        `json:"-"` // Unix millis, sent as a string
	Bids      []PriceLevel `json:"bids,omitempty"`
	Asks      []PriceLevel `json:"asks,omitempty"`
	Changes   []PriceLevel `json:"changes,omitempty"`
	Price     string       `json:"price,omitempty"`
	Size      string       `json:"size,omitempty"`
	Side      string       `json:"side,omitempty"`
}

// UnmarshalJSON parses the string timestamp.
func (b *BookMessage) UnmarshalJSON(data []byte) error {
	type Alias BookMessage
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(b),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Timestamp != "" {
		ts, err := strconv.ParseInt(aux.Timestamp, 10, 64)
		if err == nil {
			b.Timestamp = ts
		}
	}

	return nil
}

// PriceLevel is a price and size pair as sent on the wire. Side is only set
// on price_change entries.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
	Side  string `json:"side,omitempty"`
}

// Parse returns the level as floats.
func (l PriceLevel) Parse() (price float64, size float64, err error) {
	price, err = strconv.ParseFloat(l.Price, 64)
	if err != nil {
		return 0, 0, err
	}

	size, err = strconv.ParseFloat(l.Size, 64)
	if err != nil {
		return 0, 0, err
	}

	return price, size, nil
}
