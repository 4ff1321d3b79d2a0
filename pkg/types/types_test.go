package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadWhyBullets(t *testing.T) {
	filler := WhyBullet{Text: "filler", Metric: "filler", Value: 0}
	bullet := func(n int) WhyBullet {
		return WhyBullet{Text: fmt.Sprintf("bullet-%d", n), Metric: "m", Value: float64(n)}
	}

	tests := []struct {
		name      string
		bullets   []WhyBullet
		fillers   []WhyBullet
		wantTexts []string
	}{
		{
			name:      "empty-padded-with-filler",
			bullets:   nil,
			fillers:   []WhyBullet{filler},
			wantTexts: []string{"filler", "filler", "filler"},
		},
		{
			name:      "one-bullet",
			bullets:   []WhyBullet{bullet(1)},
			fillers:   []WhyBullet{filler},
			wantTexts: []string{"bullet-1", "filler", "filler"},
		},
		{
			name:      "exactly-three",
			bullets:   []WhyBullet{bullet(1), bullet(2), bullet(3)},
			wantTexts: []string{"bullet-1", "bullet-2", "bullet-3"},
		},
		{
			name:      "truncates-extra",
			bullets:   []WhyBullet{bullet(1), bullet(2), bullet(3), bullet(4)},
			wantTexts: []string{"bullet-1", "bullet-2", "bullet-3"},
		},
		{
			name:      "no-fillers-uses-default",
			bullets:   []WhyBullet{bullet(1)},
			wantTexts: []string{"bullet-1", "No further evidence available for this classification", "No further evidence available for this classification"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadWhyBullets(tt.bullets, tt.fillers)
			require.Len(t, got, WhyBulletCount)
			for i, text := range tt.wantTexts {
				assert.Equal(t, text, got[i].Text)
			}
		})
	}
}

func TestWhyBullet_JSONOmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(WhyBullet{Text: "t", Metric: "spread", Value: 0.01})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"t","metric":"spread","value":0.01}`, string(data))
}

func TestInvalidArgumentError(t *testing.T) {
	err := fmt.Errorf("calculate: %w", NewInvalidArgument("odds", 1.5, "must be between 0 and 1"))

	assert.True(t, errors.Is(err, ErrInvalidArgument))

	var argErr *InvalidArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "odds", argErr.Field)
	assert.Contains(t, err.Error(), "invalid odds (1.5): must be between 0 and 1")
}

func TestMarket_UnmarshalJSON(t *testing.T) {
	raw := `{
		"id": "123",
		"question": "Will BTC close above $100k?",
		"slug": "btc-100k",
		"category": "Crypto",
		"active": true,
		"closed": false,
		"endDate": "2026-12-31T00:00:00Z",
		"volume24hr": 15000.5,
		"liquidityNum": 42000,
		"spread": 0.02,
		"outcomes": "[\"Yes\", \"No\"]",
		"outcomePrices": "[\"0.62\", \"0.38\"]",
		"clobTokenIds": "[\"tok-yes\", \"tok-no\"]"
	}`

	var market Market
	require.NoError(t, json.Unmarshal([]byte(raw), &market))

	assert.Equal(t, "123", market.ID)
	assert.Equal(t, "Crypto", market.Category)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), market.EndDate)
	assert.InDelta(t, 15000.5, market.Volume24hr, 1e-9)
	require.Len(t, market.Tokens, 2)

	price, ok := market.YesPrice()
	require.True(t, ok)
	assert.InDelta(t, 0.62, price, 1e-9)
	assert.Equal(t, "tok-yes", market.YesTokenID())
	assert.Equal(t, "tok-no", market.Tokens[1].TokenID)
}

func TestMarket_UnmarshalJSON_MissingFields(t *testing.T) {
	var market Market
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","endDate":"not-a-date"}`), &market))

	assert.True(t, market.EndDate.IsZero())
	assert.Empty(t, market.Tokens)

	_, ok := market.YesPrice()
	assert.False(t, ok)
	assert.Empty(t, market.YesTokenID())
}

func TestBookMessage_UnmarshalJSON(t *testing.T) {
	raw := `[{
		"event_type": "book",
		"asset_id": "tok-yes",
		"market": "0xabc",
		"timestamp": "1700000000123",
		"bids": [{"price": "0.48", "size": "120"}],
		"asks": [{"price": "0.52", "size": "80"}]
	}, {
		"event_type": "last_trade_price",
		"asset_id": "tok-yes",
		"timestamp": "bogus",
		"price": "0.51",
		"size": "40",
		"side": "BUY"
	}]`

	var msgs []BookMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msgs))
	require.Len(t, msgs, 2)

	assert.Equal(t, EventBook, msgs[0].EventType)
	assert.Equal(t, int64(1700000000123), msgs[0].Timestamp)
	require.Len(t, msgs[0].Bids, 1)

	price, size, err := msgs[0].Asks[0].Parse()
	require.NoError(t, err)
	assert.InDelta(t, 0.52, price, 1e-9)
	assert.InDelta(t, 80, size, 1e-9)

	assert.Equal(t, EventLastTradePrice, msgs[1].EventType)
	assert.Zero(t, msgs[1].Timestamp)
	assert.Equal(t, "BUY", msgs[1].Side)
}

func TestPriceLevel_ParseInvalid(t *testing.T) {
	_, _, err := PriceLevel{Price: "abc", Size: "1"}.Parse()
	assert.Error(t, err)

	_, _, err = PriceLevel{Price: "0.5", Size: ""}.Parse()
	assert.Error(t, err)
}
