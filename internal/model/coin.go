package model

const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

// CoinSignal is one row of the prediction feed: live USD price, 24h change
// and a momentum-based direction with a confidence percentage.
type CoinSignal struct {
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	Change     float64 `json:"change"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}
