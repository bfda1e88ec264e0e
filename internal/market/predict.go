package market

import (
	"math"

	"github.com/aicrypto/predictor/internal/model"
)

// Predict turns a 24h percentage change into a direction and a confidence
// in [50, 100). Confidence is a logistic curve over the absolute change.
func Predict(change float64) (string, float64) {
	direction := model.DirectionDown
	if change >= 0 {
		direction = model.DirectionUp
	}

	conf := 1 / (1 + math.Exp(-math.Abs(change)/6))
	return direction, math.Round(conf*1000) / 10
}
