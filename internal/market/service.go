package market

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aicrypto/predictor/internal/metrics"
	"github.com/aicrypto/predictor/internal/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	signalsKey   = "signals"
	fetchTimeout = 15 * time.Second
)

type quoteSource interface {
	Quotes(ctx context.Context, ids []string) (map[string]quote, error)
}

// Service serves coin signals, refreshing from CoinGecko at most once per TTL
type Service struct {
	coins        []string
	source       quoteSource
	cache        *expirable.LRU[string, []model.CoinSignal]
	group        singleflight.Group
	fetchTimeout time.Duration
	metrics      *metrics.Metrics
}

func NewService(client *CoinGeckoClient, ttl time.Duration, m *metrics.Metrics) *Service {
	return newService(client, ttl, m)
}

func newService(source quoteSource, ttl time.Duration, m *metrics.Metrics) *Service {
	return &Service{
		coins:        TopCoins(len(CoinIDs)),
		source:       source,
		cache:        expirable.NewLRU[string, []model.CoinSignal](1, nil, ttl),
		fetchTimeout: fetchTimeout,
		metrics:      m,
	}
}

// Signals returns price, 24h change and a predicted direction for every
// tracked coin the upstream reported. The upstream fetch is shared by
// concurrent callers and outlives any single caller's context.
func (s *Service) Signals(ctx context.Context) ([]model.CoinSignal, error) {
	if signals, ok := s.cache.Get(signalsKey); ok {
		s.metrics.RecordMarketFetch("cache", "hit")
		return signals, nil
	}

	ch := s.group.DoChan(signalsKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		quotes, err := s.source.Quotes(fetchCtx, s.coins)
		if err != nil {
			s.metrics.RecordMarketFetch("coingecko", "error")
			return nil, err
		}

		signals := buildSignals(s.coins, quotes)
		s.cache.Add(signalsKey, signals)
		s.metrics.RecordMarketFetch("coingecko", "ok")
		slog.Debug("market prices refreshed", "coins", len(signals))
		return signals, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.CoinSignal), nil
	}
}

func buildSignals(ids []string, quotes map[string]quote) []model.CoinSignal {
	signals := make([]model.CoinSignal, 0, len(quotes))
	for _, id := range ids {
		q, ok := quotes[id]
		if !ok {
			continue
		}
		signals = append(signals, newSignal(id, q))
	}
	return signals
}

func newSignal(id string, q quote) model.CoinSignal {
	symbol, ok := idToSymbol[id]
	if !ok {
		symbol = strings.ToUpper(id)
	}

	direction, confidence := Predict(q.USDChange)
	return model.CoinSignal{
		Symbol:     symbol,
		Price:      q.USD,
		Change:     q.USDChange,
		Prediction: direction,
		Confidence: confidence,
	}
}
