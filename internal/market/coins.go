package market

// CoinIDs are the CoinGecko ids tracked by the predictor, in display order
var CoinIDs = []string{
	"bitcoin", "ethereum", "solana", "cardano", "ripple",
	"binancecoin", "dogecoin", "avalanche-2", "polygon", "litecoin",
}

var idToSymbol = map[string]string{
	"bitcoin":     "BTC",
	"ethereum":    "ETH",
	"solana":      "SOL",
	"cardano":     "ADA",
	"ripple":      "XRP",
	"binancecoin": "BNB",
	"dogecoin":    "DOGE",
	"avalanche-2": "AVAX",
	"polygon":     "MATIC",
	"litecoin":    "LTC",
}

// TopCoins returns the first n tracked coin ids; n outside [1, len] means all
func TopCoins(n int) []string {
	if n <= 0 || n > len(CoinIDs) {
		n = len(CoinIDs)
	}
	return append([]string(nil), CoinIDs[:n]...)
}
