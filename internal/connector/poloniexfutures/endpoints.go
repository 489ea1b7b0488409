package poloniexfutures

import (
	"math"
	"net/http"
)

type endpointKey struct {
	access Access
	method string
	path   string
}

// endpoint is the declared metadata of one REST route
type endpoint struct {
	weight  float64 // cost in multiples of DefaultRateLimit
	version string  // empty means DefaultVersion
}

var endpoints = map[endpointKey]endpoint{
	// Public - Market Data
	{Public, http.MethodGet, "contracts/active"}:              {weight: 10},
	{Public, http.MethodGet, "contracts/{symbol}"}:            {weight: 10},
	{Public, http.MethodGet, "ticker"}:                        {weight: 10, version: "v2"},
	{Public, http.MethodGet, "tickers"}:                       {weight: 10, version: "v2"},
	{Public, http.MethodGet, "level2/snapshot"}:               {weight: 180.002},
	{Public, http.MethodGet, "level2/depth"}:                  {weight: 180.002},
	{Public, http.MethodGet, "level2/message/query"}:          {weight: 180.002},
	{Public, http.MethodGet, "level3/snapshot"}:               {weight: 180.002, version: "v2"},
	{Public, http.MethodGet, "trade/history"}:                 {weight: 10},
	{Public, http.MethodGet, "interest/query"}:                {weight: 10},
	{Public, http.MethodGet, "index/query"}:                   {weight: 10},
	{Public, http.MethodGet, "mark-price/{symbol}/current"}:   {weight: 10},
	{Public, http.MethodGet, "premium/query"}:                 {weight: 10},
	{Public, http.MethodGet, "funding-rate/{symbol}/current"}: {weight: 10},
	{Public, http.MethodGet, "timestamp"}:                     {weight: 10},
	{Public, http.MethodGet, "status"}:                        {weight: 10},
	{Public, http.MethodGet, "kline/query"}:                   {weight: 10},
	{Public, http.MethodPost, "bullet-public"}:                {weight: 10},

	// Private - Account, Orders, Fills, Positions
	{Private, http.MethodGet, "account-overview"}:    {weight: 1},
	{Private, http.MethodGet, "transaction-history"}: {weight: 1},
	{Private, http.MethodGet, "orders"}:              {weight: 1},
	{Private, http.MethodGet, "stopOrders"}:          {weight: 1},
	{Private, http.MethodGet, "recentDoneOrders"}:    {weight: 1},
	{Private, http.MethodGet, "orders/{order-id}"}:   {weight: 1},
	{Private, http.MethodGet, "orders/byClientOid"}:  {weight: 1},
	{Private, http.MethodGet, "fills"}:               {weight: 1},
	{Private, http.MethodGet, "openOrderStatistics"}: {weight: 1},
	{Private, http.MethodGet, "position"}:            {weight: 1.5},
	{Private, http.MethodGet, "positions"}:           {weight: 1.5},
	{Private, http.MethodGet, "funding-history"}:     {weight: 1},
	{Private, http.MethodGet, "marginType/query"}:    {weight: 1},

	{Private, http.MethodPost, "orders"}:                               {weight: 1.5},
	{Private, http.MethodPost, "batchOrders"}:                          {weight: 1.5},
	{Private, http.MethodPost, "position/margin/auto-deposit-status"}: {weight: 1.5},
	{Private, http.MethodPost, "position/margin/deposit-margin"}:      {weight: 1.5},
	{Private, http.MethodPost, "bullet-private"}:                       {weight: 1},
	{Private, http.MethodPost, "marginType/change"}:                    {weight: 1},

	{Private, http.MethodDelete, "orders/{order-id}"}: {weight: 1.5},
	{Private, http.MethodDelete, "orders"}:            {weight: 150.016},
	{Private, http.MethodDelete, "stopOrders"}:        {weight: 150.016},
}

// lookupEndpoint returns the declared metadata, defaulting to weight 1
func lookupEndpoint(access Access, method, path string) endpoint {
	if ep, ok := endpoints[endpointKey{access, method, path}]; ok {
		return ep
	}
	return endpoint{weight: 1}
}

// resolveVersion returns the API version an endpoint is served under
func resolveVersion(access Access, method, path string) string {
	if v := lookupEndpoint(access, method, path).version; v != "" {
		return v
	}
	return DefaultVersion
}

// limiterCost converts a weight to limiter tokens (thousandths of a unit).
// Weights carry at most three decimals.
func limiterCost(weight float64) int {
	return int(math.Round(weight * 1000))
}

// maxLimiterCost is the burst needed to admit the heaviest endpoint
func maxLimiterCost() int {
	highest := 0
	for _, ep := range endpoints {
		if c := limiterCost(ep.weight); c > highest {
			highest = c
		}
	}
	return highest
}
