package normalizer

import (
	"sort"
	"strings"
	"sync"

	"crossspread-pfutures/internal/connector"
)

// commonCurrencies maps exchange currency ids to unified codes
var commonCurrencies = map[string]string{
	"XBT": "BTC",
}

// MarketRegistry maps exchange market ids to unified markets and back.
// It is read-mostly: markets are replaced wholesale on (re)load.
type MarketRegistry struct {
	mu sync.RWMutex

	// byID: exchange id -> market
	byID map[string]*connector.Market

	// bySymbol: unified symbol -> market
	bySymbol map[string]*connector.Market

	// aliases: extra currency id -> code mappings on top of commonCurrencies
	aliases map[string]string
}

// NewMarketRegistry creates an empty registry
func NewMarketRegistry(aliases map[string]string) *MarketRegistry {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &MarketRegistry{
		byID:     make(map[string]*connector.Market),
		bySymbol: make(map[string]*connector.Market),
		aliases:  aliases,
	}
}

// Load replaces the registered markets
func (r *MarketRegistry) Load(markets []*connector.Market) {
	byID := make(map[string]*connector.Market, len(markets))
	bySymbol := make(map[string]*connector.Market, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
		bySymbol[m.Symbol] = m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = byID
	r.bySymbol = bySymbol
}

// Loaded reports whether any markets are registered
func (r *MarketRegistry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID) > 0
}

// Markets returns all registered markets ordered by symbol
func (r *MarketRegistry) Markets() []*connector.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()

	markets := make([]*connector.Market, 0, len(r.bySymbol))
	for _, m := range r.bySymbol {
		markets = append(markets, m)
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i].Symbol < markets[j].Symbol })
	return markets
}

// Symbols returns all registered unified symbols ordered
func (r *MarketRegistry) Symbols() []string {
	markets := r.Markets()
	symbols := make([]string, len(markets))
	for i, m := range markets {
		symbols[i] = m.Symbol
	}
	return symbols
}

// Market looks up a market by unified symbol, falling back to the exchange id
func (r *MarketRegistry) Market(symbol string) (*connector.Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.bySymbol[symbol]; ok {
		return m, true
	}
	if m, ok := r.byID[symbol]; ok {
		return m, true
	}
	return nil, false
}

// MarketByID looks up a market by exchange id
func (r *MarketRegistry) MarketByID(id string) (*connector.Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	return m, ok
}

// SafeMarket resolves a market for a record. A known id wins, then the
// fallback market; otherwise a bare market whose symbol is the id itself.
func (r *MarketRegistry) SafeMarket(id string, fallback *connector.Market) *connector.Market {
	if id != "" {
		if m, ok := r.MarketByID(id); ok {
			return m
		}
	}
	if fallback != nil {
		return fallback
	}
	return &connector.Market{ID: id, Symbol: id}
}

// SafeSymbol resolves the unified symbol for an exchange id
func (r *MarketRegistry) SafeSymbol(id string, fallback *connector.Market) string {
	return r.SafeMarket(id, fallback).Symbol
}

// CurrencyCode converts an exchange currency id to its unified code
func (r *MarketRegistry) CurrencyCode(id string) string {
	if id == "" {
		return ""
	}
	code := strings.ToUpper(strings.TrimSpace(id))
	if alias, ok := r.aliases[code]; ok {
		return alias
	}
	if common, ok := commonCurrencies[code]; ok {
		return common
	}
	return code
}

// CurrencyID converts a unified code back to the exchange currency id
func (r *MarketRegistry) CurrencyID(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	for id, c := range r.aliases {
		if c == code {
			return id
		}
	}
	for id, c := range commonCurrencies {
		if c == code {
			return id
		}
	}
	return code
}
