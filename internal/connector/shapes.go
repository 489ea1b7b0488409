package connector

import "sort"

// Timestamped is implemented by records that can be ordered in time
type Timestamped interface {
	*Trade | *Order | *OHLCV | *FundingPayment
}

func timestampOf[T Timestamped](v T) int64 {
	switch x := any(v).(type) {
	case *Trade:
		return x.Timestamp
	case *Order:
		return x.Timestamp
	case *OHLCV:
		return x.Timestamp
	case *FundingPayment:
		return x.Timestamp
	}
	return 0
}

// SortBySinceLimit orders records by timestamp, drops those older than since
// and keeps the first limit of the rest. Zero since or limit disables the filter.
func SortBySinceLimit[T Timestamped](items []T, since int64, limit int) []T {
	sort.SliceStable(items, func(i, j int) bool {
		return timestampOf(items[i]) < timestampOf(items[j])
	})
	out := make([]T, 0, len(items))
	for _, item := range items {
		if since > 0 && timestampOf(item) < since {
			continue
		}
		out = append(out, item)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FilterSymbols keeps records whose symbol is in symbols. An empty list keeps everything.
func FilterSymbols[T any](items []T, symbols []string, symbolOf func(T) string) []T {
	if len(symbols) == 0 {
		return items
	}
	wanted := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		wanted[s] = struct{}{}
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := wanted[symbolOf(item)]; ok {
			out = append(out, item)
		}
	}
	return out
}
