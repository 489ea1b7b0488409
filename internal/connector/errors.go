package connector

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by all adapters. Narrower kinds wrap broader ones, so
// errors.Is(err, ErrExchange) also matches an ErrOrderNotFound failure.
var (
	ErrExchange = errors.New("exchange error")
	ErrNetwork  = errors.New("network error")

	ErrAuthentication    = fmt.Errorf("%w: authentication error", ErrExchange)
	ErrAccountSuspended  = fmt.Errorf("%w: account suspended", ErrAuthentication)
	ErrArgumentsRequired = fmt.Errorf("%w: arguments required", ErrExchange)
	ErrBadRequest        = fmt.Errorf("%w: bad request", ErrExchange)
	ErrBadSymbol         = fmt.Errorf("%w: bad symbol", ErrBadRequest)
	ErrNotSupported      = fmt.Errorf("%w: not supported", ErrExchange)
	ErrInvalidOrder      = fmt.Errorf("%w: invalid order", ErrExchange)
	ErrOrderNotFound     = fmt.Errorf("%w: order not found", ErrInvalidOrder)

	ErrInvalidNonce         = fmt.Errorf("%w: invalid nonce", ErrNetwork)
	ErrRateLimitExceeded    = fmt.Errorf("%w: rate limit exceeded", ErrNetwork)
	ErrExchangeNotAvailable = fmt.Errorf("%w: exchange not available", ErrNetwork)
)

// kindNames is ordered narrowest first
var kindNames = []struct {
	kind error
	name string
}{
	{ErrOrderNotFound, "OrderNotFound"},
	{ErrInvalidOrder, "InvalidOrder"},
	{ErrAccountSuspended, "AccountSuspended"},
	{ErrAuthentication, "AuthenticationError"},
	{ErrArgumentsRequired, "ArgumentsRequired"},
	{ErrBadSymbol, "BadSymbol"},
	{ErrBadRequest, "BadRequest"},
	{ErrNotSupported, "NotSupported"},
	{ErrInvalidNonce, "InvalidNonce"},
	{ErrRateLimitExceeded, "RateLimitExceeded"},
	{ErrExchangeNotAvailable, "ExchangeNotAvailable"},
	{ErrNetwork, "NetworkError"},
	{ErrExchange, "ExchangeError"},
}

// ExchangeError is a failure raised by an adapter, classified into one or
// more taxonomy kinds.
type ExchangeError struct {
	Kinds   []error
	Message string
}

// NewError builds an ExchangeError of a single kind
func NewError(kind error, format string, args ...interface{}) error {
	return &ExchangeError{
		Kinds:   []error{kind},
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ExchangeError) Error() string {
	return e.Message
}

// Unwrap exposes the kinds to errors.Is
func (e *ExchangeError) Unwrap() []error {
	return e.Kinds
}

// KindName returns the taxonomy name of err, or "" if err is unclassified
func KindName(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return ""
}

// BroadRule maps a message substring to an error kind
type BroadRule struct {
	Substring string
	Kind      error
}

// ExceptionTable declares how exchange codes and messages map onto the taxonomy
type ExceptionTable struct {
	Exact map[string]error
	Broad []BroadRule
}

// MatchExact returns the kind registered for key, or nil
func (t ExceptionTable) MatchExact(key string) error {
	if key == "" {
		return nil
	}
	return t.Exact[key]
}

// MatchBroad returns the kind of the first rule whose substring occurs in s, or nil
func (t ExceptionTable) MatchBroad(s string) error {
	if s == "" {
		return nil
	}
	for _, rule := range t.Broad {
		if strings.Contains(s, rule.Substring) {
			return rule.Kind
		}
	}
	return nil
}
