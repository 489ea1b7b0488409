package poloniexfutures

import (
	"crossspread-pfutures/internal/connector"
)

var exceptions = connector.ExceptionTable{
	Exact: map[string]error{
		"400":    connector.ErrBadRequest,           // Invalid request format
		"401":    connector.ErrAuthentication,       // Invalid API Key
		"403":    connector.ErrNotSupported,         // The request is forbidden
		"404":    connector.ErrNotSupported,         // The specified resource could not be found
		"405":    connector.ErrNotSupported,         // Method not allowed
		"415":    connector.ErrBadRequest,           // Content-Type must be application/json
		"429":    connector.ErrRateLimitExceeded,    // Access limit breached
		"500":    connector.ErrExchangeNotAvailable, // Internal server error
		"503":    connector.ErrExchangeNotAvailable, // Offline for maintenance
		"400001": connector.ErrAuthentication,       // An authentication header is missing
		"400002": connector.ErrInvalidNonce,         // Timestamp differs from server time by more than 5 seconds
		"400003": connector.ErrAuthentication,       // API key does not exist
		"400004": connector.ErrAuthentication,       // Passphrase error
		"400005": connector.ErrAuthentication,       // Signature error
		"400006": connector.ErrAuthentication,       // IP address not whitelisted
		"400007": connector.ErrAuthentication,       // Insufficient API key permissions
		"404000": connector.ErrNotSupported,         // URL not found
		"400100": connector.ErrBadRequest,           // Parameter error
		"411100": connector.ErrAccountSuspended,     // User is frozen
		"500000": connector.ErrExchangeNotAvailable, // Internal server error
	},
	Broad: []connector.BroadRule{
		{Substring: "Position does not exist", Kind: connector.ErrOrderNotFound}, // {"code":"200000","msg":"Position does not exist"}
	},
}

// HandleErrors classifies a response body and returns the matching typed
// error, or nil when nothing matched.
//
// A body that is not a JSON object is only checked against the broad table.
// Otherwise the message is matched exactly, then the code, then the whole
// body broadly.
func HandleErrors(body []byte) error {
	raw := connector.Raw(body)
	if !raw.IsObject() {
		if kind := exceptions.MatchBroad(string(body)); kind != nil {
			return connector.NewError(kind, "%s", string(body))
		}
		return nil
	}

	code := raw.String("code")
	message := raw.String("msg")
	feedback := ID + " " + message

	if kind := exceptions.MatchExact(message); kind != nil {
		return connector.NewError(kind, "%s", feedback)
	}
	if kind := exceptions.MatchExact(code); kind != nil {
		return connector.NewError(kind, "%s", feedback)
	}
	if kind := exceptions.MatchBroad(string(body)); kind != nil {
		return connector.NewError(kind, "%s", feedback)
	}
	return nil
}
