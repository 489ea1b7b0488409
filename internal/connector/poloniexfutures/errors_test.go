package poloniexfutures

import (
	"errors"
	"testing"

	"crossspread-pfutures/internal/connector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind error
	}{
		{"success", `{"code":"200000","data":{}}`, nil},
		{"empty body", ``, nil},
		{"rate limit code", `{"code":"429","msg":"Too many requests"}`, connector.ErrRateLimitExceeded},
		{"nonce", `{"code":"400002","msg":"Invalid KC-API-TIMESTAMP"}`, connector.ErrInvalidNonce},
		{"signature", `{"code":"400005","msg":"Invalid signature"}`, connector.ErrAuthentication},
		{"frozen", `{"code":"411100","msg":"User is frozen"}`, connector.ErrAccountSuspended},
		{"broad message", `{"code":"200000","msg":"Position does not exist"}`, connector.ErrOrderNotFound},
		{"broad plain text", `error: Position does not exist`, connector.ErrOrderNotFound},
		{"unknown code", `{"code":"999999","msg":"strange"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleErrors([]byte(tt.body))
			if tt.kind == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestHandleErrorsFeedback(t *testing.T) {
	err := HandleErrors([]byte(`{"code":"400100","msg":"Parameter error"}`))
	require.Error(t, err)
	assert.Equal(t, "poloniexfutures Parameter error", err.Error())
	assert.True(t, errors.Is(err, connector.ErrBadRequest))
	assert.True(t, errors.Is(err, connector.ErrExchange))
	assert.Equal(t, "BadRequest", connector.KindName(err))
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"ok", 200, `{"code":"200000","data":1}`, nil},
		{"status table", 429, ``, connector.ErrRateLimitExceeded},
		{"maintenance", 503, `<html>down</html>`, connector.ErrExchangeNotAvailable},
		{"bad gateway", 502, `<html>Bad Gateway</html>`, connector.ErrExchangeNotAvailable},
		{"gateway timeout", 504, `<html>Gateway Timeout</html>`, connector.ErrExchangeNotAvailable},
		{"origin error", 522, ``, connector.ErrExchangeNotAvailable},
		{"unmapped status", 418, `teapot`, connector.ErrExchange},
		{"unmapped code", 200, `{"code":"300000","msg":"odd"}`, connector.ErrExchange},
		{"not an object", 200, `[]`, connector.ErrExchange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkResponse(tt.status, []byte(tt.body))
			if tt.kind == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestRateLimitIsNetworkError(t *testing.T) {
	err := checkResponse(429, []byte(`{"code":"429","msg":"Too many requests"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrRateLimitExceeded))
	assert.True(t, errors.Is(err, connector.ErrNetwork))
	assert.False(t, errors.Is(err, connector.ErrExchange))
}
