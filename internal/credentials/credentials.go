package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when the backend holds no credentials for an exchange
var ErrNotFound = errors.New("no credentials found")

// ExchangeCredentials holds decrypted API credentials for an exchange
type ExchangeCredentials struct {
	APIKey     string `json:"apiKey"`
	APISecret  string `json:"apiSecret"`
	Passphrase string `json:"passphrase,omitempty"`
	UserID     string `json:"userId"`
}

// Complete reports whether key, secret and passphrase are all set
func (c ExchangeCredentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.Passphrase != ""
}

// Empty reports whether no credential field is set
func (c ExchangeCredentials) Empty() bool {
	return c.APIKey == "" && c.APISecret == "" && c.Passphrase == ""
}

// CredentialsFetcher fetches API credentials from the backend API
type CredentialsFetcher struct {
	backendURL    string
	serviceSecret string
	httpClient    *http.Client
}

// NewCredentialsFetcher creates a new credentials fetcher
func NewCredentialsFetcher(backendURL, serviceSecret string) *CredentialsFetcher {
	return &CredentialsFetcher{
		backendURL:    backendURL,
		serviceSecret: serviceSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (f *CredentialsFetcher) get(ctx context.Context, path string, out interface{}) error {
	url := fmt.Sprintf("%s/api/v1/internal/credentials%s", f.backendURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Service %s", f.serviceSecret))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch credentials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("unauthorized: invalid service credentials")
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetExchangeCredentials fetches credentials for a specific exchange
func (f *CredentialsFetcher) GetExchangeCredentials(ctx context.Context, exchange string) ([]ExchangeCredentials, error) {
	var result []ExchangeCredentials
	if err := f.get(ctx, "/"+exchange, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetFirstCredentials returns the first set of credentials for an exchange (for single-user setups)
func (f *CredentialsFetcher) GetFirstCredentials(ctx context.Context, exchange string) (*ExchangeCredentials, error) {
	creds, err := f.GetExchangeCredentials(ctx, exchange)
	if err != nil {
		return nil, err
	}

	if len(creds) == 0 {
		return nil, fmt.Errorf("%w for exchange %s", ErrNotFound, exchange)
	}

	return &creds[0], nil
}

// Resolve picks the credentials for an exchange. Locally configured
// credentials win; otherwise the backend is asked when a fetcher is given.
// Running without credentials is valid, so an empty result is not an error.
func Resolve(ctx context.Context, local ExchangeCredentials, fetcher *CredentialsFetcher, exchange string) (ExchangeCredentials, error) {
	if !local.Empty() {
		if !local.Complete() {
			return ExchangeCredentials{}, fmt.Errorf("incomplete %s credentials: key, secret and passphrase are all required", exchange)
		}
		return local, nil
	}
	if fetcher == nil {
		return ExchangeCredentials{}, nil
	}

	creds, err := fetcher.GetFirstCredentials(ctx, exchange)
	if errors.Is(err, ErrNotFound) {
		log.Info().Str("exchange", exchange).Msg("No credentials configured, private endpoints disabled")
		return ExchangeCredentials{}, nil
	}
	if err != nil {
		return ExchangeCredentials{}, err
	}
	return *creds, nil
}
