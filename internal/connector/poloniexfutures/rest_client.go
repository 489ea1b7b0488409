package poloniexfutures

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"crossspread-pfutures/internal/connector"
	"crossspread-pfutures/internal/metrics"

	"github.com/rs/zerolog/log"
)

// request signs and executes one REST call and returns the decoded response
// envelope. Non-success responses are returned as classified errors.
func (e *Exchange) request(ctx context.Context, access Access, method, path string, params map[string]interface{}) (connector.Raw, error) {
	ep := lookupEndpoint(access, method, path)

	waitTimer := metrics.NewTimer()
	if err := e.limiter.WaitN(ctx, limiterCost(ep.weight)); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	waitTimer.ObserveDuration(metrics.RateLimiterWait, ID)

	req, err := e.signer.Sign(path, access, method, params)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")

	log.Debug().
		Str("exchange", ID).
		Str("method", req.Method).
		Str("endpoint", path).
		Str("url", req.URL).
		Msg("REST request")

	timer := metrics.NewTimer()
	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordRestError(ID, path, "NetworkError")
		return nil, &connector.ExchangeError{
			Kinds:   []error{connector.ErrNetwork, err},
			Message: fmt.Sprintf("%s %s %s request failed: %v", ID, req.Method, path, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordRestError(ID, path, "NetworkError")
		return nil, &connector.ExchangeError{
			Kinds:   []error{connector.ErrNetwork, err},
			Message: fmt.Sprintf("%s %s %s failed to read response: %v", ID, req.Method, path, err),
		}
	}
	timer.ObserveDuration(metrics.RestFetchDuration, ID, path)

	if err := checkResponse(resp.StatusCode, body); err != nil {
		kind := connector.KindName(err)
		metrics.RecordRestError(ID, path, kind)
		log.Warn().
			Str("exchange", ID).
			Str("endpoint", path).
			Int("status", resp.StatusCode).
			Str("kind", kind).
			Msg(err.Error())
		return nil, err
	}

	return connector.Raw(body), nil
}

// checkResponse runs the error classifier, then the default path for
// responses it does not recognise.
func checkResponse(status int, body []byte) error {
	if err := HandleErrors(body); err != nil {
		return err
	}

	raw := connector.Raw(body)
	code := raw.String("code")
	failed := status >= http.StatusBadRequest || !raw.IsObject() || (code != "" && code != SuccessCode)
	if !failed {
		return nil
	}

	if kind := exceptions.MatchExact(strconv.Itoa(status)); kind != nil {
		return connector.NewError(kind, "%s %d %s", ID, status, string(body))
	}
	if status >= http.StatusInternalServerError {
		return connector.NewError(connector.ErrExchangeNotAvailable, "%s %d %s", ID, status, string(body))
	}
	return connector.NewError(connector.ErrExchange, "%s %d %s", ID, status, string(body))
}
