package poloniexfutures

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crossspread-pfutures/internal/connector"

	"github.com/shopspring/decimal"
)

// Credentials authenticate private requests
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// missing names the first absent credential, or "" when complete
func (c Credentials) missing() string {
	switch {
	case c.APIKey == "":
		return "apiKey"
	case c.Secret == "":
		return "secret"
	case c.Passphrase == "":
		return "passphrase"
	}
	return ""
}

// Request is a fully built outgoing call
type Request struct {
	URL     string
	Method  string
	Headers http.Header
	Body    string
}

// Signer builds requests and authenticates private ones. It performs no I/O.
type Signer struct {
	baseURL string
	creds   Credentials
	now     func() time.Time
}

// NewSigner creates a signer. A nil clock defaults to time.Now.
func NewSigner(baseURL string, creds Credentials, now func() time.Time) *Signer {
	if baseURL == "" {
		baseURL = RESTBaseURL
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		now:     now,
	}
}

// Sign builds the request for path under the given scope and method.
//
// Placeholders such as {symbol} are filled from params and consumed. A
// "version" param overrides the declared version and is never sent.
func (s *Signer) Sign(path string, access Access, method string, params map[string]interface{}) (*Request, error) {
	method = strings.ToUpper(method)

	version := resolveVersion(access, method, path)
	if v, ok := params["version"]; ok {
		if vs := encodeValue(v); vs != "" {
			version = vs
		}
	}

	implodedPath, query := implodeParams(path, params)
	delete(query, "version")

	req := &Request{
		URL:     s.baseURL + "/api/" + version + "/" + implodedPath,
		Method:  method,
		Headers: http.Header{},
	}

	if access == Public {
		if len(query) > 0 {
			req.URL += "?" + urlencode(query)
		}
		return req, nil
	}

	if name := s.creds.missing(); name != "" {
		return nil, connector.NewError(connector.ErrAuthentication, "%s requires \"%s\" credential", ID, name)
	}

	endpoint := "/api/" + DefaultVersion + "/" + implodedPath
	if method != http.MethodGet && method != http.MethodHead {
		body, err := json.Marshal(query)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		req.Body = string(body)
	} else if len(query) > 0 {
		encoded := urlencode(query)
		req.URL += "?" + encoded
		endpoint += "?" + encoded
	}

	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	req.Headers.Set(HeaderSign, sign(s.creds.Secret, timestamp, method, endpoint, req.Body))
	req.Headers.Set(HeaderTimestamp, timestamp)
	req.Headers.Set(HeaderKey, s.creds.APIKey)
	req.Headers.Set(HeaderPassphrase, s.creds.Passphrase)
	req.Headers.Set("Content-Type", "application/json")

	return req, nil
}

// sign generates the HMAC-SHA256 request signature
// signature = base64(hmac_sha256(secret, timestamp + method + endpoint + body))
func sign(secret, timestamp, method, endpoint, body string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp + method + endpoint + body))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// implodeParams substitutes {key} placeholders and returns the params left over
func implodeParams(path string, params map[string]interface{}) (string, map[string]interface{}) {
	rest := make(map[string]interface{}, len(params))
	for k, v := range params {
		placeholder := "{" + k + "}"
		if strings.Contains(path, placeholder) {
			path = strings.ReplaceAll(path, placeholder, encodeValue(v))
			continue
		}
		rest[k] = v
	}
	return path, rest
}

func urlencode(query map[string]interface{}) string {
	values := url.Values{}
	for k, v := range query {
		values.Set(k, encodeValue(v))
	}
	return values.Encode()
}

func encodeValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
