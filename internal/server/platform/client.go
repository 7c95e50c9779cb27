package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/walletx"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const userAgent = "socialid/1.0"

// apiClient is the JSON-over-HTTP plumbing shared by the platform clients.
type apiClient struct {
	name    string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// newAPIClient builds a client that authenticates with ts. A nil ts sends
// unauthenticated requests.
func newAPIClient(ctx context.Context, name, baseURL string, ts oauth2.TokenSource, rps float64) *apiClient {
	hc := http.DefaultClient
	if ts != nil {
		hc = oauth2.NewClient(ctx, ts)
	}
	return &apiClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		limiter: newLimiter(rps),
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// staticToken returns a bearer token source, or nil for an empty token.
func staticToken(token string) oauth2.TokenSource {
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

// getJSON performs a rate-limited GET and returns the parsed body.
// A 404 means the account does not exist and is reported as a failed
// verification.
func (c *apiClient) getJSON(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, c.wrap(ctx, err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, c.wrap(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return gjson.Result{}, c.wrap(ctx, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return gjson.Result{}, fmt.Errorf("%w: %s account not found", common.ErrPlatformVerificationFailed, c.name)
	case resp.StatusCode == http.StatusBadRequest:
		// Graph API and Twitter answer lookups of unknown or malformed
		// handles with 400 and an error object.
		if msg := errorMessage(body); msg != "" {
			return gjson.Result{}, fmt.Errorf("%w: %s: %s", common.ErrPlatformVerificationFailed, c.name, msg)
		}
		return gjson.Result{}, fmt.Errorf("%s: unexpected status %d", c.name, resp.StatusCode)
	case resp.StatusCode >= 300:
		return gjson.Result{}, fmt.Errorf("%s: unexpected status %d", c.name, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s: invalid json response", c.name)
	}
	return gjson.ParseBytes(body), nil
}

// errorMessage extracts the message of a platform error body: Graph API
// {"error":{"message"}}, Twitter {"errors":[{"detail"|"message"}]} or Reddit
// {"message"}.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	res := gjson.ParseBytes(body)
	for _, path := range []string{"error.message", "errors.0.detail", "errors.0.message", "message"} {
		if msg := res.Get(path).String(); msg != "" {
			return msg
		}
	}
	return ""
}

// wrap turns deadline failures into common.ErrUpstreamTimeout.
func (c *apiClient) wrap(ctx context.Context, err error) error {
	if IsTimeout(ctx, err) {
		return fmt.Errorf("%w: %s", common.ErrUpstreamTimeout, c.name)
	}
	return fmt.Errorf("%s: %w", c.name, err)
}

// IsTimeout reports whether err stems from an expired deadline.
func IsTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// containsKey reports whether text carries the wallet key, written either as
// hex or as its generic SS58 address. Hex is compared case-insensitively.
func containsKey(text, publicKey string) bool {
	if publicKey == "" {
		return false
	}
	if strings.Contains(strings.ToLower(text), strings.ToLower(publicKey)) {
		return true
	}
	addr, err := walletx.SS58(publicKey)
	return err == nil && strings.Contains(text, addr)
}
