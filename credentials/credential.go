// Package credentials resolves symbolic secret names to API key values and
// applies them to HTTP requests.
//
// Providers reference keys by symbolic name (e.g. "google_tts_key_1") in
// their configuration; the actual values come from a Source chain resolved
// once at provider construction. An unresolvable name is a fatal
// configuration error.
package credentials

import (
	"context"
	"net/http"
)

// Credential applies authentication to HTTP requests. Implementations
// handle different schemes such as header API keys or query parameters.
type Credential interface {
	// Apply adds authentication to the request. It may modify headers or
	// query parameters.
	Apply(ctx context.Context, req *http.Request) error

	// Type returns the credential type identifier.
	Type() string
}

// APIKeyCredential implements header-based API key authentication.
type APIKeyCredential struct {
	apiKey     string
	headerName string
	prefix     string
}

// APIKeyOption configures an APIKeyCredential.
type APIKeyOption func(*APIKeyCredential)

// WithHeaderName sets the header name for the API key.
func WithHeaderName(name string) APIKeyOption {
	return func(c *APIKeyCredential) {
		c.headerName = name
	}
}

// WithPrefix sets a value prefix such as "Bearer ".
func WithPrefix(prefix string) APIKeyOption {
	return func(c *APIKeyCredential) {
		c.prefix = prefix
	}
}

// NewAPIKeyCredential creates a header API key credential. By default it
// uses the "Authorization" header with a "Bearer " prefix.
func NewAPIKeyCredential(apiKey string, opts ...APIKeyOption) *APIKeyCredential {
	c := &APIKeyCredential{
		apiKey:     apiKey,
		headerName: "Authorization",
		prefix:     "Bearer ",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply sets the API key header.
func (c *APIKeyCredential) Apply(_ context.Context, req *http.Request) error {
	if c.apiKey != "" {
		req.Header.Set(c.headerName, c.prefix+c.apiKey)
	}
	return nil
}

// Type returns "api_key".
func (c *APIKeyCredential) Type() string {
	return "api_key"
}

// APIKey returns the raw key value, for providers that need it outside
// HTTP headers.
func (c *APIKeyCredential) APIKey() string {
	return c.apiKey
}

// QueryAPIKeyCredential passes the API key as a URL query parameter, the
// scheme used by Google Cloud REST endpoints.
type QueryAPIKeyCredential struct {
	apiKey string
	param  string
}

// NewQueryAPIKeyCredential creates a query-parameter credential. The param
// defaults to "key" when empty.
func NewQueryAPIKeyCredential(apiKey, param string) *QueryAPIKeyCredential {
	if param == "" {
		param = "key"
	}
	return &QueryAPIKeyCredential{apiKey: apiKey, param: param}
}

// Apply sets the key query parameter on the request URL.
func (c *QueryAPIKeyCredential) Apply(_ context.Context, req *http.Request) error {
	if c.apiKey == "" {
		return nil
	}
	q := req.URL.Query()
	q.Set(c.param, c.apiKey)
	req.URL.RawQuery = q.Encode()
	return nil
}

// Type returns "query_api_key".
func (c *QueryAPIKeyCredential) Type() string {
	return "query_api_key"
}

// APIKey returns the raw key value.
func (c *QueryAPIKeyCredential) APIKey() string {
	return c.apiKey
}

// compile-time interface assertions
var (
	_ Credential = (*APIKeyCredential)(nil)
	_ Credential = (*QueryAPIKeyCredential)(nil)
)
