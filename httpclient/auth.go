package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthAPIKey sends an API key in a header or query parameter.
	AuthAPIKey
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type AuthType
	// Key is the API key.
	Key string
	// In places the API key: "header" (default) or "query".
	In string
	// Name is the header or query parameter name. Defaults to "X-API-Key".
	Name string
}

// NoAuth disables client-level auth for a single request, such as a
// pre-signed session URL that must not carry the API key.
func NoAuth() *AuthConfig {
	return &AuthConfig{Type: AuthNone}
}

// APIKeyAuthQuery creates an API key auth config sent as a query parameter.
func APIKeyAuthQuery(key, paramName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: paramName}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil || a.Type != AuthAPIKey {
		return
	}
	name := a.Name
	if name == "" {
		name = "X-API-Key"
	}
	if a.In == "query" {
		q := req.URL.Query()
		q.Set(name, a.Key)
		req.URL.RawQuery = q.Encode()
	} else {
		req.Header.Set(name, a.Key)
	}
}
