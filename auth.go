// Package sdk provides the PrepXL Go SDK for interacting with the PrepXL API.
package sdk

import (
	"net/http"
	"strings"

	"github.com/prepxl/prepxl/sdk/go/headers"
)

type authStrategy interface {
	Apply(req *http.Request)
}

type authChain []authStrategy

func (c authChain) Apply(req *http.Request) {
	for _, s := range c {
		if s == nil {
			continue
		}
		s.Apply(req)
	}
}

type bearerAuth struct {
	token string
}

func (b bearerAuth) Apply(req *http.Request) {
	if b.token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
}

type apiKeyAuth struct {
	key string
}

func (a apiKeyAuth) Apply(req *http.Request) {
	if a.key == "" {
		return
	}
	req.Header.Set(headers.APIKey, a.key)
}

// isSecretKey returns true if the API key is a secret key (px_sk_*).
func (a apiKeyAuth) isSecretKey() bool {
	return strings.HasPrefix(a.key, "px_sk_")
}
