package model

import (
	"fmt"
	"strings"
)

// Provider identifies how an account was authenticated.
type Provider string

const (
	ProviderXaman     Provider = "xaman"
	ProviderGemWallet Provider = "gemwallet"
	ProviderCrossmark Provider = "crossmark"
	ProviderDevice    Provider = "device"
)

// Providers lists every supported provider.
var Providers = []Provider{ProviderXaman, ProviderGemWallet, ProviderCrossmark, ProviderDevice}

// ParseProvider normalizes s and maps it to a known provider.
func ParseProvider(s string) (Provider, error) {
	normalized := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range Providers {
		if p == normalized {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported provider: %q", s)
}

// AccountProfile is the result of a successful connect.
type AccountProfile struct {
	Address      string            `json:"address"`
	Provider     Provider          `json:"provider,omitempty"`
	SessionToken string            `json:"token,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}
