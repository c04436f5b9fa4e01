package model

import (
	"encoding/json"
	"fmt"
)

// LoginTicket represents response for POST /account/login
type LoginTicket struct {
	UUID  string   `json:"uuid"`
	QRURL string   `json:"qrUrl"`
	Next  NextLink `json:"next"`
}

// NextLink is the deep link a mobile signer opens. The server sends either a
// plain string or an object of the form {"always": "..."}.
type NextLink string

func (n *NextLink) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = NextLink(s)
		return nil
	}
	var obj struct {
		Always string `json:"always"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid next link: %w", err)
	}
	*n = NextLink(obj.Always)
	return nil
}

// Login status values reported by the pairing status endpoint.
const (
	LoginStatusRejected = "rejected"
	LoginStatusExpired  = "expired"
)

// LoginStatus represents response for GET /account/login/{uuid}.
// A nil Profile with an empty Status means the signer has not answered yet.
type LoginStatus struct {
	Profile *AccountProfile `json:"profile,omitempty"`
	Status  string          `json:"status,omitempty"`
}

// ChallengeResponse carries the value an extension must sign: a nonce token or a hash.
type ChallengeResponse struct {
	Token string `json:"token,omitempty"`
	Hash  string `json:"hash,omitempty"`
}

// CheckSignRequest is the body for POST /account/auth/{ext}/check-sign
type CheckSignRequest struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Token     string `json:"token,omitempty"`
	Hash      string `json:"hash,omitempty"`
}

// ProfileResponse wraps a profile returned by the server.
type ProfileResponse struct {
	Profile *AccountProfile `json:"profile"`
}
