package model

// GenerateResponse represents response for POST /vault and POST /vault/entries
type GenerateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Address string `json:"address,omitempty"`
	QR      string `json:"QR,omitempty"`
}

// CreateVaultRequest represents request for POST /vault
type CreateVaultRequest struct {
	Passphrase string `json:"passphrase"`
}

// ImportSeedRequest represents request for POST /vault/entries
type ImportSeedRequest struct {
	Seed       string `json:"seed"`
	Label      string `json:"label"`
	Passphrase string `json:"passphrase"`
}

// EntryResponse is the public part of a vault entry.
type EntryResponse struct {
	Label     string    `json:"label"`
	Address   string    `json:"address"`
	Algorithm Algorithm `json:"algorithm"`
	CreatedAt string    `json:"createdAt"`
}

// ValidateSeedRequest represents request for POST /seed/validate
type ValidateSeedRequest struct {
	Seed string `json:"seed"`
}

// ValidateSeedResponse represents response for POST /seed/validate
type ValidateSeedResponse struct {
	Valid     bool      `json:"valid"`
	Algorithm Algorithm `json:"algorithm,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// PairingResponse represents a push/QR pairing session as exposed by the local API.
type PairingResponse struct {
	ID                string          `json:"id"`
	Provider          Provider        `json:"provider"`
	State             string          `json:"state"`
	QRURL             string          `json:"qrUrl,omitempty"`
	DeepLink          string          `json:"deepLink,omitempty"`
	QR                string          `json:"QR,omitempty"`
	AttemptsRemaining int             `json:"attemptsRemaining"`
	Profile           *AccountProfile `json:"profile,omitempty"`
}

// RemoveEntryRequest represents request for DELETE /vault/entries/{address}
type RemoveEntryRequest struct {
	Passphrase string `json:"passphrase"`
}
