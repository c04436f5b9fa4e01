package common

import (
	"bytes"
	"crypto/sha512"
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the PNG edge length used when callers pass 0.
const DefaultQRSize = 256

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM skips a leading UTF-8 BOM if present
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// WithBOM prefixes data with a UTF-8 BOM for proper display in Windows
func WithBOM(data []byte) []byte {
	out := make([]byte, 0, len(utf8BOM)+len(data))
	out = append(out, utf8BOM...)
	return append(out, data...)
}

// SHA512Half returns the first 32 bytes of SHA-512 over the concatenated parts.
func SHA512Half(parts ...[]byte) [32]byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// QRCodePNG renders content as a QR code and returns the PNG in base64
func QRCodePNG(content string, size int) (string, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(size)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
