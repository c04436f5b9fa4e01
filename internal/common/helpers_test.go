package common

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBOMRoundTrip(t *testing.T) {
	data := []byte(`{"version":1}`)
	withBOM := WithBOM(data)
	require.Len(t, withBOM, len(data)+3)
	require.Equal(t, data, StripBOM(withBOM))
	require.Equal(t, data, StripBOM(data))
}

func TestSHA512HalfConcatenates(t *testing.T) {
	a := SHA512Half([]byte("ab"), []byte("cd"))
	b := SHA512Half([]byte("abcd"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, SHA512Half([]byte("abce")))
}

func TestQRCodePNG(t *testing.T) {
	out, err := QRCodePNG("https://xumm.app/sign/abc", 0)
	require.NoError(t, err)

	png, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
