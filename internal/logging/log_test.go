package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComponentFieldInJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	require.NoError(t, Init("debug", true))
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		require.NoError(t, Init("warn", false))
	})

	Component("vault").WithField("address", "rTest").Info("entry added")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "vault", line["component"])
	require.Equal(t, "rTest", line["address"])
	require.Equal(t, "entry added", line["msg"])
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	require.Error(t, Init("loud", false))
}
