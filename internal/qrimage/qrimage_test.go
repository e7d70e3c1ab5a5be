package qrimage_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattend/internal/qrimage"
)

func TestPNG(t *testing.T) {
	png, err := qrimage.PNG("some-token-payload", 256)
	require.NoError(t, err)
	assert.True(t, len(png) > 8)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestDataURL(t *testing.T) {
	url, err := qrimage.DataURL("some-token-payload", 128)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}
