package settings

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEmptyReturnsDefaults(t *testing.T) {
	assert.Equal(t, Defaults(), Decode(""))
	assert.Equal(t, ModeOff, Decode("").AI.Mode)
	assert.Equal(t, ProviderGemini, Decode("").AI.Provider)
}

func TestDecodeMergesOverDefaults(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte(`{"ai":{"mode":"byok","apiKey":" key-1 "}}`))

	decoded := Decode(raw)

	assert.Equal(t, ModeBYOK, decoded.AI.Mode)
	assert.Equal(t, ProviderGemini, decoded.AI.Provider)
	assert.Equal(t, "key-1", decoded.AI.APIKey)
	assert.False(t, decoded.UI.CompactLayout)
}

func TestDecodeAcceptsPlainJSON(t *testing.T) {
	decoded := Decode(`{"ai":{"mode":"DEMO"},"ui":{"reducedMotion":true}}`)

	assert.Equal(t, ModeDemo, decoded.AI.Mode)
	assert.True(t, decoded.UI.ReducedMotion)
}

func TestDecodeInvalidInputFallsBackToDefaults(t *testing.T) {
	assert.Equal(t, Defaults(), Decode("not json at all"))
	assert.Equal(t, Defaults(), Decode(`{"ai":{"mode":7}}`))
}

func TestDecodeReplacesUnknownEnums(t *testing.T) {
	decoded := Decode(`{"ai":{"mode":"TURBO","provider":"CLIPPY"}}`)

	assert.Equal(t, ModeOff, decoded.AI.Mode)
	assert.Equal(t, ProviderGemini, decoded.AI.Provider)
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	original := Settings{
		AI: AI{Mode: ModeBYOK, Provider: ProviderOpenAI, APIKey: "sk-live"},
		UI: UI{CompactLayout: true},
	}

	encoded := Encode(original)
	require.NotEmpty(t, encoded)
	assert.NotContains(t, encoded, ";")
	assert.Equal(t, original, Decode(encoded))
}

func TestParseMode(t *testing.T) {
	mode, ok := ParseMode(" demo ")
	require.True(t, ok)
	assert.Equal(t, ModeDemo, mode)

	_, ok = ParseMode("auto")
	assert.False(t, ok)
}
