package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaychat/platform"
)

func TestParseKind(t *testing.T) {
	for name, want := range map[string]Kind{
		"openai":      KindOpenAI,
		"OpenAI":      KindOpenAI,
		"ANTHROPIC":   KindAnthropic,
		" anthropic ": KindAnthropic,
	} {
		got, ok := ParseKind(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := ParseKind("cohere")
	assert.False(t, ok)
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry(
		NewOpenAIAdapter(platform.Credential{APIKey: "k"}),
		NewAnthropicAdapter(platform.Credential{APIKey: "k"}, 0),
	)

	a, ok := registry.Lookup("Anthropic")
	require.True(t, ok)
	assert.Equal(t, KindAnthropic, a.Kind())

	_, ok = registry.Lookup("cohere")
	assert.False(t, ok)

	assert.Equal(t, []Kind{KindOpenAI, KindAnthropic}, registry.Kinds())
	assert.Equal(t, "OpenAI", KindOpenAI.DisplayName())
}

func TestRegistryOnlyServesRegisteredKinds(t *testing.T) {
	registry := NewRegistry(NewOpenAIAdapter(platform.Credential{APIKey: "k"}))
	_, ok := registry.Lookup("anthropic")
	assert.False(t, ok)
	assert.Equal(t, []Kind{KindOpenAI}, registry.Kinds())
}
