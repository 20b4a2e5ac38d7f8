package llm

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceDefaults(t *testing.T) {
	svc, err := NewService(&Config{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		APIKey:   "test-key",
	})
	require.NoError(t, err)

	s, ok := svc.(*service)
	require.True(t, ok)
	assert.Equal(t, 512, s.maxTokens)
	assert.Equal(t, float32(0.7), s.temperature)
	assert.Equal(t, 30, s.timeout)
}

func TestConvertMessages(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "you are a coach"},
		{Role: "user", Content: "hola"},
		{Role: "assistant", Content: "hola!"},
		{Role: "tool", Content: "unknown role falls back to user"},
	}

	converted := convertMessages(messages)
	require.Len(t, converted, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, converted[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, converted[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, converted[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, converted[3].Role)
}

func TestFormatMessages(t *testing.T) {
	history := []Message{
		UserMessage("ayer dormí mal"),
		AssistantMessage("descansá hoy"),
	}

	messages := FormatMessages("you are a coach", "hoy me siento mejor", history)
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Equal(t, "hoy me siento mejor", messages[3].Content)
}

func TestFormatMessagesWithoutSystemPrompt(t *testing.T) {
	messages := FormatMessages("", "hola", nil)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role)
}
