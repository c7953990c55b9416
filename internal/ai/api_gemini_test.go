package ai

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiContentsSplitsHistory(t *testing.T) {
	history, last, err := geminiContents([]Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: ""},
		{Role: RoleUser, Content: "who runs facebook?"},
	})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, []genai.Part{genai.Text("who runs facebook?")}, last)
}

func TestGeminiContentsNeedsTrailingUserTurn(t *testing.T) {
	_, _, err := geminiContents([]Message{{Role: RoleAssistant, Content: "hello"}})
	assert.Error(t, err)

	_, _, err = geminiContents(nil)
	assert.Error(t, err)
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Text("b")}}},
			{Content: nil},
		},
	}
	assert.Equal(t, "ab", responseText(resp))
	assert.Equal(t, "", responseText(nil))
}

func TestAnthropicMessagesSkipsEmpty(t *testing.T) {
	msgs := anthropicMessages([]Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: ""},
		{Role: RoleAssistant, Content: "hello"},
	})
	assert.Len(t, msgs, 2)
}

func TestOpenAIMessagesPrependsSystem(t *testing.T) {
	msgs := openaiMessages(&ChatRequest{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Len(t, msgs, 2)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
}

func TestOllamaMessages(t *testing.T) {
	msgs := ollamaMessages(&ChatRequest{
		System: "be brief",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: ""},
			{Role: RoleAssistant, Content: "hello"},
		},
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "be brief", msgs[0].Content)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
}
