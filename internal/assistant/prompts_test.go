package assistant

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPromptsRender(t *testing.T) {
	p := DefaultPrompts()
	data := PromptData{
		AssistantName: "Akashvani",
		Context:       "Alice: hello",
		Question:      "what is 2+2?",
	}

	answer, err := p.Answer(data)
	require.NoError(t, err)
	assert.Contains(t, answer, "Akashvani")
	assert.Contains(t, answer, "Alice: hello")
	assert.Contains(t, answer, `"what is 2+2?"`)

	summary, err := p.Summarize(data)
	require.NoError(t, err)
	assert.Contains(t, summary, "Alice: hello")

	judge, err := p.Judge(PromptData{ExpectedBehavior: "be concise", ActualResponse: "4"})
	require.NoError(t, err)
	assert.Contains(t, judge, "be concise")
	assert.Contains(t, judge, "PASS")
}

func TestLoadPromptsOverride(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "prompts/answer.tmpl",
		[]byte("Q: {{.Question}} C: {{.Context}}"), 0644))

	p, err := LoadPrompts(fsys, "prompts")
	require.NoError(t, err)

	answer, err := p.Answer(PromptData{Question: "why?", Context: "ctx"})
	require.NoError(t, err)
	assert.Equal(t, "Q: why? C: ctx", answer)

	// Templates without an override file keep the defaults.
	judge, err := p.Judge(PromptData{ExpectedBehavior: "x", ActualResponse: "y"})
	require.NoError(t, err)
	assert.Contains(t, judge, "impartial judge")
}

func TestLoadPromptsRejectsBadTemplate(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "prompts/judge.tmpl",
		[]byte("{{.Unclosed"), 0644))

	_, err := LoadPrompts(fsys, "prompts")
	assert.Error(t, err)
}
